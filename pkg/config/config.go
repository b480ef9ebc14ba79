package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Universe ranking sources
const (
	UniverseSourceKIS   = "kis"
	UniverseSourceNaver = "naver"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Storage
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig

	// External APIs
	KIS   KISConfig
	Naver NaverConfig

	// Scan
	Scan ScanConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// StoreConfig selects the key-value store backing the chart cache and token cache
type StoreConfig struct {
	Backend    string // memory, redis, postgres, sqlite
	SQLitePath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// KISConfig holds KIS (한국투자증권) API configuration
type KISConfig struct {
	AppKey    string
	AppSecret string
	BaseURL   string
	RateLimit int // 초당 요청 수
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL string
	Timeout time.Duration // 페이지 응답 대기
}

// ScanConfig holds scan orchestration settings
type ScanConfig struct {
	UniverseSource  string // kis, naver
	ProfilePath     string // YAML scan profile (optional)
	ScheduleEnabled bool
	Schedule        string // cron with seconds, KST
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Store: StoreConfig{
			Backend:    getEnv("STORE_BACKEND", StoreMemory),
			SQLitePath: getEnv("SQLITE_PATH", "screener.db"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		KIS: KISConfig{
			AppKey:    getEnv("KIS_APP_KEY", ""),
			AppSecret: getEnv("KIS_APP_SECRET", ""),
			BaseURL:   getEnv("KIS_BASE_URL", "https://openapi.koreainvestment.com:9443"),
			RateLimit: getEnvAsInt("KIS_RATE_LIMIT", 20),
		},

		Naver: NaverConfig{
			BaseURL: getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			Timeout: getEnvAsDuration("NAVER_TIMEOUT", "10s"),
		},

		Scan: ScanConfig{
			UniverseSource:  getEnv("UNIVERSE_SOURCE", UniverseSourceKIS),
			ProfilePath:     getEnv("SCAN_PROFILE", ""),
			ScheduleEnabled: getEnvAsBool("SCHEDULE_ENABLED", true),
			Schedule:        getEnv("SCAN_CRON", "0 0 21 * * 1-5"), // 평일 21:00
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are consistent
func (c *Config) Validate() error {
	var errs error

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		errs = errors.Join(errs, fmt.Errorf("ENV must be one of: development, staging, production"))
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if !c.Redis.Enabled {
			errs = errors.Join(errs, fmt.Errorf("STORE_BACKEND=redis requires REDIS_ENABLED=true"))
		}
	case StorePostgres:
		if c.Database.URL == "" {
			errs = errors.Join(errs, fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL"))
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			errs = errors.Join(errs, fmt.Errorf("STORE_BACKEND=sqlite requires SQLITE_PATH"))
		}
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend))
	}

	if c.Scan.UniverseSource != UniverseSourceKIS && c.Scan.UniverseSource != UniverseSourceNaver {
		errs = errors.Join(errs, fmt.Errorf("UNIVERSE_SOURCE must be one of: kis, naver"))
	}

	if c.KIS.RateLimit <= 0 {
		errs = errors.Join(errs, fmt.Errorf("KIS_RATE_LIMIT must be positive"))
	}

	return errs
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
