package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-screener/pkg/config"
	"github.com/wonny/aegis-screener/pkg/database"
	"github.com/wonny/aegis-screener/pkg/kvstore"
	"github.com/wonny/aegis-screener/pkg/logger"
	"github.com/wonny/aegis-screener/pkg/redis"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "설정 및 저장소 연결 점검",
	Long: `설정을 읽고 선택된 STORE_BACKEND 연결을 점검합니다.

Example:
  go run ./cmd/screener check
  STORE_BACKEND=postgres go run ./cmd/screener check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	PrintHeader("Screener Check")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Config: %v\n", err)
		return err
	}
	fmt.Printf("✅ Config loaded (ENV: %s, store: %s, universe: %s)\n", cfg.Env, cfg.Store.Backend, cfg.Scan.UniverseSource)
	if cfg.KIS.AppKey == "" || cfg.KIS.AppSecret == "" {
		fmt.Println("⚠️  KIS_APP_KEY / KIS_APP_SECRET not set: every quote will be rejected")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	switch cfg.Store.Backend {
	case config.StorePostgres:
		err = checkPostgres(ctx, cfg)
	case config.StoreRedis:
		err = checkRedis(ctx, cfg)
	default:
		err = checkRoundTrip(ctx, cfg)
	}
	if err != nil {
		fmt.Printf("❌ Store: %v\n", err)
		return err
	}

	fmt.Println("\n✅ All checks passed")
	return nil
}

func checkPostgres(ctx context.Context, cfg *config.Config) error {
	fmt.Printf("   Database URL: %s\n", redactURL(cfg.Database.URL))

	db, err := database.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return err
	}

	fmt.Println("✅ Postgres healthy")
	fmt.Printf("   Response Time: %v\n", status.ResponseTime)
	fmt.Printf("   Connections: %d total / %d idle / %d max\n",
		status.Stats.TotalConns, status.Stats.IdleConns, status.Stats.MaxConns)

	return checkRoundTrip(ctx, cfg)
}

func checkRedis(ctx context.Context, cfg *config.Config) error {
	client, err := redis.New(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		return err
	}
	fmt.Printf("✅ Redis healthy (%s:%s, %v)\n", cfg.Redis.Host, cfg.Redis.Port, time.Since(start))
	if stats := client.PoolStats(); stats != nil {
		fmt.Printf("   Pool: %d total / %d idle\n", stats.TotalConns, stats.IdleConns)
	}

	return checkRoundTrip(ctx, cfg)
}

// checkRoundTrip writes, reads and deletes a probe key through the configured store
func checkRoundTrip(ctx context.Context, cfg *config.Config) error {
	store, err := kvstore.Open(ctx, cfg, logger.NewNop())
	if err != nil {
		return err
	}
	defer store.Close()

	const key = "screener_check"
	want := []byte(time.Now().Format(time.RFC3339Nano))

	if err := store.Put(ctx, key, want, time.Minute); err != nil {
		return err
	}
	got, found, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !found || string(got) != string(want) {
		return fmt.Errorf("probe key did not round-trip")
	}
	if err := store.Delete(ctx, key); err != nil {
		return err
	}

	fmt.Printf("✅ Store round-trip (%s)\n", cfg.Store.Backend)
	return nil
}

// redactURL hides the password of a connection URL
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
