package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-screener/internal/allocation"
	"github.com/wonny/aegis-screener/internal/chartcache"
	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/external/kis"
	"github.com/wonny/aegis-screener/internal/external/naver"
	"github.com/wonny/aegis-screener/internal/indicators"
	"github.com/wonny/aegis-screener/internal/scan"
	"github.com/wonny/aegis-screener/internal/scanprofile"
	"github.com/wonny/aegis-screener/internal/screener"
	"github.com/wonny/aegis-screener/internal/universe"
	"github.com/wonny/aegis-screener/pkg/config"
	"github.com/wonny/aegis-screener/pkg/httputil"
	"github.com/wonny/aegis-screener/pkg/kvstore"
	"github.com/wonny/aegis-screener/pkg/logger"
)

const kisTimeout = 30 * time.Second

// transport builds an HTTP client; --no-retry turns off transient retries
func transport(cfg *config.Config, log *logger.Logger, timeout time.Duration) *httputil.Client {
	client := httputil.NewWithTimeout(cfg, log, timeout)
	if noRetry {
		client.DisableRetry()
	}
	return client
}

// app holds the wired components shared by every command
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	profile *scanprofile.Profile
	store   kvstore.Store
	service *screener.Service
}

// newApp loads configuration and wires the scan stack
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if profilePath != "" {
		cfg.Scan.ProfilePath = profilePath
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Scan profile
	profile, err := scanprofile.LoadOrDefault(cfg.Scan.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("load scan profile: %w", err)
	}

	// 4. Key-value store (chart cache, token, report)
	store, err := kvstore.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// 5. External clients
	kisClient := kis.NewClient(cfg.KIS, transport(cfg, log, kisTimeout).WithRateLimit(cfg.KIS.RateLimit), store, log)

	var source contracts.RankingSource = kisClient
	if cfg.Scan.UniverseSource == config.UniverseSourceNaver {
		source = naver.NewClient(cfg.Naver, transport(cfg, log, cfg.Naver.Timeout), log)
	}

	// 6. Scan stack
	provider := universe.NewProvider(source, universe.Config{
		MaxSize: profile.Universe.MaxSize,
		Static:  profile.StaticSymbols(),
	}, log)

	pipeline := scan.NewPipeline(
		kis.NewMarketData(kisClient, log),
		chartcache.New(store, log),
		indicators.NewEngine(log),
		scan.ConfigFromProfile(profile),
		log,
	)

	service := screener.NewService(provider, pipeline, allocation.New(profile.Allocation.TopN), store, log)

	log.WithFields(map[string]interface{}{
		"env":             cfg.Env,
		"store":           cfg.Store.Backend,
		"universe_source": cfg.Scan.UniverseSource,
		"min_score":       profile.MinScore,
	}).Debug("Application wired")

	return &app{
		cfg:     cfg,
		log:     log,
		profile: profile,
		store:   store,
		service: service,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close store")
	}
}
