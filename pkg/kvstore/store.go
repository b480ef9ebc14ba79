// Package kvstore provides the small key-value store behind the chart cache,
// the KIS token cache and the persisted scan report.
package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-screener/pkg/config"
	"github.com/wonny/aegis-screener/pkg/database"
	"github.com/wonny/aegis-screener/pkg/logger"
	"github.com/wonny/aegis-screener/pkg/redis"
)

// Store is a byte-valued key-value store with optional expiry
// ⭐ SSOT: 캐시/토큰/리포트 저장은 모두 이 인터페이스를 통해서만
type Store interface {
	// Get returns (nil, false, nil) when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put writes value; ttl <= 0 means no expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Purger is implemented by backends that keep expired rows until swept.
// Redis expires keys itself.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

var (
	_ Purger = (*Memory)(nil)
	_ Purger = (*SQLite)(nil)
	_ Purger = (*Postgres)(nil)
)

// Open builds the store selected by cfg.Store.Backend
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	log.WithField("backend", cfg.Store.Backend).Info("Opening key-value store")

	switch cfg.Store.Backend {
	case config.StoreMemory, "":
		return NewMemory(), nil

	case config.StoreRedis:
		client, err := redis.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return NewRedis(client, "screener"), nil

	case config.StorePostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		store, err := NewPostgres(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil

	case config.StoreSQLite:
		return NewSQLite(ctx, cfg.Store.SQLitePath)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
