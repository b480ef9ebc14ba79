// Package chartcache keeps daily price history per (symbol, trading day).
package chartcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/kvstore"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// EntryTTL is the expiry handed to the store. The key already changes daily;
// the TTL only lets backends reclaim space.
const EntryTTL = 24 * time.Hour

// Cache is the same-day chart cache
// ⭐ SSOT: 일봉 캐시 키 규칙은 여기서만 (daily_chart_<code>_<yyyymmdd>)
type Cache struct {
	store  kvstore.Store
	logger *logger.Logger
}

// New creates a chart cache over store
func New(store kvstore.Store, log *logger.Logger) *Cache {
	return &Cache{store: store, logger: log}
}

// Key returns the store key of (code, day)
func Key(code, day string) string {
	return fmt.Sprintf("daily_chart_%s_%s", code, day)
}

// Get returns the cached series for (code, day). Store failures and entries
// shorter than 120 bars are misses.
func (c *Cache) Get(ctx context.Context, code, day string) (contracts.CandleSeries, bool) {
	data, found, err := c.store.Get(ctx, Key(code, day))
	if err != nil {
		c.logger.WithField("code", code).WithError(err).Warn("Chart cache read failed")
		return nil, false
	}
	if !found {
		return nil, false
	}

	var series contracts.CandleSeries
	if err := json.Unmarshal(data, &series); err != nil {
		c.logger.WithField("code", code).WithError(err).Warn("Chart cache entry corrupt")
		return nil, false
	}
	if !series.Valid() {
		return nil, false
	}

	return series, true
}

// Put stores series for (code, day); a no-op unless it has at least 120 bars.
func (c *Cache) Put(ctx context.Context, code, day string, series contracts.CandleSeries) {
	if !series.Valid() {
		return
	}

	data, err := json.Marshal(series)
	if err != nil {
		c.logger.WithField("code", code).WithError(err).Warn("Chart cache encode failed")
		return
	}

	if err := c.store.Put(ctx, Key(code, day), data, EntryTTL); err != nil {
		c.logger.WithField("code", code).WithError(err).Warn("Chart cache write failed")
	}
}
