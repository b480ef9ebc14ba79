package chartcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/kvstore"
	"github.com/wonny/aegis-screener/pkg/logger"
)

func makeSeries(n int) contracts.CandleSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, contracts.KST)
	series := make(contracts.CandleSeries, n)
	for i := range series {
		p := float64(1000 + i)
		series[i] = contracts.PricePoint{
			Date: start.AddDate(0, 0, i), Open: p, High: p + 5, Low: p - 5, Close: p + 1, Volume: int64(100 + i),
		}
	}
	return series
}

func TestKey(t *testing.T) {
	assert.Equal(t, "daily_chart_005930_20240115", Key("005930", "20240115"))
}

func TestRoundTrip(t *testing.T) {
	cache := New(kvstore.NewMemory(), logger.NewNop())
	ctx := context.Background()
	series := makeSeries(130)

	cache.Put(ctx, "005930", "20240115", series)

	got, ok := cache.Get(ctx, "005930", "20240115")
	require.True(t, ok)
	require.Len(t, got, len(series))
	for i := range series {
		assert.True(t, series[i].Date.Equal(got[i].Date))
		assert.Equal(t, series[i].Close, got[i].Close)
		assert.Equal(t, series[i].Volume, got[i].Volume)
	}
}

func TestPut_ShortSeriesIsNoop(t *testing.T) {
	store := kvstore.NewMemory()
	cache := New(store, logger.NewNop())
	ctx := context.Background()

	cache.Put(ctx, "005930", "20240115", makeSeries(119))

	_, ok := cache.Get(ctx, "005930", "20240115")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestGet_OtherDayIsMiss(t *testing.T) {
	cache := New(kvstore.NewMemory(), logger.NewNop())
	ctx := context.Background()

	cache.Put(ctx, "005930", "20240115", makeSeries(120))

	_, ok := cache.Get(ctx, "005930", "20240116")
	assert.False(t, ok)
	_, ok = cache.Get(ctx, "000660", "20240115")
	assert.False(t, ok)
}

func TestGet_CorruptEntryIsMiss(t *testing.T) {
	store := kvstore.NewMemory()
	require.NoError(t, store.Put(context.Background(), Key("005930", "20240115"), []byte("{oops"), 0))

	_, ok := New(store, logger.NewNop()).Get(context.Background(), "005930", "20240115")
	assert.False(t, ok)
}

type failingStore struct{ kvstore.Store }

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingStore) Put(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestStoreFailureIsMiss(t *testing.T) {
	cache := New(failingStore{}, logger.NewNop())
	ctx := context.Background()

	cache.Put(ctx, "005930", "20240115", makeSeries(120))
	_, ok := cache.Get(ctx, "005930", "20240115")
	assert.False(t, ok)
}
