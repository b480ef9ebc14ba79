package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screener/pkg/config"
	"github.com/wonny/aegis-screener/pkg/database"
	"github.com/wonny/aegis-screener/pkg/logger"
	"github.com/wonny/aegis-screener/pkg/redis"
)

// exerciseStore runs the common Store contract against any backend
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "daily_chart_005930_20240115", []byte(`[1,2,3]`), time.Hour))
	value, found, err := store.Get(ctx, "daily_chart_005930_20240115")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`[1,2,3]`), value)

	// overwrite is idempotent
	require.NoError(t, store.Put(ctx, "daily_chart_005930_20240115", []byte(`[4]`), 0))
	value, found, err = store.Get(ctx, "daily_chart_005930_20240115")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`[4]`), value)

	require.NoError(t, store.Delete(ctx, "daily_chart_005930_20240115"))
	_, found, err = store.Get(ctx, "daily_chart_005930_20240115")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemory_Expiry(t *testing.T) {
	store := NewMemory()
	now := time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "kis_access_token", []byte("tok"), 23*time.Hour))

	now = now.Add(22 * time.Hour)
	_, found, _ := store.Get(ctx, "kis_access_token")
	assert.True(t, found)

	now = now.Add(time.Hour)
	_, found, _ = store.Get(ctx, "kis_access_token")
	assert.False(t, found)
	assert.Equal(t, 0, store.Len())
}

func TestMemory_ExpiredReadKeepsFreshPut(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "scan_report_20240115", []byte("old"), time.Minute))
	now = now.Add(2 * time.Minute)

	// a writer slips in between the expired read and the eviction
	refreshed := false
	store.now = func() time.Time {
		if !refreshed {
			refreshed = true
			require.NoError(t, store.Put(ctx, "scan_report_20240115", []byte("new"), time.Hour))
		}
		return now
	}

	_, found, err := store.Get(ctx, "scan_report_20240115")
	require.NoError(t, err)
	assert.False(t, found)

	value, found, err := store.Get(ctx, "scan_report_20240115")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "new", string(value))
}

func TestMemory_CopiesValues(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", buf, 0))
	buf[0] = 'x'

	value, _, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(value))
}

func TestSQLite(t *testing.T) {
	store, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestSQLite_Expiry(t *testing.T) {
	store, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer store.Close()

	now := time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Minute))
	now = now.Add(2 * time.Minute)

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPurge(t *testing.T) {
	sqlite, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer sqlite.Close()

	memory := NewMemory()
	now := time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	memory.now, sqlite.now = clock, clock

	for name, store := range map[string]interface {
		Store
		Purger
	}{"memory": memory, "sqlite": sqlite} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, "old", []byte("v"), time.Minute))
			require.NoError(t, store.Put(ctx, "fresh", []byte("v"), time.Hour))
			require.NoError(t, store.Put(ctx, "forever", []byte("v"), 0))

			now = now.Add(2 * time.Minute)
			removed, err := store.Purge(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), removed)

			_, found, _ := store.Get(ctx, "fresh")
			assert.True(t, found)
			_, found, _ = store.Get(ctx, "forever")
			assert.True(t, found)
		})
	}
}

func TestRedis_Disabled(t *testing.T) {
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)

	store := NewRedis(client, "screener")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Hour))
	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := database.New(ctx, &config.Config{Database: config.DatabaseConfig{URL: url}})
	require.NoError(t, err)

	store, err := NewPostgres(ctx, db)
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	store, err := Open(ctx, &config.Config{Store: config.StoreConfig{Backend: config.StoreMemory}}, log)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, store)

	store, err = Open(ctx, &config.Config{Store: config.StoreConfig{
		Backend:    config.StoreSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "open.db"),
	}}, log)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, store)
	require.NoError(t, store.Close())

	_, err = Open(ctx, &config.Config{Store: config.StoreConfig{Backend: "etcd"}}, log)
	assert.Error(t, err)
}
