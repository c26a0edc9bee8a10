package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/contact-relay/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testKey = "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"

// exerciseRateStore checks the behaviour every backend must share
func exerciseRateStore(t *testing.T, s core.RateStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, testKey)
	require.ErrorIs(t, err, core.ErrRecordNotFound)

	require.NoError(t, s.Put(ctx, testKey, []byte(`[1700000000]`)))
	data, err := s.Get(ctx, testKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[1700000000]`, string(data))

	require.NoError(t, s.Put(ctx, testKey, []byte(`[1700000000,1700000100]`)))
	data, err = s.Get(ctx, testKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[1700000000,1700000100]`, string(data))

	other := "0000000000000000000000000000000000000000000000000000000000000000"
	_, err = s.Get(ctx, other)
	assert.ErrorIs(t, err, core.ErrRecordNotFound)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(zap.NewNop(), time.Hour, 0)
	defer s.Stop()

	exerciseRateStore(t, s)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(zap.NewNop(), time.Millisecond, 0)
	defer s.Stop()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testKey, []byte(`[]`)))
	time.Sleep(5 * time.Millisecond)

	_, err := s.Get(ctx, testKey)
	assert.ErrorIs(t, err, core.ErrRecordNotFound)

	require.NoError(t, s.Cleanup(ctx))
	s.mu.RLock()
	assert.Empty(t, s.entries)
	s.mu.RUnlock()
}

func TestMemoryStoreCopiesData(t *testing.T) {
	s := NewMemoryStore(zap.NewNop(), 0, 0)
	defer s.Stop()
	ctx := context.Background()

	data := []byte(`[1]`)
	require.NoError(t, s.Put(ctx, testKey, data))
	data[1] = '9'

	got, err := s.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rate_limits")
	s, err := NewFileStore(dir, zap.NewNop())
	require.NoError(t, err)

	exerciseRateStore(t, s)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testKey+".json", entries[0].Name())
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", "a.b"} {
		assert.Error(t, s.Put(ctx, key, []byte(`[]`)), key)
		_, err := s.Get(ctx, key)
		assert.Error(t, err, key)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rate.db"), zap.NewNop(), time.Hour, 0)
	require.NoError(t, err)
	defer s.Stop()

	exerciseRateStore(t, s)
}

func TestSQLiteStoreCleanup(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rate.db"), zap.NewNop(), time.Hour, 0)
	require.NoError(t, err)
	defer s.Stop()
	ctx := context.Background()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rate_windows (client_key, timestamps, expires_at) VALUES (?, ?, ?)`,
		testKey, []byte(`[1]`), time.Now().Add(-time.Minute).Unix())
	require.NoError(t, err)

	_, err = s.Get(ctx, testKey)
	assert.ErrorIs(t, err, core.ErrRecordNotFound)

	require.NoError(t, s.Cleanup(ctx))
	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rate_windows`).Scan(&n))
	assert.Zero(t, n)
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("CONTACT_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("CONTACT_TEST_MYSQL_DSN not set")
	}

	s, err := NewMySQLStore(dsn, zap.NewNop(), time.Hour, 0)
	require.NoError(t, err)
	defer s.Stop()
	_, err = s.db.Exec(`DELETE FROM rate_windows`)
	require.NoError(t, err)

	exerciseRateStore(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CONTACT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CONTACT_TEST_REDIS_ADDR not set")
	}

	rdb, err := DialRedis(context.Background(), addr, "", 0)
	require.NoError(t, err)
	s := NewRedisStore(rdb, "contact:test:"+time.Now().Format("150405.000000"), time.Minute, zap.NewNop())
	defer s.Stop()

	exerciseRateStore(t, s)

	ttl, err := rdb.TTL(context.Background(), s.key(testKey)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
