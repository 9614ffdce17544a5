package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/internal/client/config"
	"github.com/iudanet/scholardesk/internal/client/storage"
	"github.com/iudanet/scholardesk/internal/client/storage/boltdb"
	"github.com/iudanet/scholardesk/internal/client/storage/memory"
	"github.com/iudanet/scholardesk/internal/client/storage/sqlite"
	"github.com/iudanet/scholardesk/pkg/api"
)

func testConfig(backend, path, baseURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		Storage: config.StorageConfig{
			Backend: backend,
			Path:    path,
		},
		Log: config.LogConfig{Level: "error", Format: "console"},
		Cache: config.CacheConfig{
			Namespace:    "test_cache",
			DefaultTTL:   time.Minute,
			Scholarships: time.Minute,
		},
	}
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	kv, err := OpenStorage(ctx, config.StorageConfig{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Storage{}, kv)
	require.NoError(t, kv.Close())

	kv, err = OpenStorage(ctx, config.StorageConfig{Backend: BackendBolt, Path: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	assert.IsType(t, &boltdb.Storage{}, kv)
	require.NoError(t, kv.Close())

	kv, err = OpenStorage(ctx, config.StorageConfig{Backend: BackendSQLite, Path: filepath.Join(t.TempDir(), "c.sqlite")})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Storage{}, kv)
	require.NoError(t, kv.Close())

	_, err = OpenStorage(ctx, config.StorageConfig{Backend: "etcd"})
	require.ErrorIs(t, err, storage.ErrUnknownBackend)

	_, err = OpenStorage(ctx, config.StorageConfig{Backend: BackendBolt, Path: filepath.Join(t.TempDir(), "missing", "dir", "c.db")})
	require.Error(t, err)
}

func TestNew_WiresClientSessionAndCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/scholarships/", r.URL.Path)
		assert.Equal(t, "Bearer acc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Alpha"}]`))
	}))
	defer srv.Close()

	ctx := context.Background()
	a, err := New(ctx, testConfig(BackendBolt, filepath.Join(t.TempDir(), "c.db"), srv.URL+"/api/"),
		WithLogger(zap.NewNop()))
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Close()) }()

	assert.Equal(t, srv.URL+"/api", a.Client.BaseURL())
	assert.Equal(t, "test_cache", a.Cache.Namespace())

	require.NoError(t, a.Session.SaveTokens(ctx, api.TokenPair{Access: "acc", Refresh: "ref"}))

	for range 2 {
		res := a.Client.Scholarships(ctx, api.ScholarshipQuery{})
		require.NoError(t, res.Error)
		require.NotNil(t, res.Data)
		assert.Len(t, res.Data.Results, 1)
	}
	// второй вызов из кэша
	assert.Equal(t, int32(1), calls.Load())

	keys, err := a.KV.Keys(ctx, "test_cache:")
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNew_BadLogLevel(t *testing.T) {
	cfg := testConfig(BackendMemory, "", "")
	cfg.Log.Level = "loud"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}
