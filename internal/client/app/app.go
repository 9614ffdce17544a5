// Package app wires the client components from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/internal/client/api"
	"github.com/iudanet/scholardesk/internal/client/auth"
	"github.com/iudanet/scholardesk/internal/client/cache"
	"github.com/iudanet/scholardesk/internal/client/config"
	"github.com/iudanet/scholardesk/internal/client/metrics"
	"github.com/iudanet/scholardesk/internal/client/storage"
	"github.com/iudanet/scholardesk/internal/client/storage/boltdb"
	"github.com/iudanet/scholardesk/internal/client/storage/memory"
	"github.com/iudanet/scholardesk/internal/client/storage/redis"
	"github.com/iudanet/scholardesk/internal/client/storage/sqlite"
	"github.com/iudanet/scholardesk/internal/logging"
)

// Storage backend names
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// App holds the wired client and everything it owns
type App struct {
	Log      *zap.Logger
	KV       storage.KV
	Session  *auth.Store
	Cache    *cache.Cache
	Client   *api.Client
	Registry *prometheus.Registry
}

// Option меняет компоненты до сборки клиента (используется в тестах)
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// WithHTTPClient заменяет HTTP клиент с таймаутом из конфига
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger заменяет логгер, собранный по cfg.Log
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.logger = log }
}

// New открывает хранилище и собирает api.Client
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		var err error
		log, err = logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return nil, err
		}
	}

	kv, err := OpenStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	c := cache.New(kv, cfg.Cache.Namespace,
		cache.WithLogger(log),
		cache.WithMetrics(m),
		cache.WithDefaultTTL(cfg.Cache.DefaultTTL),
	)
	session := auth.NewStore(kv)

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.API.Timeout}
	}

	client := api.NewClient(cfg.API.BaseURL, session,
		api.WithHTTPClient(hc),
		api.WithCache(c),
		api.WithLogger(log),
		api.WithMetrics(m),
		api.WithTTLs(api.TTLs{
			Scholarships:      cfg.Cache.Scholarships,
			Scholarship:       cfg.Cache.Scholarship,
			AdminScholarships: cfg.Cache.AdminScholarships,
			Statistics:        cfg.Cache.Statistics,
			Admins:            cfg.Cache.Admins,
		}),
	)

	log.Debug("client initialized",
		zap.String("base_url", client.BaseURL()),
		zap.String("storage", cfg.Storage.Backend),
	)

	return &App{
		Log:      log,
		KV:       kv,
		Session:  session,
		Cache:    c,
		Client:   client,
		Registry: reg,
	}, nil
}

// OpenStorage открывает KV хранилище по имени backend
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (storage.KV, error) {
	switch cfg.Backend {
	case BackendMemory:
		return memory.New(), nil
	case BackendBolt, "":
		kv, err := boltdb.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return kv, nil
	case BackendSQLite:
		kv, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return kv, nil
	case BackendRedis:
		kv, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownBackend, cfg.Backend)
	}
}

// Close закрывает хранилище и сбрасывает буфер логгера
func (a *App) Close() error {
	err := a.KV.Close()
	// Sync на stderr возвращает EINVAL на некоторых платформах
	_ = a.Log.Sync()
	if err != nil && !errors.Is(err, storage.ErrStorageClosed) {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
