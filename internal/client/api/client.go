// Package api implements the authenticated client of the scholarship API.
//
// Every call returns a Result. A 401 on a request that carried an access token
// triggers one token refresh and one retry; concurrent refreshes share a single
// in-flight call.
package api

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/iudanet/scholardesk/internal/client/cache"
	"github.com/iudanet/scholardesk/internal/client/metrics"
	"github.com/iudanet/scholardesk/internal/client/storage/memory"
	"github.com/iudanet/scholardesk/pkg/api"
)

const (
	// DefaultBaseURL используется, если адрес не задан ни в конфиге, ни в окружении
	DefaultBaseURL = "http://localhost:8000/api"
	// EnvBaseURL переменная окружения с адресом API
	EnvBaseURL = "SCHOLARDESK_API_URL"
	// DefaultTimeout таймаут HTTP клиента
	DefaultTimeout = 30 * time.Second
)

// Session is the persisted token pair and current user
type Session interface {
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string
	SaveTokens(ctx context.Context, pair api.TokenPair) error
	SaveUser(ctx context.Context, user api.User) error
	Clear(ctx context.Context) error
}

// Cache is the read cache in front of GET endpoints
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Clear(ctx context.Context)
}

// TTLs are per-endpoint cache lifetimes
type TTLs struct {
	Scholarships      time.Duration
	Scholarship       time.Duration
	AdminScholarships time.Duration
	Statistics        time.Duration
	Admins            time.Duration
}

// DefaultTTLs: statistics change often, scholarship details rarely
func DefaultTTLs() TTLs {
	return TTLs{
		Scholarships:      2 * time.Minute,
		Scholarship:       10 * time.Minute,
		AdminScholarships: time.Minute,
		Statistics:        30 * time.Second,
		Admins:            time.Minute,
	}
}

// Client представляет HTTP клиент для взаимодействия с API
type Client struct {
	httpClient *http.Client
	session    Session
	cache      Cache
	log        *zap.Logger
	metrics    *metrics.Metrics
	refresh    singleflight.Group
	baseURL    string
	ttl        TTLs
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default client with a 30s timeout
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache sets the read cache
func WithCache(cc Cache) Option {
	return func(c *Client) { c.cache = cc }
}

// WithLogger sets the request logger
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithMetrics sets the request counters
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTTLs overrides cache lifetimes; zero fields keep their defaults
func WithTTLs(ttl TTLs) Option {
	return func(c *Client) {
		if ttl.Scholarships > 0 {
			c.ttl.Scholarships = ttl.Scholarships
		}
		if ttl.Scholarship > 0 {
			c.ttl.Scholarship = ttl.Scholarship
		}
		if ttl.AdminScholarships > 0 {
			c.ttl.AdminScholarships = ttl.AdminScholarships
		}
		if ttl.Statistics > 0 {
			c.ttl.Statistics = ttl.Statistics
		}
		if ttl.Admins > 0 {
			c.ttl.Admins = ttl.Admins
		}
	}
}

// NewClient создает новый API клиент.
// Без WithCache чтения кэшируются в памяти процесса
func NewClient(baseURL string, session Session, opts ...Option) *Client {
	c := &Client{
		baseURL: ResolveBaseURL(baseURL),
		session: session,
		// Политика редиректов по умолчанию: Authorization не уходит на другой хост
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:     zap.NewNop(),
		metrics: metrics.Nop(),
		ttl:     DefaultTTLs(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.New(memory.New(), cache.DefaultNamespace,
			cache.WithLogger(c.log), cache.WithMetrics(c.metrics))
	}
	return c
}

// BaseURL returns the resolved API root without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ClearCache drops every cached read
func (c *Client) ClearCache(ctx context.Context) {
	c.cache.Clear(ctx)
}

// ResolveBaseURL picks configured, then $SCHOLARDESK_API_URL, then DefaultBaseURL
func ResolveBaseURL(configured string) string {
	u := strings.TrimSpace(configured)
	if u == "" {
		u = strings.TrimSpace(os.Getenv(EnvBaseURL))
	}
	if u == "" {
		u = DefaultBaseURL
	}
	return strings.TrimRight(u, "/")
}
