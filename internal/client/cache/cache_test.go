package cache

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iudanet/scholardesk/internal/client/metrics"
	"github.com/iudanet/scholardesk/internal/client/storage"
	"github.com/iudanet/scholardesk/internal/client/storage/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := memory.New()
	c := New(kv, "test", WithClock(clock.Now))

	c.Set(ctx, "k", []byte(`{"a":1}`), time.Minute)

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(got))

	// граница TTL включительно
	clock.Advance(time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.True(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := memory.New()
	m := metrics.Nop()
	c := New(kv, "test", WithClock(clock.Now), WithMetrics(m))

	c.Set(ctx, "k", []byte(`[1,2]`), 30*time.Second)
	clock.Advance(30*time.Second + time.Millisecond)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	// запись удалена из хранилища
	_, err := kv.Get(ctx, "test:k")
	require.ErrorIs(t, err, storage.ErrNotFound)

	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheEvictions), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheMisses), 0)
}

func TestCache_DefaultTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := New(memory.New(), "test", WithClock(clock.Now), WithDefaultTTL(10*time.Second))

	c.Set(ctx, "k", []byte(`1`), 0)

	clock.Advance(10 * time.Second)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCache_StoredFormat(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	kv := memory.New()
	c := New(kv, "ns", WithClock(clock.Now))

	c.Set(ctx, "/scholarships/", []byte(`{"x":true}`), 2*time.Second)

	raw, err := kv.Get(ctx, "ns:/scholarships/")
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"data":{"x":true},"timestamp":`+itoa(clock.Now().UnixMilli())+`,"ttl":2000}`,
		string(raw))
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	c := New(kv, "ns")
	other := New(kv, "other")

	c.Set(ctx, "a", []byte(`1`), time.Minute)
	c.Set(ctx, "b", []byte(`2`), time.Minute)
	other.Set(ctx, "a", []byte(`3`), time.Minute)
	require.NoError(t, kv.Set(ctx, "tokens", []byte(`{}`)))

	c.Clear(ctx)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)

	// соседние пространства имен не затронуты
	got, ok := other.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "3", string(got))
	_, err := kv.Get(ctx, "tokens")
	require.NoError(t, err)
}

func TestCache_FailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("quota exceeded")
	kv := &storage.KVMock{
		GetFunc: func(ctx context.Context, key string) ([]byte, error) {
			return nil, boom
		},
		SetFunc: func(ctx context.Context, key string, value []byte) error {
			return boom
		},
		KeysFunc: func(ctx context.Context, prefix string) ([]string, error) {
			return nil, boom
		},
		RemoveFunc: func(ctx context.Context, key string) error {
			return boom
		},
	}
	core, logs := observer.New(zapcore.WarnLevel)
	c := New(kv, "ns", WithLogger(zap.New(core)))

	assert.NotPanics(t, func() {
		c.Set(ctx, "k", []byte(`1`), time.Minute)
		_, ok := c.Get(ctx, "k")
		assert.False(t, ok)
		c.Clear(ctx)
	})

	assert.Equal(t, 1, logs.FilterMessage("cache write failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("cache read failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("cache clear failed").Len())
}

func TestCache_InvalidValueNotStored(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	core, logs := observer.New(zapcore.WarnLevel)
	c := New(kv, "ns", WithLogger(zap.New(core)))

	c.Set(ctx, "k", []byte(`{not json`), time.Minute)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("cache entry encode failed").Len())
}

func TestCache_CorruptEntryDropped(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	require.NoError(t, kv.Set(ctx, "ns:k", []byte("garbage")))
	c := New(kv, "ns")

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	_, err := kv.Get(ctx, "ns:k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNew_DefaultNamespace(t *testing.T) {
	c := New(memory.New(), "")
	assert.Equal(t, DefaultNamespace, c.Namespace())
}

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		query    url.Values
		want     string
	}{
		{"no query", "/scholarships/", nil, "/scholarships/"},
		{"empty query", "/scholarships/", url.Values{}, "/scholarships/"},
		{"sorted params", "/admin/scholarships/", url.Values{"search": {"mit"}, "page": {"2"}}, "/admin/scholarships/?page=2&search=mit"},
		{"escaped", "/scholarships/", url.Values{"country": {"New Zealand"}}, "/scholarships/?country=New+Zealand"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.endpoint, tt.query))
		})
	}

	a := Key("/x/", url.Values{"b": {"1"}, "a": {"2"}})
	b := Key("/x/", url.Values{"a": {"2"}, "b": {"1"}})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Key("/x/", url.Values{"a": {"3"}, "b": {"1"}}))
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
