package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/scholardesk/internal/client/storage"
)

// newTestStorage connects to the Redis named by SCHOLARDESK_TEST_REDIS_ADDR.
// Every test gets its own key prefix so runs don't interfere.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	addr := os.Getenv("SCHOLARDESK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SCHOLARDESK_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	s, err := New(ctx, Config{Addr: addr, Prefix: "test:" + uuid.NewString() + ":"})
	require.NoError(t, err)

	t.Cleanup(func() {
		keys, _ := s.Keys(ctx, "")
		for _, k := range keys {
			_ = s.Remove(ctx, k)
		}
		_ = s.Close()
	})
	return s
}

func TestNew_Unreachable(t *testing.T) {
	// порт 1 заведомо закрыт
	s, err := New(context.Background(), Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestStorage_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.Get(ctx, "tokens")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "tokens", []byte(`{"access":"a"}`)))
	got, err := s.Get(ctx, "tokens")
	require.NoError(t, err)
	assert.JSONEq(t, `{"access":"a"}`, string(got))

	require.NoError(t, s.Remove(ctx, "tokens"))
	require.NoError(t, s.Remove(ctx, "tokens"))
	_, err = s.Get(ctx, "tokens")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_KeysStripsPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	for _, k := range []string{"cache:b", "cache:a", "user"} {
		require.NoError(t, s.Set(ctx, k, []byte("1")))
	}

	keys, err := s.Keys(ctx, "cache:")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache:a", "cache:b"}, keys)
}
