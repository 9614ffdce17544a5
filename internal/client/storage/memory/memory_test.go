package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/scholardesk/internal/client/storage"
)

func TestStorage_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "tokens")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "tokens", []byte("x")))
	got, err := s.Get(ctx, "tokens")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)

	require.NoError(t, s.Remove(ctx, "tokens"))
	require.NoError(t, s.Remove(ctx, "tokens"))
	_, err = s.Get(ctx, "tokens")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestStorage_KeysSortedByPrefix(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, k := range []string{"c:2", "c:1", "tokens", "c:3"} {
		require.NoError(t, s.Set(ctx, k, nil))
	}

	keys, err := s.Keys(ctx, "c:")
	require.NoError(t, err)
	assert.Equal(t, []string{"c:1", "c:2", "c:3"}, keys)
}

func TestStorage_Closed(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Close())

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, s.Set(ctx, "k", nil), storage.ErrStorageClosed)
	assert.ErrorIs(t, s.Remove(ctx, "k"), storage.ErrStorageClosed)
	_, err = s.Keys(ctx, "")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestStorage_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k:%d", i)
			assert.NoError(t, s.Set(ctx, key, []byte(key)))
			_, err := s.Get(ctx, key)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	keys, err := s.Keys(ctx, "k:")
	require.NoError(t, err)
	assert.Len(t, keys, 50)
}
