package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/scholardesk/internal/client/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNew_AppliesMigrations(t *testing.T) {
	s := newTestStorage(t)

	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'slots'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "slots", name)
}

func TestStorage_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.Get(ctx, "tokens")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "tokens", []byte(`{"access":"a"}`)))
	require.NoError(t, s.Set(ctx, "tokens", []byte(`{"access":"b"}`)))

	got, err := s.Get(ctx, "tokens")
	require.NoError(t, err)
	assert.JSONEq(t, `{"access":"b"}`, string(got))

	require.NoError(t, s.Remove(ctx, "tokens"))
	require.NoError(t, s.Remove(ctx, "tokens"))
	_, err = s.Get(ctx, "tokens")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_EmptyValue(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.Set(ctx, "k", nil))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStorage_Keys(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	for _, k := range []string{"cache:b", "cache:a", "cache_x", "cachez", "tokens"} {
		require.NoError(t, s.Set(ctx, k, []byte("1")))
	}

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{name: "namespace", prefix: "cache:", want: []string{"cache:a", "cache:b"}},
		{name: "underscore is literal", prefix: "cache_", want: []string{"cache_x"}},
		{name: "everything", prefix: "", want: []string{"cache:a", "cache:b", "cache_x", "cachez", "tokens"}},
		{name: "no match", prefix: "user", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := s.Keys(ctx, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "session.sqlite")

	s, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "user", []byte(`{"email":"a@b.c"}`)))
	require.NoError(t, s.Close())

	// Повторный запуск миграций на существующей БД ничего не ломает
	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, "user")
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.c"}`, string(got))
}

func TestStorage_Closed(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, s.Set(ctx, "k", []byte("v")), storage.ErrStorageClosed)
	assert.ErrorIs(t, s.Remove(ctx, "k"), storage.ErrStorageClosed)
	_, err = s.Keys(ctx, "")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
