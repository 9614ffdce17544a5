// Package redis stores client slots in Redis so several processes can share one session.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"github.com/iudanet/scholardesk/internal/client/storage"
)

// scanBatch is the COUNT hint for SCAN iterations
const scanBatch = 100

// Config holds connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key so one Redis can host several clients
	Prefix string
}

// Storage is a storage.KV backed by a Redis client
type Storage struct {
	rdb    goredis.UniversalClient
	prefix string
}

var _ storage.KV = (*Storage)(nil)

// New connects to Redis and checks the connection with PING
func New(ctx context.Context, cfg Config) (*Storage, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return NewWithClient(rdb, cfg.Prefix), nil
}

// NewWithClient wraps an existing client
func NewWithClient(rdb goredis.UniversalClient, prefix string) *Storage {
	return &Storage{rdb: rdb, prefix: prefix}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, mapClosed(fmt.Errorf("redis GET %q: %w", key, err))
	}
	return b, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	// TTL не задаем: срок жизни записей кэша контролирует cache-слой
	if err := s.rdb.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return mapClosed(fmt.Errorf("redis SET %q: %w", key, err))
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+key).Err(); err != nil {
		return mapClosed(fmt.Errorf("redis DEL %q: %w", key, err))
	}
	return nil
}

// Keys walks the keyspace with SCAN, KEYS would block the server
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	iter := s.rdb.Scan(ctx, 0, s.prefix+prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(s.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, mapClosed(fmt.Errorf("redis SCAN %q: %w", prefix, err))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Storage) Close() error {
	return s.rdb.Close()
}

func mapClosed(err error) error {
	if errors.Is(err, goredis.ErrClosed) {
		return fmt.Errorf("%w: %w", storage.ErrStorageClosed, err)
	}
	return err
}
