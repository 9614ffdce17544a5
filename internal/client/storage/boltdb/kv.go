package boltdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/scholardesk/internal/client/storage"
)

// Get returns the value stored under key
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketKV)
		if bucket == nil {
			return fmt.Errorf("kv bucket not found")
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrNotFound
		}

		// Значение валидно только внутри транзакции, поэтому копируем
		value = bytes.Clone(data)
		return nil
	})
	if err != nil {
		if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
			return nil, storage.ErrStorageClosed
		}
		return nil, err
	}

	return value, nil
}

// Set stores value under key
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketKV)
		if bucket == nil {
			return fmt.Errorf("kv bucket not found")
		}

		if err := bucket.Put([]byte(key), value); err != nil {
			return fmt.Errorf("failed to save %q: %w", key, err)
		}

		return nil
	})
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return storage.ErrStorageClosed
	}
	return err
}

// Remove deletes key, missing keys are ignored
func (s *Storage) Remove(ctx context.Context, key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketKV)
		if bucket == nil {
			return fmt.Errorf("kv bucket not found")
		}

		if err := bucket.Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete %q: %w", key, err)
		}

		return nil
	})
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return storage.ErrStorageClosed
	}
	return err
}

// Keys returns all keys with the given prefix
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketKV)
		if bucket == nil {
			return fmt.Errorf("kv bucket not found")
		}

		// Ключи в bbolt отсортированы, поэтому идем курсором от префикса
		c := bucket.Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
			return nil, storage.ErrStorageClosed
		}
		return nil, err
	}

	return keys, nil
}
