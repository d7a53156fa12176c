package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/timevault/timevault/internal/storage"
)

// kvBucket holds every key-value pair of the local tier.
var kvBucket = []byte("kv")

// Storage is the BoltDB-backed local tier adapter.
type Storage struct {
	db *bbolt.DB
}

var _ storage.Adapter = (*Storage)(nil)

// New opens (or creates) the BoltDB file at dbPath and prepares the
// bucket layout.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database file.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(kvBucket); err != nil {
			return fmt.Errorf("failed to create kv bucket: %w", err)
		}
		return nil
	})
}

// Get returns the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var value []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(kvBucket)
		if bucket == nil {
			return storage.ErrNotFound
		}

		data := bucket.Get([]byte(key))
		if data == nil {
			return storage.ErrNotFound
		}

		// Data returned by bbolt is only valid inside the transaction.
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return value, nil
}

// Set stores value under key.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(kvBucket)
		if bucket == nil {
			return fmt.Errorf("kv bucket missing")
		}
		return bucket.Put([]byte(key), value)
	})

	if err != nil {
		return fmt.Errorf("%w: set %q: %w", storage.ErrStorageFailure, key, err)
	}

	return nil
}

// Delete removes key. Absent keys are ignored.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(kvBucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})

	if err != nil {
		return fmt.Errorf("%w: delete %q: %w", storage.ErrStorageFailure, key, err)
	}

	return nil
}

// Exists reports whether key is present.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	if s.db == nil {
		return false, storage.ErrStorageClosed
	}

	var found bool

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(kvBucket)
		if bucket == nil {
			return nil
		}
		found = bucket.Get([]byte(key)) != nil
		return nil
	})

	if err != nil {
		return false, fmt.Errorf("%w: exists %q: %w", storage.ErrStorageFailure, key, err)
	}

	return found, nil
}

// Keys returns all keys matching the glob pattern.
func (s *Storage) Keys(ctx context.Context, pattern string) ([]string, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var keys []string

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(kvBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			if storage.MatchKey(pattern, string(k)) {
				keys = append(keys, string(k))
			}
			return nil
		})
	})

	if err != nil {
		return nil, fmt.Errorf("%w: keys %q: %w", storage.ErrStorageFailure, pattern, err)
	}

	return keys, nil
}

// Clear removes every key by recreating the bucket.
func (s *Storage) Clear(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(kvBucket); err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("failed to delete bucket: %w", err)
		}
		if _, err := tx.CreateBucket(kvBucket); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})

	if err != nil {
		return fmt.Errorf("%w: clear: %w", storage.ErrStorageFailure, err)
	}

	return nil
}
