// Package boltstore keeps quest save blobs in an embedded bbolt file.
package boltstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const savesBucket = "quest_saves"

// Store is a bbolt-backed quest save store
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the bbolt file at path
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying bbolt database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadBlob returns the blob saved under key
func (s *Store) LoadBlob(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("storage is not configured")
	}

	var blob []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(savesBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket is missing", savesBucket)
		}
		if payload := bucket.Get([]byte(key)); payload != nil {
			// Bolt memory is only valid inside the transaction
			blob = append([]byte(nil), payload...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return blob, blob != nil, nil
}

// SaveBlob replaces the blob saved under key
func (s *Store) SaveBlob(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("save key is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(savesBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket is missing", savesBucket)
		}
		return bucket.Put([]byte(key), blob)
	})
}

// Keys returns every save key with the given prefix in key order
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(savesBucket))
		if bucket == nil {
			return fmt.Errorf("%s bucket is missing", savesBucket)
		}
		c := bucket.Cursor()
		p := []byte(prefix)
		for k, _ := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(savesBucket)); err != nil {
			return fmt.Errorf("create %s bucket: %w", savesBucket, err)
		}
		return nil
	})
}
