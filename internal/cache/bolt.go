package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"
)

const boltBucket = "scan_cache"

type boltEnvelope struct {
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   []byte    `json:"payload"`
}

// BoltBackend keeps entries in a local BoltDB file. Only one process may open
// the file at a time.
type BoltBackend struct {
	db      *bolt.DB
	nowFunc func() time.Time
}

// OpenBolt opens (or creates) the database at path and ensures the bucket.
func OpenBolt(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltBackend{db: db, nowFunc: time.Now}, nil
}

func (b *BoltBackend) Get(_ context.Context, key string) ([]byte, error) {
	var env boltEnvelope
	found := false

	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(boltBucket)).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &env)
	})
	if err != nil {
		return nil, fmt.Errorf("bolt get: %w", err)
	}
	if !found || !b.nowFunc().Before(env.ExpiresAt) {
		return nil, ErrMiss
	}
	return env.Payload, nil
}

func (b *BoltBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data, err := json.Marshal(boltEnvelope{
		ExpiresAt: b.nowFunc().Add(ttl),
		Payload:   value,
	})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(key), data)
	})
}

// Ping verifies the bucket can be read.
func (b *BoltBackend) Ping(context.Context) error {
	return b.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(boltBucket)) == nil {
			return fmt.Errorf("bucket %q missing", boltBucket)
		}
		return nil
	})
}

// Close releases the database file lock.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
