// Package cache stores serialized scan results keyed by the decoded URL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/imrishuroy/go-qrscan/internal/scan"
)

// ErrMiss is returned when a key is absent or expired. Any other error from
// Get means the backend could not be read.
var ErrMiss = errors.New("cache miss")

// Backend is a byte-oriented key/value store with per-key expiry.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// ScanCache is a typed view over a Backend.
type ScanCache struct {
	backend Backend
}

// New wraps backend.
func New(backend Backend) *ScanCache {
	return &ScanCache{backend: backend}
}

// Get returns the cached scan for key, ErrMiss, or a read error.
func (c *ScanCache) Get(ctx context.Context, key string) (*scan.Scan, error) {
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var s scan.Scan
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode cached scan: %w", err)
	}
	return &s, nil
}

// Set stores s under key for ttl.
func (c *ScanCache) Set(ctx context.Context, key string, s *scan.Scan, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode scan: %w", err)
	}
	if err := c.backend.Set(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Ping checks that the backend is reachable.
func (c *ScanCache) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// Close releases the backend connection.
func (c *ScanCache) Close() error {
	return c.backend.Close()
}
