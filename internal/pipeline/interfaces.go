package pipeline

//go:generate mockgen -source=interfaces.go -destination=../mocks/pipelinemock/mocks.go -package=pipelinemock

import (
	"context"
	"time"

	"github.com/imrishuroy/go-qrscan/internal/scan"
)

// Decoder extracts the QR payload from raw image bytes.
type Decoder interface {
	Decode(data []byte) (string, error)
}

// Cache holds scans keyed by decoded URL. Get returns cache.ErrMiss when the
// key is absent; any other error is a read failure.
type Cache interface {
	Get(ctx context.Context, key string) (*scan.Scan, error)
	Set(ctx context.Context, key string, s *scan.Scan, ttl time.Duration) error
}

// Resolver follows redirects and scores a URL. It never fails.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (string, int)
}

// Store persists scans.
type Store interface {
	Create(ctx context.Context, in scan.Input) (*scan.Scan, error)
}

// EventPublisher announces completed scans.
type EventPublisher interface {
	PublishScan(ctx context.Context, s *scan.Scan) error
}

// Recorder counts pipeline outcomes.
type Recorder interface {
	CacheHit()
	CacheMiss()
	CacheReadError()
	CacheWriteError()
	ScanCreated(s *scan.Scan)
}
