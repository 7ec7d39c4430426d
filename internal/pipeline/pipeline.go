// Package pipeline turns an uploaded image into a persisted, cached Scan.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/imrishuroy/go-qrscan/internal/cache"
	"github.com/imrishuroy/go-qrscan/internal/logging"
	"github.com/imrishuroy/go-qrscan/internal/scan"
	"github.com/imrishuroy/go-qrscan/internal/validation"
)

// ErrQRNotFound is returned when no QR code could be decoded from the image.
var ErrQRNotFound = errors.New("could not decode qr code from image")

// ErrPersist is returned when the scan could not be stored.
var ErrPersist = errors.New("could not persist scan")

// Orchestrator runs decode, cache lookup, resolution, persistence and caching.
type Orchestrator struct {
	decoder   Decoder
	cache     Cache
	resolver  Resolver
	store     Store
	publisher EventPublisher
	metrics   Recorder
	validate  *validatorv10.Validate
	ttl       time.Duration
	logger    *slog.Logger

	group singleflight.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPublisher sends a scan.completed event after every new scan.
func WithPublisher(p EventPublisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.metrics = r }
}

// WithCacheTTL overrides the cache entry lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New builds an Orchestrator from its collaborators.
func New(d Decoder, c Cache, r Resolver, s Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		decoder:  d,
		cache:    c,
		resolver: r,
		store:    s,
		metrics:  nopRecorder{},
		validate: validation.New(),
		ttl:      scan.DefaultCacheTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Scan processes one uploaded image. A cached result is returned unchanged;
// otherwise the URL is resolved, scored, stored and cached. Concurrent misses
// for the same URL share one resolution.
func (o *Orchestrator) Scan(ctx context.Context, image []byte) (*scan.Scan, error) {
	log := logging.FromContext(ctx, o.logger)

	url, err := o.decoder.Decode(image)
	if err != nil {
		log.Info("qr decode failed", "bytes", len(image), "err", err)
		return nil, fmt.Errorf("%w: %v", ErrQRNotFound, err)
	}

	if s, ok := o.lookup(ctx, log, url); ok {
		return s, nil
	}

	// The flight outlives a caller that gives up, so a committed row is
	// always cached.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := o.group.Do(url, func() (interface{}, error) {
		return o.resolveAndStore(flightCtx, log, url)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug("joined in-flight scan", "url", url)
	}

	out := *v.(*scan.Scan)
	return &out, nil
}

func (o *Orchestrator) lookup(ctx context.Context, log *slog.Logger, url string) (*scan.Scan, bool) {
	s, err := o.cache.Get(ctx, url)
	switch {
	case err == nil:
		o.metrics.CacheHit()
		log.Debug("cache hit", "url", url, "scan_id", s.ID)
		return s, true
	case errors.Is(err, cache.ErrMiss):
		o.metrics.CacheMiss()
		log.Debug("cache miss", "url", url)
	default:
		o.metrics.CacheReadError()
		log.Warn("cache read failed", "url", url, "err", err)
	}
	return nil, false
}

func (o *Orchestrator) resolveAndStore(ctx context.Context, log *slog.Logger, url string) (*scan.Scan, error) {
	finalURL, score := o.resolver.Resolve(ctx, url)
	in := scan.NewInput(url, finalURL, score)

	if err := o.validate.Struct(in); err != nil {
		log.Error("scan input rejected", "url", url, "risk_score", score, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	s, err := o.store.Create(ctx, in)
	if err != nil {
		log.Error("persist scan failed", "url", url, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	o.metrics.ScanCreated(s)

	if err := o.cache.Set(ctx, url, s, o.ttl); err != nil {
		o.metrics.CacheWriteError()
		log.Error("cache write failed", "url", url, "scan_id", s.ID, "err", err)
	}

	if o.publisher != nil {
		if err := o.publisher.PublishScan(ctx, s); err != nil {
			log.Warn("publish scan event failed", "scan_id", s.ID, "err", err)
		}
	}

	log.Info("scan created", "scan_id", s.ID, "final_url", s.FinalURL, "risk_score", s.RiskScore, "is_safe", s.IsSafe)
	return s, nil
}

type nopRecorder struct{}

func (nopRecorder) CacheHit()              {}
func (nopRecorder) CacheMiss()             {}
func (nopRecorder) CacheReadError()        {}
func (nopRecorder) CacheWriteError()       {}
func (nopRecorder) ScanCreated(*scan.Scan) {}
