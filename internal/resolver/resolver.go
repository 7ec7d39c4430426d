// Package resolver follows the redirect chain of a URL and scores the result.
package resolver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/imrishuroy/go-qrscan/internal/logging"
	"github.com/imrishuroy/go-qrscan/internal/scan"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxRedirects = 10

	// at most this much of the terminal response body is drained so the
	// connection can be reused
	maxDrainBytes = 64 << 10
)

// Resolver issues one GET per call and never reports an error: URLs that
// cannot be verified come back unchanged with scan.FailureRiskScore.
type Resolver struct {
	client *http.Client
	scorer Scorer
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the HTTP client. Its CheckRedirect policy is kept.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithLogger sets the logger used for resolution failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New returns a Resolver with the given timeout and redirect cap.
func New(scorer Scorer, timeout time.Duration, maxRedirects int, opts ...Option) *Resolver {
	if scorer == nil {
		scorer = RandomScorer{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	r := &Resolver{
		client: &http.Client{
			Timeout:       timeout,
			CheckRedirect: limitRedirects(maxRedirects),
		},
		scorer: scorer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func limitRedirects(max int) func(*http.Request, []*http.Request) error {
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) > max {
			return fmt.Errorf("stopped after %d redirects", max)
		}
		return nil
	}
}

// Resolve returns the terminal URL reached from rawURL and its risk score.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, int) {
	log := logging.FromContext(ctx, r.logger)

	finalURL, err := r.follow(ctx, rawURL)
	if err != nil {
		log.Warn("url resolution failed", "url", rawURL, "err", err)
		return rawURL, scan.FailureRiskScore
	}

	score := clamp(r.scorer.Score(ctx, rawURL, finalURL))
	log.Debug("url resolved", "url", rawURL, "final_url", finalURL, "risk_score", score)
	return finalURL, score
}

func (r *Resolver) follow(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	return resp.Request.URL.String(), nil
}
