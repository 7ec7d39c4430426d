package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/imrishuroy/go-qrscan/internal/scan"
)

// memBackend is an in-memory Backend that ignores expiry.
type memBackend struct {
	items  map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemBackend() *memBackend {
	return &memBackend{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.items[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (m *memBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.items[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memBackend) Ping(context.Context) error { return nil }
func (m *memBackend) Close() error               { return nil }

func sampleScan() *scan.Scan {
	return &scan.Scan{
		ID:          7,
		ScannedAt:   time.Date(2026, 10, 19, 12, 30, 0, 123000000, time.UTC),
		OriginalURL: "https://example.com/a",
		FinalURL:    "https://example.com/b",
		IsSafe:      true,
		RiskScore:   10,
	}
}

func TestScanCache_SetThenGet(t *testing.T) {
	b := newMemBackend()
	c := New(b)
	ctx := context.Background()

	want := sampleScan()
	if err := c.Set(ctx, want.OriginalURL, want, time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if b.ttls[want.OriginalURL] != time.Hour {
		t.Fatalf("ttl not passed through: %s", b.ttls[want.OriginalURL])
	}

	got, err := c.Get(ctx, want.OriginalURL)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	// re-encoding a cached value must give the same bytes
	first, _ := json.Marshal(want)
	second, _ := json.Marshal(got)
	if string(first) != string(second) {
		t.Fatalf("json drift:\n%s\n%s", first, second)
	}
}

func TestScanCache_Miss(t *testing.T) {
	c := New(newMemBackend())
	if _, err := c.Get(context.Background(), "absent"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestScanCache_ReadErrorIsNotMiss(t *testing.T) {
	b := newMemBackend()
	b.getErr = errors.New("connection refused")
	_, err := New(b).Get(context.Background(), "k")
	if err == nil || errors.Is(err, ErrMiss) {
		t.Fatalf("expected read error distinct from miss, got %v", err)
	}
}

func TestScanCache_CorruptPayloadIsReadError(t *testing.T) {
	b := newMemBackend()
	b.items["k"] = []byte("{not json")
	_, err := New(b).Get(context.Background(), "k")
	if err == nil || errors.Is(err, ErrMiss) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestScanCache_SetError(t *testing.T) {
	b := newMemBackend()
	b.setErr = errors.New("read only replica")
	if err := New(b).Set(context.Background(), "k", sampleScan(), time.Hour); err == nil {
		t.Fatal("expected set error")
	}
}
