// Package metrics counts scan outcomes and ships them to CloudWatch.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/go-qrscan/internal/aws"
	"github.com/imrishuroy/go-qrscan/internal/scan"
)

// Metric names.
const (
	MetricCacheHits        = "CacheHits"
	MetricCacheMisses      = "CacheMisses"
	MetricCacheReadErrors  = "CacheReadErrors"
	MetricCacheWriteErrors = "CacheWriteErrors"
	MetricScansCreated     = "ScansCreated"
	MetricUnsafeScans      = "UnsafeScans"
	MetricRiskScore        = "RiskScore"
)

// Counts is a point-in-time copy of the recorder's counters.
type Counts struct {
	CacheHits        int64
	CacheMisses      int64
	CacheReadErrors  int64
	CacheWriteErrors int64
	ScansCreated     int64
	UnsafeScans      int64
}

// Recorder accumulates counters in memory and flushes them as CloudWatch
// metric data. A Recorder with a nil client only counts.
type Recorder struct {
	cw        aws.CloudWatchAPI
	namespace string
	logger    *slog.Logger
	nowFunc   func() time.Time

	cacheHits        atomic.Int64
	cacheMisses      atomic.Int64
	cacheReadErrors  atomic.Int64
	cacheWriteErrors atomic.Int64
	scansCreated     atomic.Int64
	unsafeScans      atomic.Int64
}

// NewRecorder returns a Recorder publishing under namespace.
func NewRecorder(cw aws.CloudWatchAPI, namespace string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cw:        cw,
		namespace: namespace,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

func (r *Recorder) CacheHit()        { r.cacheHits.Add(1) }
func (r *Recorder) CacheMiss()       { r.cacheMisses.Add(1) }
func (r *Recorder) CacheReadError()  { r.cacheReadErrors.Add(1) }
func (r *Recorder) CacheWriteError() { r.cacheWriteErrors.Add(1) }

// ScanCreated counts a newly persisted scan.
func (r *Recorder) ScanCreated(s *scan.Scan) {
	r.scansCreated.Add(1)
	if !s.IsSafe {
		r.unsafeScans.Add(1)
	}
}

// Snapshot reads the counters without resetting them.
func (r *Recorder) Snapshot() Counts {
	return Counts{
		CacheHits:        r.cacheHits.Load(),
		CacheMisses:      r.cacheMisses.Load(),
		CacheReadErrors:  r.cacheReadErrors.Load(),
		CacheWriteErrors: r.cacheWriteErrors.Load(),
		ScansCreated:     r.scansCreated.Load(),
		UnsafeScans:      r.unsafeScans.Load(),
	}
}

func (r *Recorder) drain() Counts {
	return Counts{
		CacheHits:        r.cacheHits.Swap(0),
		CacheMisses:      r.cacheMisses.Swap(0),
		CacheReadErrors:  r.cacheReadErrors.Swap(0),
		CacheWriteErrors: r.cacheWriteErrors.Swap(0),
		ScansCreated:     r.scansCreated.Swap(0),
		UnsafeScans:      r.unsafeScans.Swap(0),
	}
}

func (r *Recorder) restore(c Counts) {
	r.cacheHits.Add(c.CacheHits)
	r.cacheMisses.Add(c.CacheMisses)
	r.cacheReadErrors.Add(c.CacheReadErrors)
	r.cacheWriteErrors.Add(c.CacheWriteErrors)
	r.scansCreated.Add(c.ScansCreated)
	r.unsafeScans.Add(c.UnsafeScans)
}

// Flush sends the non-zero counters accumulated since the last flush. On
// failure the counts are kept for the next attempt.
func (r *Recorder) Flush(ctx context.Context) error {
	if r.cw == nil || r.namespace == "" {
		return nil
	}

	c := r.drain()
	now := r.nowFunc().UTC()

	var data []cwtypes.MetricDatum
	for _, m := range []struct {
		name  string
		value int64
	}{
		{MetricCacheHits, c.CacheHits},
		{MetricCacheMisses, c.CacheMisses},
		{MetricCacheReadErrors, c.CacheReadErrors},
		{MetricCacheWriteErrors, c.CacheWriteErrors},
		{MetricScansCreated, c.ScansCreated},
		{MetricUnsafeScans, c.UnsafeScans},
	} {
		if m.value == 0 {
			continue
		}
		data = append(data, countDatum(m.name, float64(m.value), now))
	}
	if len(data) == 0 {
		return nil
	}

	_, err := r.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(r.namespace),
		MetricData: data,
	})
	if err != nil {
		r.restore(c)
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

// Run flushes every interval until ctx is done, then flushes once more.
func (r *Recorder) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.Flush(ctx); err != nil {
				r.logger.Warn("metrics flush failed", "err", err)
			}
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if err := r.Flush(fctx); err != nil {
				r.logger.Warn("final metrics flush failed", "err", err)
			}
			cancel()
			return
		}
	}
}

// PutScan publishes the per-scan metrics for s: its risk score and, when the
// scan is unsafe, one UnsafeScans count.
func PutScan(ctx context.Context, cw aws.CloudWatchAPI, namespace string, s *scan.Scan) error {
	ts := s.ScannedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	data := []cwtypes.MetricDatum{{
		MetricName: sdkaws.String(MetricRiskScore),
		Value:      sdkaws.Float64(float64(s.RiskScore)),
		Unit:       cwtypes.StandardUnitNone,
		Timestamp:  sdkaws.Time(ts),
	}}
	if !s.IsSafe {
		data = append(data, countDatum(MetricUnsafeScans, 1, ts))
	}

	_, err := cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put scan metrics: %w", err)
	}
	return nil
}

func countDatum(name string, value float64, ts time.Time) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: sdkaws.String(name),
		Value:      sdkaws.Float64(value),
		Unit:       cwtypes.StandardUnitCount,
		Timestamp:  sdkaws.Time(ts),
	}
}
