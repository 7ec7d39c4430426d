package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/go-qrscan/internal/scan"
)

type mockCloudWatch struct {
	mu    sync.Mutex
	calls []*cloudwatch.PutMetricDataInput
	err   error
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, in)
	if m.err != nil {
		return nil, m.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (m *mockCloudWatch) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func datumValues(in *cloudwatch.PutMetricDataInput) map[string]float64 {
	out := map[string]float64{}
	for _, d := range in.MetricData {
		out[*d.MetricName] = *d.Value
	}
	return out
}

func TestRecorder_FlushSendsNonZeroCounters(t *testing.T) {
	cw := &mockCloudWatch{}
	r := NewRecorder(cw, "QRScan", nil)

	r.CacheHit()
	r.CacheHit()
	r.CacheMiss()
	r.ScanCreated(&scan.Scan{IsSafe: false, RiskScore: 99})

	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if len(cw.calls) != 1 {
		t.Fatalf("expected 1 PutMetricData call, got %d", len(cw.calls))
	}
	if *cw.calls[0].Namespace != "QRScan" {
		t.Fatalf("unexpected namespace %q", *cw.calls[0].Namespace)
	}
	got := datumValues(cw.calls[0])
	want := map[string]float64{
		MetricCacheHits:    2,
		MetricCacheMisses:  1,
		MetricScansCreated: 1,
		MetricUnsafeScans:  1,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s: expected %v, got %v", k, v, got[k])
		}
	}
	if cw.calls[0].MetricData[0].Unit != cwtypes.StandardUnitCount {
		t.Fatalf("expected Count unit")
	}

	if s := r.Snapshot(); s != (Counts{}) {
		t.Fatalf("expected counters reset after flush, got %+v", s)
	}
}

func TestRecorder_FlushNothingToSend(t *testing.T) {
	cw := &mockCloudWatch{}
	r := NewRecorder(cw, "QRScan", nil)

	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if len(cw.calls) != 0 {
		t.Fatalf("expected no calls, got %d", len(cw.calls))
	}
}

func TestRecorder_FlushFailureKeepsCounts(t *testing.T) {
	cw := &mockCloudWatch{err: errors.New("throttled")}
	r := NewRecorder(cw, "QRScan", nil)

	r.CacheReadError()
	r.CacheWriteError()

	if err := r.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}
	s := r.Snapshot()
	if s.CacheReadErrors != 1 || s.CacheWriteErrors != 1 {
		t.Fatalf("expected counts restored, got %+v", s)
	}
}

func TestRecorder_WithoutClientOnlyCounts(t *testing.T) {
	r := NewRecorder(nil, "", nil)
	r.ScanCreated(&scan.Scan{IsSafe: true, RiskScore: 3})

	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if s := r.Snapshot(); s.ScansCreated != 1 || s.UnsafeScans != 0 {
		t.Fatalf("unexpected counts %+v", s)
	}
}

func TestRecorder_RunFlushesOnShutdown(t *testing.T) {
	cw := &mockCloudWatch{}
	r := NewRecorder(cw, "QRScan", nil)
	r.CacheMiss()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if cw.callCount() != 1 {
		t.Fatalf("expected final flush, got %d calls", cw.callCount())
	}
}

func TestPutScan(t *testing.T) {
	cw := &mockCloudWatch{}
	s := &scan.Scan{ID: 1, ScannedAt: time.Now().UTC(), IsSafe: false, RiskScore: 88}

	if err := PutScan(context.Background(), cw, "QRScan", s); err != nil {
		t.Fatalf("PutScan error: %v", err)
	}
	got := datumValues(cw.calls[0])
	if got[MetricRiskScore] != 88 || got[MetricUnsafeScans] != 1 {
		t.Fatalf("unexpected data %v", got)
	}

	cw.calls = nil
	s.IsSafe, s.RiskScore = true, 5
	if err := PutScan(context.Background(), cw, "QRScan", s); err != nil {
		t.Fatalf("PutScan error: %v", err)
	}
	if _, ok := datumValues(cw.calls[0])[MetricUnsafeScans]; ok {
		t.Fatal("safe scans must not count as unsafe")
	}
}
