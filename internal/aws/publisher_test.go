package aws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/imrishuroy/go-qrscan/internal/logging"
	"github.com/imrishuroy/go-qrscan/internal/scan"
)

// mockSQS records every SendMessage call.
type mockSQS struct {
	mu    sync.Mutex
	calls []*sqs.SendMessageInput
	err   error
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestPublishScan_SendsEvent(t *testing.T) {
	mock := &mockSQS{}
	p := NewPublisher(mock, "https://sqs.local/queue/scans")

	s := &scan.Scan{
		ID:          42,
		ScannedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		OriginalURL: "https://example.com/a",
		FinalURL:    "https://example.com/b",
		IsSafe:      true,
		RiskScore:   10,
	}
	ctx := logging.WithRequestID(context.Background(), "req-9")
	if err := p.PublishScan(ctx, s); err != nil {
		t.Fatalf("PublishScan error: %v", err)
	}

	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 SendMessage call, got %d", len(mock.calls))
	}
	in := mock.calls[0]
	if *in.QueueUrl != "https://sqs.local/queue/scans" {
		t.Fatalf("queue url mismatch: %s", *in.QueueUrl)
	}

	var ev scan.Event
	if err := json.Unmarshal([]byte(*in.MessageBody), &ev); err != nil {
		t.Fatalf("body is not a scan event: %v", err)
	}
	if ev.Type != scan.EventTypeCompleted || ev.Scan.ID != 42 || ev.CorrelationID != "req-9" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if got := *in.MessageAttributes["scan_id"].StringValue; got != "42" {
		t.Fatalf("scan_id attribute mismatch: %s", got)
	}
	if got := *in.MessageAttributes["correlation_id"].StringValue; got != "req-9" {
		t.Fatalf("correlation_id attribute mismatch: %s", got)
	}
}

func TestPublishScan_PropagatesSendError(t *testing.T) {
	mock := &mockSQS{err: errors.New("throttled")}
	p := NewPublisher(mock, "q")

	err := p.PublishScan(context.Background(), &scan.Scan{ID: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := mock.calls[0].MessageAttributes["correlation_id"]; ok {
		t.Fatal("correlation_id should be omitted without a request id")
	}
}
