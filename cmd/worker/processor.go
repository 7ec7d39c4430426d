package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-qrscan/internal/aws"
	"github.com/imrishuroy/go-qrscan/internal/logging"
	"github.com/imrishuroy/go-qrscan/internal/metrics"
	"github.com/imrishuroy/go-qrscan/internal/scan"
)

// errPoison marks messages that can never succeed; they are dropped, not retried.
var errPoison = errors.New("unprocessable message")

// Processor turns scan.completed events into CloudWatch metrics.
type Processor struct {
	cw        aws.CloudWatchAPI
	namespace string
	logger    *slog.Logger
}

// NewProcessor creates a new worker processor with AWS clients injected.
func NewProcessor(clients *aws.AWSClients, namespace string, logger *slog.Logger) *Processor {
	return &Processor{
		cw:        clients.CloudWatch,
		namespace: namespace,
		logger:    logger,
	}
}

// Handle processes an SQS batch. Messages that fail transiently are reported
// back as batch item failures so only they are redelivered.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		err := p.processMessage(ctx, rec)
		switch {
		case err == nil:
		case errors.Is(err, errPoison):
			p.logger.Error("dropping message", "message_id", rec.MessageId, "err", err)
		default:
			p.logger.Warn("message failed, will retry", "message_id", rec.MessageId, "err", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev scan.Event
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("%w: invalid message body: %v", errPoison, err)
	}
	if ev.Type != scan.EventTypeCompleted {
		return fmt.Errorf("%w: unknown event type %q", errPoison, ev.Type)
	}
	if ev.Scan.RiskScore < scan.MinRiskScore || ev.Scan.RiskScore > scan.MaxRiskScore {
		return fmt.Errorf("%w: risk score %d out of range", errPoison, ev.Scan.RiskScore)
	}

	if ev.CorrelationID != "" {
		ctx = logging.WithRequestID(ctx, ev.CorrelationID)
	}
	log := logging.FromContext(ctx, p.logger)

	if err := metrics.PutScan(ctx, p.cw, p.namespace, &ev.Scan); err != nil {
		return err
	}
	log.Info("scan metrics published", "scan_id", ev.Scan.ID, "risk_score", ev.Scan.RiskScore, "is_safe", ev.Scan.IsSafe)
	return nil
}
