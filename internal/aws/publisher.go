package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/imrishuroy/go-qrscan/internal/logging"
	"github.com/imrishuroy/go-qrscan/internal/scan"
)

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// SendMessage sends a JSON message body to SQS.
// attributes map[string]string -> sent as MessageAttributes.
func (p *Publisher) SendMessage(ctx context.Context, messageBody string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &messageBody,
	}
	if len(attributes) > 0 {
		msgAttrs := map[string]sqstypes.MessageAttributeValue{}
		for k, v := range attributes {
			// using string type for all attrs
			msgAttrs[k] = sqstypes.MessageAttributeValue{
				DataType:    awsString("String"),
				StringValue: awsString(v),
			}
		}
		input.MessageAttributes = msgAttrs
	}

	_, err := p.SQS.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// PublishScan sends a scan.completed event for s. The request id on ctx, if
// any, travels as the correlation id.
func (p *Publisher) PublishScan(ctx context.Context, s *scan.Scan) error {
	corr := logging.RequestID(ctx)
	body, err := json.Marshal(scan.Event{
		Type:          scan.EventTypeCompleted,
		Scan:          *s,
		CorrelationID: corr,
	})
	if err != nil {
		return fmt.Errorf("marshal scan event: %w", err)
	}

	attrs := map[string]string{
		"event_type": scan.EventTypeCompleted,
		"scan_id":    strconv.FormatInt(s.ID, 10),
	}
	if corr != "" {
		attrs["correlation_id"] = corr
	}
	return p.SendMessage(ctx, string(body), attrs)
}

// awsString helper
func awsString(s string) *string { return &s }
