package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-qrscan/internal/aws"
	"github.com/imrishuroy/go-qrscan/internal/logging"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	logger := logging.Setup(envOr("LOG_LEVEL", "info"), envOr("LOG_FORMAT", "json"))

	namespace := os.Getenv("METRICS_NAMESPACE")
	if namespace == "" {
		logger.Error("METRICS_NAMESPACE is required")
		os.Exit(1)
	}

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		logger.Error("failed to init aws clients", "err", err)
		os.Exit(1)
	}
	p := NewProcessor(clients, namespace, logger)

	// If RUN_LOCAL=true, process a single event from LOCAL_SQS_BODY for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"type":"scan.completed","scan":{"id":1,"scanned_at":"2026-01-01T00:00:00Z","original_url":"https://example.com","final_url":"https://example.com","is_safe":true,"risk_score":5}}`
		}
		resp, err := p.Handle(context.Background(), events.SQSEvent{
			Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
		})
		if err != nil || len(resp.BatchItemFailures) > 0 {
			logger.Error("local handler failed", "err", err, "failures", len(resp.BatchItemFailures))
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}
