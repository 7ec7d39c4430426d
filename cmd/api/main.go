package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-qrscan/internal/aws"
	"github.com/imrishuroy/go-qrscan/internal/cache"
	"github.com/imrishuroy/go-qrscan/internal/config"
	"github.com/imrishuroy/go-qrscan/internal/decoder"
	"github.com/imrishuroy/go-qrscan/internal/handlers"
	"github.com/imrishuroy/go-qrscan/internal/logging"
	"github.com/imrishuroy/go-qrscan/internal/metrics"
	"github.com/imrishuroy/go-qrscan/internal/pipeline"
	"github.com/imrishuroy/go-qrscan/internal/resolver"
	"github.com/imrishuroy/go-qrscan/internal/store"
)

const shutdownTimeout = 10 * time.Second

func setupRouter(logger *slog.Logger, cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestID(), handlers.RequestLogger(logger))

	handlers.RegisterWebRoutes(r)
	handlers.RegisterScanRoutes(r, cfg)

	return r
}

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var clients *aws.AWSClients
	if cfg.NeedsAWS() {
		if clients, err = aws.NewAWSClients(ctx); err != nil {
			return err
		}
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	scans := store.New(pool)
	if err := scans.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("database ready")

	backend, err := cache.Open(cfg.CacheURL, clients)
	if err != nil {
		return err
	}
	scanCache := cache.New(backend)
	defer scanCache.Close()
	if err := scanCache.Ping(ctx); err != nil {
		return err
	}
	logger.Info("cache ready")

	var cw aws.CloudWatchAPI
	if clients != nil && cfg.MetricsNamespace != "" {
		cw = clients.CloudWatch
	}
	recorder := metrics.NewRecorder(cw, cfg.MetricsNamespace, logger)

	opts := []pipeline.Option{
		pipeline.WithCacheTTL(cfg.CacheTTL),
		pipeline.WithRecorder(recorder),
		pipeline.WithLogger(logger),
	}
	if cfg.EventsQueueURL != "" {
		opts = append(opts, pipeline.WithPublisher(aws.NewPublisher(clients.SQS, cfg.EventsQueueURL)))
	}

	res := resolver.New(resolver.RandomScorer{}, cfg.ResolveTimeout, cfg.MaxRedirects, resolver.WithLogger(logger))
	orch := pipeline.New(decoder.New(), scanCache, res, scans, opts...)

	r := setupRouter(logger, handlers.HandlerConfig{
		Scanner:        orch,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	})

	if cfg.RunLocal {
		return serveLocal(ctx, logger, r, cfg, recorder)
	}

	// lambda adapter
	adapter := ginadapter.New(r)
	lambda.StartWithOptions(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp, err := adapter.ProxyWithContext(ctx, req)
		if ferr := recorder.Flush(ctx); ferr != nil {
			logger.Warn("metrics flush failed", "err", ferr)
		}
		return resp, err
	}, lambda.WithContext(ctx))
	return nil
}

func serveLocal(ctx context.Context, logger *slog.Logger, r *gin.Engine, cfg *config.Config, recorder *metrics.Recorder) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	metricsDone := make(chan struct{})
	go func() {
		recorder.Run(metricsCtx, cfg.MetricsFlush)
		close(metricsDone)
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("running local server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := srv.Shutdown(sctx); err != nil {
			logger.Error("graceful shutdown failed", "err", err)
		}
		cancel()
	}

	stopMetrics()
	<-metricsDone
	return serveErr
}
