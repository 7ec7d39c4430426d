package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-qrscan/internal/logging"
	"github.com/imrishuroy/go-qrscan/internal/pipeline"
	"github.com/imrishuroy/go-qrscan/internal/scan"
	"github.com/imrishuroy/go-qrscan/internal/validation"
)

const (
	detailDecodeFailed = "Could not decode QR code from image."
	detailInternal     = "Internal server error."
)

// Scanner runs the scan pipeline for one uploaded image.
type Scanner interface {
	Scan(ctx context.Context, image []byte) (*scan.Scan, error)
}

// HandlerConfig groups dependencies for the scan handler.
type HandlerConfig struct {
	Scanner        Scanner
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// RegisterScanRoutes registers POST /scan.
func RegisterScanRoutes(r *gin.Engine, cfg HandlerConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.POST("/scan", func(c *gin.Context) {
		ctx := c.Request.Context()

		image, err := validation.ReadUpload(c, cfg.MaxUploadBytes)
		if err != nil {
			// ReadUpload already wrote a 4xx
			logging.FromContext(ctx, logger).Info("upload rejected", "err", err)
			return
		}

		s, err := cfg.Scanner.Scan(ctx, image)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, s)
		case errors.Is(err, pipeline.ErrQRNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"detail": detailDecodeFailed})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternal})
		}
	})
}
