package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-qrscan/internal/web"
)

// RegisterWebRoutes serves the upload page, its assets and the health probe.
func RegisterWebRoutes(r *gin.Engine) {
	index := web.IndexHTML()

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})
	r.StaticFS("/static", http.FS(web.Static()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
