package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// NewRouter wires the public routes. Every route answers cross-origin
// requests from any origin.
func NewRouter(analyzer Analyzer, logger *slog.Logger) http.Handler {
	r := gin.New()
	r.Use(requestID(), requestLogger(logger), gin.Recovery())

	api := &API{
		analyzer: analyzer,
		logger:   logger,
	}

	r.GET("/", api.liveness)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/media-analysis", api.analyzeMedia)

	return cors.AllowAll().Handler(r)
}
