package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Anisirbiladze/makeupai-media-analysis/internal/domain"
	"github.com/Anisirbiladze/makeupai-media-analysis/internal/service"
)

const (
	livenessText      = "makeupai media-analysis service is running"
	analysisFailedErr = "media-analysis-failed"
)

type Analyzer interface {
	Analyze(ctx context.Context, videoURL string) (domain.AnalysisResult, error)
}

type API struct {
	analyzer Analyzer
	logger   *slog.Logger
}

func (api *API) liveness(c *gin.Context) {
	c.String(http.StatusOK, livenessText)
}

func (api *API) analyzeMedia(c *gin.Context) {
	payload, err := decodeAnalysisPayload(c.Request.Body)
	if err != nil {
		api.handleError(c, err)
		return
	}

	ctx := c.Request.Context()
	api.logger.InfoContext(ctx, "media-analysis called", slog.String("video_url", payload.VideoURL))

	result, err := api.analyzer.Analyze(ctx, payload.VideoURL)
	if err != nil {
		api.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// analysisPayload accepts any JSON type for videoUrl so that null, numbers
// and objects are reported as a missing URL rather than a decode failure.
type analysisPayload struct {
	VideoURL any `json:"videoUrl"`
}

func (p analysisPayload) Validate() (string, error) {
	videoURL, ok := p.VideoURL.(string)
	if !ok || strings.TrimSpace(videoURL) == "" {
		return "", service.ErrMissingVideoURL
	}
	return videoURL, nil
}

// decodeAnalysisPayload treats an empty or malformed body like a body
// without videoUrl.
func decodeAnalysisPayload(body io.Reader) (domain.AnalysisRequest, error) {
	var payload analysisPayload
	if body != nil {
		if err := json.NewDecoder(body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			return domain.AnalysisRequest{}, service.ErrMissingVideoURL
		}
	}
	videoURL, err := payload.Validate()
	if err != nil {
		return domain.AnalysisRequest{}, err
	}
	return domain.AnalysisRequest{VideoURL: videoURL}, nil
}

func (api *API) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingVideoURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrMissingVideoURL.Error()})
	default:
		api.logger.ErrorContext(c.Request.Context(), "media-analysis error", slog.Any("error", err))
		message := err.Error()
		if message == "" {
			message = "Unknown error"
		}
		c.JSON(http.StatusInternalServerError, domain.NewFailureResponse(analysisFailedErr, message))
	}
}
