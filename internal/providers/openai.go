package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Anisirbiladze/makeupai-media-analysis/internal/config"
)

// maxResponseBytes bounds how much of a transcription response is kept.
const maxResponseBytes = 16 << 20

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// APIError is a non-2xx answer from the transcription API. Body is the raw
// response body as received.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcription API error %d: %s", e.StatusCode, e.Body)
}

// OpenAITranscriber transcribes files with the OpenAI audio API.
type OpenAITranscriber struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenAITranscriber(cfg config.OpenAIConfig, httpClient *http.Client, logger *slog.Logger) *OpenAITranscriber {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAITranscriber{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Transcribe uploads the audio file at audioPath and returns the transcript.
// A missing key fails before anything is sent. A 2xx response whose text is
// missing or not a string yields an empty transcript rather than an error.
func (c *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	rec := &responseRecorder{client: c.httpClient}
	client := openai.NewClientWithConfig(c.openAIConfig(rec))

	resp, err := client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: filepath.Base(audioPath),
		Reader:   f,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		switch {
		case rec.status >= 200 && rec.status <= 299:
			c.logger.WarnContext(ctx, "transcription response could not be parsed",
				slog.Int("status", rec.status),
				slog.Int("body_bytes", len(rec.body)),
				slog.Any("error", err))
			return "", nil
		case rec.status != 0:
			c.logger.ErrorContext(ctx, "transcription API error",
				slog.Int("status", rec.status),
				slog.String("body", string(rec.body)))
			return "", &APIError{StatusCode: rec.status, Body: string(rec.body)}
		default:
			return "", fmt.Errorf("transcription request failed: %w", err)
		}
	}

	c.logger.InfoContext(ctx, "transcription finished",
		slog.String("model", c.model),
		slog.Int("transcript_length", len(resp.Text)))
	return resp.Text, nil
}

func (c *OpenAITranscriber) openAIConfig(doer *responseRecorder) openai.ClientConfig {
	cfg := openai.DefaultConfig(c.apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	cfg.HTTPClient = doer
	return cfg
}

// responseRecorder buffers the response so the raw status and body are still
// available after the SDK has consumed them. One recorder serves one call.
type responseRecorder struct {
	client *http.Client
	status int
	body   []byte
}

func (r *responseRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read transcription response: %w", err)
	}

	r.status = resp.StatusCode
	r.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
