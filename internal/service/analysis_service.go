package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Anisirbiladze/makeupai-media-analysis/internal/domain"
	"github.com/Anisirbiladze/makeupai-media-analysis/internal/media"
)

// Resolver turns a page or share link into a downloadable media URL.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// Fetcher downloads media into a scratch file.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (media.Download, error)
}

// Transcriber turns an audio or video file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Cleaner removes scratch files and logs failures itself.
type Cleaner interface {
	Remove(ctx context.Context, path string)
}

// LanguageDetector names the language of a transcript, if it can.
type LanguageDetector interface {
	Detect(text string) (string, bool)
}

// AnalysisService runs resolve, download and transcribe for one video URL.
// It holds no per-request state; each call gets its own scratch file.
type AnalysisService struct {
	resolver    Resolver
	fetcher     Fetcher
	transcriber Transcriber
	cleaner     Cleaner
	detector    LanguageDetector
	logger      *slog.Logger
}

func NewAnalysisService(
	resolver Resolver,
	fetcher Fetcher,
	transcriber Transcriber,
	cleaner Cleaner,
	detector LanguageDetector,
	logger *slog.Logger,
) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		resolver:    resolver,
		fetcher:     fetcher,
		transcriber: transcriber,
		cleaner:     cleaner,
		detector:    detector,
		logger:      logger,
	}
}

// Analyze returns the transcript for videoURL. Errors are returned as-is so
// their messages reach the caller unchanged.
func (s *AnalysisService) Analyze(ctx context.Context, videoURL string) (domain.AnalysisResult, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return domain.AnalysisResult{}, ErrMissingVideoURL
	}

	start := time.Now()
	s.logger.InfoContext(ctx, "media analysis started", slog.String("video_url", videoURL))

	mediaURL := videoURL
	if s.resolver != nil {
		resolved, err := s.resolver.Resolve(ctx, videoURL)
		if err != nil {
			s.logFailure(ctx, "resolve", err)
			return domain.AnalysisResult{}, err
		}
		mediaURL = resolved
	}

	download, err := s.fetcher.Fetch(ctx, mediaURL)
	if err != nil {
		s.logFailure(ctx, "download", err)
		return domain.AnalysisResult{}, err
	}
	defer s.cleaner.Remove(context.WithoutCancel(ctx), download.Path)

	transcript, err := s.transcriber.Transcribe(ctx, download.Path)
	if err != nil {
		s.logFailure(ctx, "transcribe", err)
		return domain.AnalysisResult{}, err
	}

	attrs := []any{
		slog.Int("transcript_length", len(transcript)),
		slog.Int64("media_bytes", download.Size),
		slog.Duration("elapsed", time.Since(start)),
	}
	if s.detector != nil {
		if language, ok := s.detector.Detect(transcript); ok {
			attrs = append(attrs, slog.String("language", language))
		}
	}
	s.logger.InfoContext(ctx, "media analysis finished", attrs...)

	return domain.AnalysisResult{
		Transcript:  transcript,
		VisualNotes: domain.VisualNotesPlaceholder,
		Caption:     nil,
	}, nil
}

func (s *AnalysisService) logFailure(ctx context.Context, stage string, err error) {
	s.logger.ErrorContext(ctx, "media analysis failed",
		slog.String("stage", stage),
		slog.Any("error", err))
}
