package service

import (
	"context"

	"github.com/Anisirbiladze/makeupai-media-analysis/internal/media"
)

type mockResolver struct {
	ResolveFunc func(ctx context.Context, rawURL string) (string, error)
}

func (m *mockResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	return m.ResolveFunc(ctx, rawURL)
}

type mockFetcher struct {
	FetchFunc func(ctx context.Context, rawURL string) (media.Download, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (media.Download, error) {
	return m.FetchFunc(ctx, rawURL)
}

type mockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string) (string, error)
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return m.TranscribeFunc(ctx, audioPath)
}

type mockCleaner struct {
	removed []string
}

func (m *mockCleaner) Remove(_ context.Context, path string) {
	m.removed = append(m.removed, path)
}

type mockDetector struct {
	language string
}

func (m mockDetector) Detect(string) (string, bool) {
	return m.language, m.language != ""
}
