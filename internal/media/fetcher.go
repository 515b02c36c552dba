package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/Anisirbiladze/makeupai-media-analysis/internal/scratch"
)

// defaultExt is used when neither the URL nor the content type names a
// format the transcription API recognizes.
const defaultExt = ".mp4"

var supportedExts = map[string]bool{
	".flac": true,
	".m4a":  true,
	".mp3":  true,
	".mp4":  true,
	".mpeg": true,
	".mpga": true,
	".oga":  true,
	".ogg":  true,
	".wav":  true,
	".webm": true,
}

var contentTypeExts = map[string]string{
	"audio/flac":   ".flac",
	"audio/x-flac": ".flac",
	"audio/mp4":    ".m4a",
	"audio/x-m4a":  ".m4a",
	"audio/mpeg":   ".mp3",
	"audio/mp3":    ".mp3",
	"audio/ogg":    ".ogg",
	"audio/wav":    ".wav",
	"audio/x-wav":  ".wav",
	"audio/webm":   ".webm",
	"video/mp4":    ".mp4",
	"video/mpeg":   ".mpeg",
	"video/webm":   ".webm",
}

// Download is a media file materialized in the scratch directory.
type Download struct {
	Path        string
	Size        int64
	ContentType string
}

// StatusError is returned when the media server answers outside 2xx.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to download media: %s", e.Status)
}

// HTTPFetcher downloads media over HTTP into a scratch directory.
type HTTPFetcher struct {
	client    *http.Client
	dir       *scratch.Dir
	userAgent string
	logger    *slog.Logger
}

func NewHTTPFetcher(client *http.Client, dir *scratch.Dir, userAgent string, logger *slog.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		client:    client,
		dir:       dir,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch streams the body at rawURL into a new scratch file. The caller owns
// the returned file and must remove it. On error no file is left behind.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Download, error) {
	f.logger.InfoContext(ctx, "downloading media", slog.String("url", rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Download{}, fmt.Errorf("failed to download media: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Download{}, fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Download{}, &StatusError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	contentType := resp.Header.Get("Content-Type")
	file, err := f.dir.Create(extensionFor(req.URL, contentType))
	if err != nil {
		return Download{}, err
	}

	size, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		f.dir.Remove(ctx, file.Name())
		if copyErr != nil {
			return Download{}, fmt.Errorf("write media to scratch file: %w", copyErr)
		}
		return Download{}, fmt.Errorf("close scratch file: %w", closeErr)
	}

	f.logger.InfoContext(ctx, "media downloaded",
		slog.String("path", file.Name()),
		slog.Int64("bytes", size),
		slog.String("content_type", contentType))

	return Download{
		Path:        file.Name(),
		Size:        size,
		ContentType: contentType,
	}, nil
}

// statusText renders "404 Not Found" even when the server sent no reason phrase.
func statusText(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return strings.TrimSpace(fmt.Sprintf("%d %s", resp.StatusCode, reason))
}

func extensionFor(u *url.URL, contentType string) string {
	if u != nil {
		if ext := strings.ToLower(path.Ext(u.Path)); supportedExts[ext] {
			return ext
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := contentTypeExts[strings.ToLower(mediaType)]; ok {
			return ext
		}
	}
	return defaultExt
}
