package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Anisirbiladze/makeupai-media-analysis/internal/scratch"
)

func newFetcher(t *testing.T) (*HTTPFetcher, *scratch.Dir) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir, err := scratch.New(filepath.Join(t.TempDir(), "scratch"), logger)
	if err != nil {
		t.Fatal(err)
	}
	return NewHTTPFetcher(nil, dir, "test-agent", logger), dir
}

func scratchFiles(t *testing.T, dir *scratch.Dir) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir.Path())
	if err != nil {
		t.Fatal(err)
	}
	return entries
}

func TestFetchStreamsToScratchFile(t *testing.T) {
	payload := strings.Repeat("audio-bytes-", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q, want test-agent", got)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		io.WriteString(w, payload)
	}))
	defer srv.Close()

	f, dir := newFetcher(t)
	dl, err := f.Fetch(context.Background(), srv.URL+"/clip")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	defer os.Remove(dl.Path)

	if filepath.Dir(dl.Path) != dir.Path() {
		t.Errorf("Path %s is outside the scratch dir", dl.Path)
	}
	if filepath.Ext(dl.Path) != ".mp3" {
		t.Errorf("extension = %s, want .mp3 from content type", filepath.Ext(dl.Path))
	}
	if dl.Size != int64(len(payload)) {
		t.Errorf("Size = %d, want %d", dl.Size, len(payload))
	}
	data, err := os.ReadFile(dl.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != payload {
		t.Error("file content does not match the response body")
	}
}

func TestFetchTwiceProducesTwoFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "media")
	}))
	defer srv.Close()

	f, _ := newFetcher(t)
	first, err := f.Fetch(context.Background(), srv.URL+"/v.mp4")
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.Fetch(context.Background(), srv.URL+"/v.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if first.Path == second.Path {
		t.Errorf("both downloads share the path %s", first.Path)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantMsg string
	}{
		{"not found", http.StatusNotFound, "failed to download media: 404 Not Found"},
		{"forbidden", http.StatusForbidden, "failed to download media: 403 Forbidden"},
		{"server error", http.StatusBadGateway, "failed to download media: 502 Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			f, dir := newFetcher(t)
			_, err := f.Fetch(context.Background(), srv.URL)
			if err == nil {
				t.Fatal("Fetch() should fail")
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantMsg)
			}
			var statusErr *StatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.status {
				t.Errorf("error %v is not a StatusError with code %d", err, tt.status)
			}
			if n := len(scratchFiles(t, dir)); n != 0 {
				t.Errorf("%d scratch files left behind", n)
			}
		})
	}
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f, dir := newFetcher(t)
	if _, err := f.Fetch(context.Background(), addr); err == nil {
		t.Fatal("Fetch() should fail for a closed server")
	}
	if _, err := f.Fetch(context.Background(), "not a url"); err == nil {
		t.Fatal("Fetch() should fail for a malformed url")
	}
	if n := len(scratchFiles(t, dir)); n != 0 {
		t.Errorf("%d scratch files left behind", n)
	}
}

func TestFetchInterruptedBodyRemovesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		io.WriteString(w, "short")
	}))
	defer srv.Close()

	f, dir := newFetcher(t)
	if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("Fetch() should fail on a truncated body")
	}
	if n := len(scratchFiles(t, dir)); n != 0 {
		t.Errorf("%d scratch files left behind", n)
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		name        string
		rawURL      string
		contentType string
		want        string
	}{
		{"from path", "https://cdn.example.com/a/b/clip.WAV?sig=1", "", ".wav"},
		{"unknown path falls back to content type", "https://cdn.example.com/video.php", "video/webm; codecs=vp9", ".webm"},
		{"default", "https://cdn.example.com/stream", "application/octet-stream", ".mp4"},
		{"bad content type", "https://cdn.example.com/stream", ";;", ".mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.rawURL)
			if err != nil {
				t.Fatal(err)
			}
			if got := extensionFor(u, tt.contentType); got != tt.want {
				t.Errorf("extensionFor() = %q, want %q", got, tt.want)
			}
		})
	}
}
