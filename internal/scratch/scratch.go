// Package scratch manages the process-local directory that holds per-request
// media files while they are being transcribed.
package scratch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Dir struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// New creates the scratch directory if it does not exist.
func New(path string, logger *slog.Logger) (*Dir, error) {
	if path == "" {
		return nil, errors.New("scratch directory path is required")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dir{
		path:   path,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (d *Dir) Path() string {
	return d.path
}

// Create opens a new, uniquely named file. The name is the current time in
// nanoseconds plus a random suffix; O_EXCL guards the unlikely collision.
func (d *Dir) Create(ext string) (*os.File, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	name := fmt.Sprintf("%d-%s%s", d.now().UnixNano(), suffix, ext)

	f, err := os.OpenFile(filepath.Join(d.path, name), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	return f, nil
}

// Remove deletes a scratch file. Failures are logged and otherwise ignored;
// the sweeper picks up whatever is left behind.
func (d *Dir) Remove(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		d.logger.WarnContext(ctx, "failed to remove scratch file",
			slog.String("path", path),
			slog.Any("error", err))
		return
	}
	d.logger.DebugContext(ctx, "removed scratch file", slog.String("path", path))
}

// Sweep removes regular files older than maxAge and reports how many went.
// A zero maxAge removes every file.
func (d *Dir) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, fmt.Errorf("read scratch directory: %w", err)
	}

	cutoff := d.now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if maxAge > 0 && info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(d.path, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			d.logger.WarnContext(ctx, "failed to sweep scratch file",
				slog.String("path", path),
				slog.Any("error", err))
			continue
		}
		removed++
	}

	if removed > 0 {
		d.logger.InfoContext(ctx, "swept orphaned scratch files",
			slog.Int("removed", removed),
			slog.Duration("max_age", maxAge))
	}
	return removed, nil
}

// RunSweeper sweeps every interval until ctx is done.
func (d *Dir) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.Sweep(ctx, maxAge); err != nil {
				d.logger.WarnContext(ctx, "scratch sweep failed", slog.Any("error", err))
			}
		}
	}
}
