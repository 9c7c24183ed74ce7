// Package acquire fetches source media with yt-dlp or accepts a local file.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gnurante/internal/logging"
	"gnurante/internal/services"
)

const (
	// YtDLPCommand is the default downloader binary.
	YtDLPCommand = "yt-dlp"
	// DefaultFormat prefers separate mp4/m4a streams and falls back to any mp4.
	DefaultFormat = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

	videoFile = "video.mp4"
)

// Media is a fetched source.
type Media struct {
	Path string
	// Downloaded is false when the input was already a local file; such
	// files are never removed by cleanup.
	Downloaded bool
}

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Downloader wraps yt-dlp.
type Downloader struct {
	binary string
	format string
	logger *slog.Logger
	run    CommandRunner
}

// NewDownloader builds a downloader. Empty arguments take defaults.
func NewDownloader(binary, format string, logger *slog.Logger) *Downloader {
	if strings.TrimSpace(binary) == "" {
		binary = YtDLPCommand
	}
	if strings.TrimSpace(format) == "" {
		format = DefaultFormat
	}
	return &Downloader{
		binary: binary,
		format: format,
		logger: logging.NewComponentLogger(logger, "acquire"),
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
		},
	}
}

// WithCommandRunner overrides command execution (for testing).
func (d *Downloader) WithCommandRunner(run CommandRunner) *Downloader {
	if run != nil {
		d.run = run
	}
	return d
}

// Fetch resolves source to a local media file. An existing path is returned
// as-is; an http(s) URL is downloaded into destDir as video.mp4.
func (d *Downloader) Fetch(ctx context.Context, source, destDir string) (Media, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Media{}, services.Wrap(services.ErrValidation, "acquire", "fetch", "source required", nil)
	}
	if info, err := os.Stat(source); err == nil {
		if info.IsDir() {
			return Media{}, services.Wrap(services.ErrValidation, "acquire", "fetch", source+" is a directory", nil)
		}
		abs, err := filepath.Abs(source)
		if err != nil {
			return Media{}, fmt.Errorf("resolve %s: %w", source, err)
		}
		d.logger.Info("using local media", logging.String("path", abs))
		return Media{Path: abs}, nil
	}
	if !IsRemote(source) {
		return Media{}, services.Wrap(services.ErrNotFound, "acquire", "fetch", "no such file or URL: "+source, nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Media{}, fmt.Errorf("create download dir: %w", err)
	}

	dest := filepath.Join(destDir, videoFile)
	args := []string{
		"--no-playlist",
		"--no-progress",
		"-f", d.format,
		"--merge-output-format", "mp4",
		"-o", dest,
		source,
	}
	d.logger.Info("downloading media",
		logging.String("url", source),
		logging.String("format", d.format),
	)
	output, err := d.run(ctx, d.binary, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Media{}, ctxErr
		}
		return Media{}, services.Wrap(services.ErrExternalTool, "acquire", "yt-dlp",
			services.SummarizeSnippet(string(output)), err)
	}
	if _, err := os.Stat(dest); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Media{}, services.Wrap(services.ErrExternalTool, "acquire", "yt-dlp", "download produced no file", nil)
		}
		return Media{}, err
	}
	d.logger.Info("media downloaded", logging.String("path", dest))
	return Media{Path: dest, Downloaded: true}, nil
}

// IsRemote reports whether source looks like an http(s) URL.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
