package subtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"gnurante/internal/language"
	"gnurante/internal/logging"
	"gnurante/internal/media/ffprobe"
	"gnurante/internal/services"
)

// Mux modes.
const (
	MuxBurn = "burn"
	MuxSoft = "soft"
)

// Encoder targets.
const (
	GPUNone   = "cpu"
	GPUNvidia = "nvidia"
	GPUAMD    = "amd"
)

// MuxRequest describes the inputs for subtitle muxing.
type MuxRequest struct {
	VideoPath    string
	SubtitlePath string
	OutputPath   string
	Language     string // any code language.Normalize accepts
	Mode         string // MuxBurn or MuxSoft
	GPU          string
	Width        int // 0 keeps the source resolution
	Height       int
}

type commandRunner func(ctx context.Context, name string, args ...string) error

type prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Muxer combines a video with its subtitle track using ffmpeg.
type Muxer struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
	run     commandRunner
	probe   prober
}

// NewMuxer constructs a muxer using the given ffmpeg and ffprobe binaries.
func NewMuxer(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Muxer {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Muxer{
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		logger:  logging.NewComponentLogger(logger, "muxer"),
		run:     defaultCommandRunner,
		probe:   ffprobe.Inspect,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithCommandRunner(r commandRunner) {
	if m != nil && r != nil {
		m.run = r
	}
}

// WithProber replaces the ffprobe call used to verify soft-muxed output.
func (m *Muxer) WithProber(p func(ctx context.Context, binary, path string) (ffprobe.Result, error)) {
	if m != nil && p != nil {
		m.probe = p
	}
}

// Mux writes req.OutputPath. The file only appears once ffmpeg succeeded.
func (m *Muxer) Mux(ctx context.Context, req MuxRequest) (string, error) {
	if m == nil {
		return "", errors.New("muxer not initialized")
	}
	if err := req.validate(); err != nil {
		return "", services.Wrap(services.ErrValidation, "mux", "validate request", err.Error(), nil)
	}
	for _, path := range []string{req.VideoPath, req.SubtitlePath} {
		if _, err := os.Stat(path); err != nil {
			return "", services.Wrap(services.ErrNotFound, "mux", "stat input", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := filepath.Join(filepath.Dir(req.OutputPath), ".mux-"+filepath.Base(req.OutputPath))
	args := buildFFmpegArgs(req, tmpPath)
	m.logger.Debug("executing ffmpeg",
		logging.String("video", req.VideoPath),
		logging.String("mode", req.Mode),
		logging.String("gpu", req.GPU),
		logging.String("args", strings.Join(args, " ")),
	)
	if err := m.run(ctx, m.ffmpeg, args...); err != nil {
		_ = os.Remove(tmpPath)
		return "", services.Wrap(services.ErrExternalTool, "mux", "ffmpeg", "ffmpeg failed", err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "mux", "ffmpeg", "ffmpeg did not produce output", err)
	}
	if req.Mode == MuxSoft {
		if err := m.verifySoftTrack(ctx, tmpPath, req.Language); err != nil {
			_ = os.Remove(tmpPath)
			return "", err
		}
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("move muxed output into place: %w", err)
	}

	m.logger.Info("subtitles muxed",
		logging.String(logging.FieldEventType, "subtitle_mux_complete"),
		logging.String("output", req.OutputPath),
		logging.String("mode", req.Mode),
		logging.String("language", language.ToISO3(req.Language)),
	)
	return req.OutputPath, nil
}

func (r MuxRequest) validate() error {
	switch {
	case strings.TrimSpace(r.VideoPath) == "":
		return errors.New("video path is required")
	case strings.TrimSpace(r.SubtitlePath) == "":
		return errors.New("subtitle path is required")
	case strings.TrimSpace(r.OutputPath) == "":
		return errors.New("output path is required")
	case r.Mode != MuxBurn && r.Mode != MuxSoft:
		return fmt.Errorf("unsupported mux mode %q", r.Mode)
	case (r.Width > 0) != (r.Height > 0) || r.Width < 0 || r.Height < 0:
		return fmt.Errorf("invalid resolution %dx%d", r.Width, r.Height)
	}
	return nil
}

// verifySoftTrack catches ffmpeg runs that exit cleanly without a subtitle stream.
func (m *Muxer) verifySoftTrack(ctx context.Context, path, lang string) error {
	result, err := m.probe(ctx, m.ffprobe, path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "mux", "verify", "failed to probe muxed output", err)
	}
	streams := result.SubtitleStreams()
	if len(streams) != 1 {
		return services.Wrap(services.ErrValidation, "mux", "verify",
			fmt.Sprintf("expected 1 subtitle track, found %d", len(streams)), nil)
	}
	if want := language.ToISO3(lang); streams[0].Language() != want {
		m.logger.Warn("muxed subtitle language tag mismatch",
			logging.String("expected", want),
			logging.String("found", streams[0].Language()),
			logging.String(logging.FieldEventType, "subtitle_language_mismatch"),
			logging.String(logging.FieldErrorHint, "players may label the track incorrectly"),
			logging.String(logging.FieldImpact, "track kept"),
		)
	}
	return nil
}

func buildFFmpegArgs(req MuxRequest, outputPath string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", req.VideoPath}
	lang3 := language.ToISO3(req.Language)

	switch req.Mode {
	case MuxSoft:
		args = append(args, "-i", req.SubtitlePath, "-map", "0:v:0", "-map", "0:a?", "-map", "1:0")
		if req.Width > 0 {
			args = append(args, "-vf", scaleFilter(req))
			args = append(args, videoEncoderArgs(req.GPU)...)
		} else {
			args = append(args, "-c:v", "copy")
		}
		args = append(args,
			"-c:a", "copy",
			"-c:s", "mov_text",
			"-metadata:s:s:0", "language="+lang3,
			"-metadata:s:s:0", "title="+language.DisplayName(req.Language),
		)
	default:
		filter := "subtitles=" + escapeFilterValue(req.SubtitlePath)
		if req.Width > 0 {
			filter = scaleFilter(req) + "," + filter
		}
		args = append(args, "-map", "0:v:0", "-map", "0:a?", "-vf", filter)
		args = append(args, videoEncoderArgs(req.GPU)...)
		args = append(args, "-c:a", "aac", "-strict", "experimental")
	}
	args = append(args, "-movflags", "+faststart", "-f", "mp4", outputPath)
	return args
}

func scaleFilter(req MuxRequest) string {
	return "scale=" + strconv.Itoa(req.Width) + ":" + strconv.Itoa(req.Height)
}

func videoEncoderArgs(gpu string) []string {
	switch gpu {
	case GPUNvidia:
		return []string{"-c:v", "h264_nvenc", "-preset", "slow", "-cq", "23"}
	case GPUAMD:
		return []string{"-c:v", "h264_amf", "-quality", "balanced", "-usage", "transcoding"}
	default:
		return []string{"-c:v", "libx264", "-preset", "medium", "-crf", "23"}
	}
}

// escapeFilterValue escapes a path for use as a filtergraph option value.
func escapeFilterValue(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\\\`,
		`'`, `\\\'`,
		`:`, `\\:`,
		`,`, `\,`,
		`;`, `\;`,
		`[`, `\[`,
		`]`, `\]`,
	)
	return replacer.Replace(value)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(tail(string(output), 400)))
	}
	return nil
}

// tail returns at most the last n bytes of s, starting on a rune boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
