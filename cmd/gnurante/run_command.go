package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gnurante/internal/acquire"
	"gnurante/internal/app"
	"gnurante/internal/config"
	"gnurante/internal/deps"
	"gnurante/internal/language"
	"gnurante/internal/logging"
	"gnurante/internal/media/ffprobe"
	"gnurante/internal/pipeline"
	"gnurante/internal/preflight"
	"gnurante/internal/services"
	"gnurante/internal/services/whisperx"
	"gnurante/internal/staging"
	"gnurante/internal/subtitles"
)

const audioFile = "audio.wav"

type runFlags struct {
	overrides     runOverrides
	outputDir     string
	mux           string
	gpu           string
	resolution    string
	keepWork      bool
	skipPreflight bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <url|file>",
		Short: "Download, transcribe, translate and subtitle a video",
		Long: `Run the full workflow for one video.

The source is downloaded with yt-dlp unless it is a local file. Its first
audio track is extracted (and denoised), transcribed with WhisperX, translated
segment by segment and written as an SRT next to the subtitled video in the
output directory. The work directory is removed afterwards unless --keep-work
is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			cfg, err := flags.apply(base)
			if err != nil {
				return err
			}
			if !flags.skipPreflight {
				if err := runPreflight(cmd.Context(), cfg); err != nil {
					return err
				}
			}
			app.LogDependencySnapshot(logger, cfg)

			outcome, err := executeRun(cmd.Context(), ctx.exec, cfg, logger, args[0])
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"run_id":       outcome.result.RunID,
					"language":     outcome.result.Transcript.Language,
					"cues":         len(outcome.result.Entries),
					"failed_units": outcome.result.FailedUnits,
					"subtitles":    outcome.subtitlePath,
					"video":        outcome.videoPath,
				})
			}
			rows := append(runSummaryRows(outcome.result),
				summaryRow{"Subtitles", outcome.subtitlePath},
				summaryRow{"Video", outcome.videoPath},
			)
			if cfg.Media.KeepWork {
				rows = append(rows, summaryRow{"Work directory", outcome.workDir})
			}
			printSummary(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.overrides.target, "target", "t", "", "Target language (default translation.target_language)")
	cmd.Flags().StringVar(&flags.overrides.source, "source", "", "Source language; skips detection and is passed to WhisperX")
	cmd.Flags().StringVar(&flags.overrides.sync, "sync", "", "Cue timing: segment or uniform (default sync.mode)")
	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "Output directory (default paths.output_dir)")
	cmd.Flags().StringVar(&flags.mux, "mux", "", "burn, soft or none (default media.mux_mode)")
	cmd.Flags().StringVar(&flags.gpu, "gpu", "", "Encoder for burn-in: nvidia, amd or cpu (default media.gpu)")
	cmd.Flags().StringVar(&flags.resolution, "resolution", "", "Scale burned-in output to WIDTHxHEIGHT")
	cmd.Flags().BoolVar(&flags.keepWork, "keep-work", false, "Keep downloaded and intermediate files")
	cmd.Flags().BoolVar(&flags.skipPreflight, "skip-preflight", false, "Skip directory and backend checks")
	return cmd
}

func (f runFlags) apply(base *config.Config) (*config.Config, error) {
	cfg, err := f.overrides.apply(base)
	if err != nil {
		return nil, err
	}
	if f.overrides.source != "" {
		cfg.ASR.Language = f.overrides.source
	}
	if dir := strings.TrimSpace(f.outputDir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return nil, err
		}
		cfg.Paths.OutputDir = expanded
	}
	if mode := strings.TrimSpace(f.mux); mode != "" {
		switch mode {
		case config.MuxBurn, config.MuxSoft, config.MuxNone:
			cfg.Media.MuxMode = mode
		default:
			return nil, services.Wrap(services.ErrValidation, "cli", "mux", fmt.Sprintf("unsupported mode %q", mode), nil)
		}
	}
	if gpu := strings.TrimSpace(f.gpu); gpu != "" {
		switch gpu {
		case config.GPUNone, config.GPUNvidia, config.GPUAMD:
			cfg.Media.GPU = gpu
		default:
			return nil, services.Wrap(services.ErrValidation, "cli", "gpu", fmt.Sprintf("unsupported encoder %q", gpu), nil)
		}
	}
	if res := strings.TrimSpace(f.resolution); res != "" {
		if _, _, err := config.ParseResolution(res); err != nil {
			return nil, services.Wrap(services.ErrValidation, "cli", "resolution", res, err)
		}
		cfg.Media.Resolution = res
	}
	if f.keepWork {
		cfg.Media.KeepWork = true
	}
	return cfg, nil
}

func runPreflight(ctx context.Context, cfg *config.Config) error {
	results := preflight.RunAll(ctx, cfg)
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) > 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", "",
			strings.Join(failed, "; ")+" (run 'gnurante doctor' for details)", nil)
	}
	return nil
}

type runOutcome struct {
	result       pipeline.Result
	subtitlePath string
	videoPath    string
	workDir      string
}

// executeRun drives acquire, ASR, the translation pipeline and muxing inside
// one locked work directory.
func executeRun(ctx context.Context, run execFunc, cfg *config.Config, logger *slog.Logger, source string) (runOutcome, error) {
	var outcome runOutcome

	ws, err := staging.Open(cfg.Paths.WorkDir, "")
	if err != nil {
		return outcome, err
	}
	outcome.workDir = ws.Dir
	defer func() {
		if cfg.Media.KeepWork {
			_ = ws.Release()
			return
		}
		if err := ws.Remove(); err != nil {
			logging.WarnWithContext(logger, "work directory cleanup failed", "work_cleanup_failed",
				logging.Error(err),
				logging.String("path", ws.Dir),
				logging.String(logging.FieldErrorHint, "run 'gnurante staging clean'"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}()

	ctx = services.WithRunID(ctx, ws.ID)
	logger = logging.WithContext(ctx, logger)

	downloader := acquire.NewDownloader(cfg.YtDLPBinary(), cfg.Media.Format, logger)
	asr := whisperx.NewService(whisperx.ConfigFromASR(cfg.ASR), cfg.FFmpegBinary())
	muxer := subtitles.NewMuxer(cfg.FFmpegBinary(), deps.ResolveFFprobe(cfg.FFmpegBinary()).Command, logger)
	if run != nil {
		downloader.WithCommandRunner(acquire.CommandRunner(run))
		asr.WithCommandRunner(whisperx.CommandRunner(run))
		muxer.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
			_, err := run(ctx, name, args...)
			return err
		})
	}

	media, err := downloader.Fetch(services.WithStage(ctx, "acquire"), source, ws.Dir)
	if err != nil {
		return outcome, err
	}

	transcribed, err := transcribe(ctx, asr, cfg, media.Path, ws.Path(audioFile), ws.Dir)
	if err != nil {
		return outcome, err
	}
	logger.Info("transcription complete",
		logging.String(logging.FieldEventType, "transcription_complete"),
		logging.Int("segments", len(transcribed.Segments)),
		logging.String("whisperx_language", transcribed.Language),
	)
	if !cfg.Media.KeepWork {
		if err := ws.RemoveFiles(audioFile); err != nil {
			logging.WarnWithContext(logger, "intermediate audio not removed", "workspace_cleanup_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the work directory manually"),
				logging.String(logging.FieldImpact, "extra disk space is held until the run ends"),
			)
		}
	}

	duration, err := ffprobe.Duration(ctx, deps.ResolveFFprobe(cfg.FFmpegBinary()).Command, media.Path)
	if err != nil {
		logging.WarnWithContext(logger, "media duration unavailable", "duration_probe_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that ffprobe is installed"),
			logging.String(logging.FieldImpact, "uniform timing falls back to the last segment end"),
		)
		duration = 0
	}

	svc, err := app.Build(ctx, cfg, logger, nil, pipeline.WithWorkDir(ws.Dir))
	if err != nil {
		return outcome, err
	}
	defer svc.Close()

	result, err := svc.Orchestrator.Run(ctx, pipeline.Input{Segments: transcribed.Segments, Text: transcribed.Text}, duration)
	if err != nil {
		return outcome, classifyRunError(err)
	}
	outcome.result = result

	stem := outputStem(media, ws.ID)
	target := language.ToISO2(cfg.Translation.TargetLanguage)
	outcome.subtitlePath = filepath.Join(cfg.Paths.OutputDir, fmt.Sprintf("%s.%s.srt", stem, target))
	if err := writeOutputFile(outcome.subtitlePath, result.SRT); err != nil {
		return outcome, err
	}
	if issues := subtitles.Validate(result.SRT, duration); len(issues) > 0 {
		logging.WarnWithContext(logger, "subtitle validation issues", "subtitle_validation",
			logging.Any("issues", issues),
			logging.String(logging.FieldErrorHint, "inspect the SRT before publishing"),
			logging.String(logging.FieldImpact, "players may render some cues oddly"),
		)
	}

	if cfg.Media.MuxMode == config.MuxNone || result.Empty {
		return outcome, nil
	}
	width, height := 0, 0
	if cfg.Media.Resolution != "" {
		width, height, _ = config.ParseResolution(cfg.Media.Resolution)
	}
	videoPath, err := muxer.Mux(services.WithStage(ctx, "mux"), subtitles.MuxRequest{
		VideoPath:    media.Path,
		SubtitlePath: outcome.subtitlePath,
		OutputPath:   filepath.Join(cfg.Paths.OutputDir, fmt.Sprintf("%s.%s.mp4", stem, target)),
		Language:     target,
		Mode:         cfg.Media.MuxMode,
		GPU:          cfg.Media.GPU,
		Width:        width,
		Height:       height,
	})
	if err != nil {
		return outcome, err
	}
	outcome.videoPath = videoPath
	return outcome, nil
}

func transcribe(ctx context.Context, asr *whisperx.Service, cfg *config.Config, mediaPath, audioPath, outputDir string) (whisperx.Result, error) {
	ctx = services.WithStage(ctx, "asr")
	if cfg.ASR.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.ASR.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	if err := asr.ExtractAudio(ctx, mediaPath, audioPath); err != nil {
		return whisperx.Result{}, err
	}
	return asr.TranscribeFile(ctx, audioPath, outputDir, cfg.ASR.Language)
}

// outputStem names outputs after a local source file, or after the run for
// downloads whose temporary name carries no meaning.
func outputStem(media acquire.Media, runID string) string {
	if !media.Downloaded {
		return strings.TrimSuffix(filepath.Base(media.Path), filepath.Ext(media.Path))
	}
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return "gnurante-" + runID
}
