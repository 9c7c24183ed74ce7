package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gnurante/internal/app"
	"gnurante/internal/deps"
	"gnurante/internal/logging"
	"gnurante/internal/media/ffprobe"
	"gnurante/internal/pipeline"
	"gnurante/internal/services"
	"gnurante/internal/services/whisperx"
	"gnurante/internal/subtitles"
	"gnurante/internal/transcript"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var overrides runOverrides
	var outPath string
	var duration float64
	var mediaPath string

	cmd := &cobra.Command{
		Use:   "translate <whisperx.json|subtitles.srt|transcript.txt>",
		Short: "Translate an existing transcript into a target-language SRT",
		Long: `Translate an existing transcript without touching any video.

WhisperX JSON and SRT inputs keep their segment timing. Plain text has no
timing, so cues are spread uniformly over --duration seconds or over the
duration ffprobe reports for --media.

The SRT goes to --out, or to stdout when --out is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			cfg, err := overrides.apply(base)
			if err != nil {
				return err
			}

			input, err := loadTranscriptInput(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(mediaPath) != "" {
				probe := deps.ResolveFFprobe(cfg.FFmpegBinary())
				seconds, err := ffprobe.Duration(cmd.Context(), probe.Command, mediaPath)
				if err != nil {
					return services.Wrap(services.ErrExternalTool, "cli", "ffprobe", mediaPath, err)
				}
				duration = seconds
			}
			if duration < 0 {
				return services.Wrap(services.ErrValidation, "cli", "duration", "must not be negative", nil)
			}

			svc, err := app.Build(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer svc.Close()

			result, err := svc.Orchestrator.Run(cmd.Context(), input, duration)
			if err != nil {
				return classifyRunError(err)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"run_id":       result.RunID,
					"language":     result.Transcript.Language,
					"cues":         len(result.Entries),
					"failed_units": result.FailedUnits,
					"srt":          result.SRT,
				})
			}

			if strings.TrimSpace(outPath) == "" {
				fmt.Fprint(cmd.OutOrStdout(), result.SRT)
				printSummary(cmd.ErrOrStderr(), runSummaryRows(result))
				return nil
			}
			if err := writeOutputFile(outPath, result.SRT); err != nil {
				return err
			}
			logger.Info("subtitles written",
				logging.String(logging.FieldEventType, "subtitles_written"),
				logging.String("path", outPath),
				logging.Int("cues", len(result.Entries)),
			)
			printSummary(cmd.OutOrStdout(), append(runSummaryRows(result), summaryRow{"Subtitles", outPath}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&overrides.target, "target", "t", "", "Target language (default translation.target_language)")
	cmd.Flags().StringVar(&overrides.source, "source", "", "Source language; skips detection")
	cmd.Flags().StringVar(&overrides.sync, "sync", "", "Cue timing: segment or uniform (default sync.mode)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the SRT here instead of stdout")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Media duration in seconds for untimed text")
	cmd.Flags().StringVar(&mediaPath, "media", "", "Probe this media file for the duration")
	return cmd
}

// loadTranscriptInput reads a transcript by extension: WhisperX JSON, SRT,
// or anything else as plain text.
func loadTranscriptInput(path string) (pipeline.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return pipeline.Input{}, services.Wrap(services.ErrNotFound, "cli", "read transcript", path, err)
		}
		return pipeline.Input{}, fmt.Errorf("read transcript: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		parsed, err := whisperx.ParseTranscript(data)
		if err != nil {
			return pipeline.Input{}, services.Wrap(services.ErrValidation, "cli", "parse transcript", path, err)
		}
		return pipeline.Input{Segments: parsed.Segments, Text: parsed.Text}, nil
	case ".srt":
		entries, err := subtitles.Parse(strings.NewReader(string(data)))
		if err != nil {
			return pipeline.Input{}, services.Wrap(services.ErrValidation, "cli", "parse subtitles", path, err)
		}
		segments := make([]transcript.RawSegment, 0, len(entries))
		texts := make([]string, 0, len(entries))
		for _, entry := range entries {
			segments = append(segments, transcript.RawSegment{Start: entry.Start, End: entry.End, Text: entry.Text})
			texts = append(texts, entry.Text)
		}
		return pipeline.Input{Segments: segments, Text: strings.Join(texts, " ")}, nil
	default:
		return pipeline.Input{Text: string(data)}, nil
	}
}

func writeOutputFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
