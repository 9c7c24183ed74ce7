package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"gnurante/internal/langdetect"
	"gnurante/internal/language"
	"gnurante/internal/logging"
	"gnurante/internal/services"
	"gnurante/internal/subtitles"
	"gnurante/internal/transcript"
	"gnurante/internal/translate"
)

// Artifact file names written to the run work directory.
const (
	TranscriptFile  = "transcript.txt"
	TranslationFile = "translation.txt"
	SubtitleFile    = "subtitles.srt"
)

// Translator is the part of translate.Engine the orchestrator needs.
type Translator interface {
	TranslateAll(ctx context.Context, units []string, source, target string) (translate.Batch, error)
}

// Input is what the recognizer produced: timed segments, flat text, or both.
type Input struct {
	Segments []transcript.RawSegment
	Text     string
}

// Result describes a successful run.
type Result struct {
	RunID        string
	SRT          string
	Entries      []subtitles.Entry
	Transcript   *transcript.Transcript
	SubtitlePath string
	// FailedUnits lists segment indexes that were substituted with source text.
	FailedUnits []int
	// Empty is set when the transcript had no usable units.
	Empty    bool
	Duration time.Duration
}

// Run outcomes reported to Recorder.RunFinished.
const (
	OutcomeDone   = "done"
	OutcomeEmpty  = "empty"
	OutcomeFailed = "failed"
)

// Recorder receives run and stage timings, typically for metrics.
type Recorder interface {
	StageCompleted(stage State, elapsed time.Duration)
	RunFinished(outcome string, failedStage State, elapsed time.Duration)
	UnitsSubstituted(n int)
}

type noopRecorder struct{}

func (noopRecorder) StageCompleted(State, time.Duration)      {}
func (noopRecorder) RunFinished(string, State, time.Duration) {}
func (noopRecorder) UnitsSubstituted(int)                     {}

// step advances a run into the state it is registered under.
type step func(ctx context.Context, r *run) error

// run is the state owned by a single Run call.
type run struct {
	id           string
	input        Input
	durationHint float64
	logger       *slog.Logger

	transcript  *transcript.Transcript
	passthrough bool
	failed      []int
	entries     []subtitles.Entry
	srt         string
	srtPath     string
	artifacts   []string
}

// Orchestrator runs the stage machine. It is safe for concurrent Run calls;
// each run owns its transcript.
type Orchestrator struct {
	detector   langdetect.Detector
	translator Translator
	policy     Policy
	workDir    string
	logger     *slog.Logger
	recorder   Recorder
	steps      map[State]step
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithWorkDir enables artifact files. Each run writes into dir/<run id>.
func WithWorkDir(dir string) Option {
	return func(o *Orchestrator) {
		o.workDir = dir
	}
}

// WithRecorder registers a metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// New builds an orchestrator. The policy is validated up front.
func New(detector langdetect.Detector, translator Translator, policy Policy, opts ...Option) (*Orchestrator, error) {
	if detector == nil {
		return nil, errors.New("pipeline: language detector required")
	}
	if translator == nil {
		return nil, errors.New("pipeline: translator required")
	}
	if err := policy.Validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "policy", err.Error(), nil)
	}
	target, _ := language.Normalize(policy.TargetLanguage)
	policy.TargetLanguage = target

	o := &Orchestrator{
		detector:   detector,
		translator: translator,
		policy:     policy,
		recorder:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "pipeline")
	o.steps = map[State]step{
		LanguageDetected: o.detectLanguage,
		Translated:       o.translate,
		Assembled:        o.assemble,
		Done:             o.render,
	}
	return o, nil
}

// Policy returns the effective policy.
func (o *Orchestrator) Policy() Policy {
	return o.policy
}

// Run turns recognizer output into subtitle text. durationHint is the media
// length in seconds and is only needed when timing comes from flat text.
// A run ID from ctx is reused; otherwise one is generated.
func (o *Orchestrator) Run(ctx context.Context, input Input, durationHint float64) (Result, error) {
	started := time.Now()
	runID, ok := services.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRunID(ctx, runID)
	}
	r := &run{
		id:           runID,
		input:        input,
		durationHint: durationHint,
		logger:       logging.WithContext(ctx, o.logger),
	}
	r.logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("segments", len(input.Segments)),
		logging.Int("text_chars", len(input.Text)),
		logging.Float64("duration_hint", durationHint),
		logging.String("target", o.policy.TargetLanguage),
	)

	state := Idle
	for !state.Terminal() {
		next, _ := state.Next()
		if err := o.advance(ctx, r, next); err != nil {
			o.cleanup(r)
			o.recorder.RunFinished(OutcomeFailed, next, time.Since(started))
			logging.ErrorWithContext(r.logger, "pipeline failed", "run_failed",
				logging.String("failed_stage", next.String()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, failureHint(err)),
			)
			return Result{}, &Failure{RunID: runID, Stage: next, Cause: err}
		}
		state = next
	}

	result := Result{
		RunID:        runID,
		SRT:          r.srt,
		Entries:      r.entries,
		Transcript:   r.transcript,
		SubtitlePath: r.srtPath,
		FailedUnits:  r.failed,
		Empty:        r.transcript.Empty(),
		Duration:     time.Since(started),
	}
	outcome := OutcomeDone
	if result.Empty {
		outcome = OutcomeEmpty
	}
	o.recorder.RunFinished(outcome, Done, result.Duration)
	r.logger.Info("pipeline complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("source", r.transcript.Language),
		logging.Int("cues", len(r.entries)),
		logging.Int("substituted_units", len(r.failed)),
		logging.Bool("empty", result.Empty),
		logging.Duration("elapsed", result.Duration),
	)
	return result, nil
}

func (o *Orchestrator) advance(ctx context.Context, r *run, next State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn, ok := o.steps[next]
	if !ok {
		return fmt.Errorf("no step registered for %s", next)
	}
	stageCtx := services.WithStage(ctx, next.String())
	started := time.Now()
	if err := fn(stageCtx, r); err != nil {
		return err
	}
	elapsed := time.Since(started)
	o.recorder.StageCompleted(next, elapsed)
	r.logger.Debug("stage complete",
		logging.String(logging.FieldStage, next.String()),
		logging.Duration("elapsed", elapsed),
	)
	return nil
}

func (o *Orchestrator) detectLanguage(ctx context.Context, r *run) error {
	src := transcript.Select(o.policy.SyncMode, r.input.Segments, r.input.Text, r.durationHint)
	t, err := transcript.Build(src)
	if err != nil {
		return fmt.Errorf("build transcript: %w", err)
	}
	r.transcript = t
	if t.Empty() {
		t.Language = language.Undetermined
		r.logger.Info("empty transcript, no subtitles to produce",
			logging.Args(logging.DecisionAttrs("empty_transcript", "skip_detection", transcript.ErrEmptyTranscript.Error())...)...)
		return nil
	}
	text := t.Text()
	if err := o.writeArtifact(r, TranscriptFile, text+"\n"); err != nil {
		return err
	}

	detected, err := o.detector.Detect(text)
	if err != nil {
		if errors.Is(err, langdetect.ErrUndeterminedLanguage) && o.policy.UndeterminedPolicy == UndeterminedPassthrough {
			t.Language = language.Undetermined
			r.passthrough = true
			r.logger.Info("source language undetermined, passing text through",
				logging.Args(append(logging.DecisionAttrs("undetermined_language", "passthrough", err.Error()),
					logging.String("sync_mode", t.Mode.String()))...)...)
			return nil
		}
		return err
	}
	t.Language = detected.Language
	t.Confidence = detected.Confidence
	r.logger.Info("source language detected",
		logging.String("language", detected.Language),
		logging.Float64("confidence", detected.Confidence),
		logging.String("sync_mode", t.Mode.String()),
		logging.Int("segments", len(t.Segments)),
	)
	return nil
}

func (o *Orchestrator) translate(ctx context.Context, r *run) error {
	t := r.transcript
	if t.Empty() {
		return nil
	}
	target := o.policy.TargetLanguage
	if r.passthrough || language.Equal(t.Language, target) {
		t.Passthrough()
		reason := "source language matches target"
		if r.passthrough {
			reason = "source language undetermined"
		}
		r.logger.Info("translation skipped",
			logging.Args(logging.DecisionAttrs("translation", "passthrough", reason)...)...)
		return o.writeArtifact(r, TranslationFile, t.TranslatedText())
	}

	units := t.Units()
	batch, err := o.translator.TranslateAll(ctx, units, t.Language, target)
	if err != nil {
		return fmt.Errorf("translate units: %w", err)
	}
	if len(batch.Results) != len(units) {
		return fmt.Errorf("translate units: got %d results for %d units", len(batch.Results), len(units))
	}
	texts := batch.Texts()
	failed := batch.Failed()
	if len(failed) > 0 {
		if err := o.checkFailures(batch, failed, len(units)); err != nil {
			return err
		}
		for _, idx := range failed {
			texts[idx] = units[idx]
		}
		o.recorder.UnitsSubstituted(len(failed))
		logging.WarnWithContext(r.logger, "substituted source text for failed units", "units_substituted",
			logging.Int("failed_units", len(failed)),
			logging.Int("units", len(units)),
			logging.String(logging.FieldImpact, "some cues stay in the source language"),
			logging.String(logging.FieldErrorHint, "rerun with the translation cache enabled to retry only the failed units"),
		)
	}
	r.failed = failed
	if err := t.ApplyTranslations(texts); err != nil {
		return err
	}
	return o.writeArtifact(r, TranslationFile, t.TranslatedText())
}

func (o *Orchestrator) checkFailures(batch translate.Batch, failed []int, total int) error {
	first := batch.Results[failed[0]].Err
	if o.policy.FailurePolicy == FailureAbort {
		return fmt.Errorf("%d of %d units failed: %w", len(failed), total, first)
	}
	if o.policy.MaxUnitFailures > 0 && len(failed) > o.policy.MaxUnitFailures {
		return fmt.Errorf("%w: %d of %d units failed (limit %d): %w",
			ErrTooManyUnitFailures, len(failed), total, o.policy.MaxUnitFailures, first)
	}
	return nil
}

func (o *Orchestrator) assemble(_ context.Context, r *run) error {
	entries, err := subtitles.Assemble(r.transcript, subtitles.AssembleOptions{DropEmpty: o.policy.DropEmptyCues})
	if err != nil {
		return err
	}
	if dropped := len(r.transcript.Segments) - len(entries); dropped > 0 {
		r.logger.Debug("dropped empty cues", logging.Int("dropped", dropped))
	}
	r.entries = entries
	return nil
}

func (o *Orchestrator) render(_ context.Context, r *run) error {
	srt, err := subtitles.Render(r.entries)
	if err != nil {
		return err
	}
	r.srt = srt
	if err := o.writeArtifact(r, SubtitleFile, srt); err != nil {
		return err
	}
	if o.workDir != "" {
		r.srtPath = filepath.Join(o.runDir(r), SubtitleFile)
	}
	return nil
}

func (o *Orchestrator) runDir(r *run) string {
	return filepath.Join(o.workDir, r.id)
}

// writeArtifact records the file before writing so a partial write is
// still removed on failure.
func (o *Orchestrator) writeArtifact(r *run, name, content string) error {
	if o.workDir == "" {
		return nil
	}
	dir := o.runDir(r)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	path := filepath.Join(dir, name)
	r.artifacts = append(r.artifacts, path)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (o *Orchestrator) cleanup(r *run) {
	for _, path := range r.artifacts {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(r.logger, "failed to remove run artifact", "artifact_cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale file left in work directory"),
				logging.String(logging.FieldErrorHint, "run gnurante staging clean"),
			)
		}
	}
	if o.workDir != "" && len(r.artifacts) > 0 {
		// Only succeeds when the run directory is empty.
		_ = os.Remove(o.runDir(r))
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, langdetect.ErrUndeterminedLanguage):
		return "set translation.source_language or translation.undetermined_policy = \"passthrough\""
	case errors.Is(err, transcript.ErrInvalidInterval):
		return "recognizer produced a broken timeline; try sync.mode = \"uniform\""
	case errors.Is(err, translate.ErrUnitFailure), errors.Is(err, ErrTooManyUnitFailures):
		return "check translation backend credentials and quota"
	case errors.Is(err, context.Canceled):
		return "run was cancelled"
	default:
		return "check logs for details"
	}
}
