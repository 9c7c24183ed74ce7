package pipeline

import (
	"fmt"

	"gnurante/internal/config"
	"gnurante/internal/language"
	"gnurante/internal/transcript"
)

// Failure policies for translation units that exhausted their retries.
const (
	FailureSubstitute = config.FailureSubstitute
	FailureAbort      = config.FailureAbort
)

// Policies for transcripts whose language cannot be determined.
const (
	UndeterminedAbort       = config.UndeterminedAbort
	UndeterminedPassthrough = config.UndeterminedPassthrough
)

// Policy holds the run decisions that are configuration rather than code.
type Policy struct {
	SyncMode       transcript.SyncMode
	DropEmptyCues  bool
	TargetLanguage string
	// FailurePolicy is FailureSubstitute or FailureAbort.
	FailurePolicy string
	// MaxUnitFailures caps substituted units; 0 means unlimited.
	MaxUnitFailures int
	// UndeterminedPolicy is UndeterminedAbort or UndeterminedPassthrough.
	UndeterminedPolicy string
}

// DefaultPolicy matches the shipped configuration defaults.
func DefaultPolicy() Policy {
	return Policy{
		SyncMode:           transcript.SyncSegment,
		DropEmptyCues:      true,
		TargetLanguage:     config.DefaultTargetLanguage,
		FailurePolicy:      FailureSubstitute,
		UndeterminedPolicy: UndeterminedAbort,
	}
}

// PolicyFromConfig maps the translation and sync sections onto a Policy.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return DefaultPolicy()
	}
	return Policy{
		SyncMode:           transcript.SyncMode(cfg.Sync.Mode),
		DropEmptyCues:      cfg.Sync.DropEmptyCues,
		TargetLanguage:     cfg.Translation.TargetLanguage,
		FailurePolicy:      cfg.Translation.FailurePolicy,
		MaxUnitFailures:    cfg.Translation.MaxUnitFailures,
		UndeterminedPolicy: cfg.Translation.UndeterminedPolicy,
	}
}

// Validate reports the first invalid field.
func (p Policy) Validate() error {
	if p.SyncMode != transcript.SyncSegment && p.SyncMode != transcript.SyncUniform {
		return fmt.Errorf("sync mode %q must be %q or %q", p.SyncMode, transcript.SyncSegment, transcript.SyncUniform)
	}
	if _, err := language.Normalize(p.TargetLanguage); err != nil {
		return fmt.Errorf("target language: %w", err)
	}
	if p.FailurePolicy != FailureSubstitute && p.FailurePolicy != FailureAbort {
		return fmt.Errorf("failure policy %q must be %q or %q", p.FailurePolicy, FailureSubstitute, FailureAbort)
	}
	if p.MaxUnitFailures < 0 {
		return fmt.Errorf("max unit failures must be >= 0, got %d", p.MaxUnitFailures)
	}
	if p.UndeterminedPolicy != UndeterminedAbort && p.UndeterminedPolicy != UndeterminedPassthrough {
		return fmt.Errorf("undetermined policy %q must be %q or %q", p.UndeterminedPolicy, UndeterminedAbort, UndeterminedPassthrough)
	}
	return nil
}
