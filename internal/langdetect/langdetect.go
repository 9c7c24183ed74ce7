// Package langdetect identifies the spoken language of a transcript.
//
// Detection runs once over the whole transcript text because short fragments
// are unreliable. A detector never guesses: empty text, unknown languages and
// low confidence all surface as ErrUndeterminedLanguage so the caller can pick
// a fallback policy.
package langdetect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"

	"gnurante/internal/language"
)

// ErrUndeterminedLanguage reports that no usable language code was found.
var ErrUndeterminedLanguage = errors.New("undetermined language")

// Result is a detected language as an ISO 639-1 code (or the shortest
// canonical code when none exists) plus a confidence in [0, 1].
type Result struct {
	Language   string
	Confidence float64
}

// Detector maps text to a language.
type Detector interface {
	Detect(text string) (Result, error)
}

// Whatlang detects languages with trigram statistics.
type Whatlang struct {
	minConfidence float64
	detect        func(string) whatlanggo.Info
}

// NewWhatlang returns a detector that rejects results below minConfidence.
func NewWhatlang(minConfidence float64) *Whatlang {
	return &Whatlang{minConfidence: clamp(minConfidence), detect: whatlanggo.Detect}
}

// Detect implements Detector.
func (w *Whatlang) Detect(text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, fmt.Errorf("%w: no text", ErrUndeterminedLanguage)
	}
	info := w.detect(text)
	if info.Lang < 0 {
		return Result{}, fmt.Errorf("%w: no language matched", ErrUndeterminedLanguage)
	}
	code, err := language.Normalize(info.Lang.Iso6393())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrUndeterminedLanguage, err)
	}
	if info.Confidence < w.minConfidence {
		return Result{}, fmt.Errorf("%w: %s confidence %.2f below %.2f", ErrUndeterminedLanguage, code, info.Confidence, w.minConfidence)
	}
	return Result{Language: code, Confidence: info.Confidence}, nil
}

// Fixed reports a configured language regardless of input.
type Fixed struct {
	Language string
}

// Detect implements Detector.
func (f Fixed) Detect(string) (Result, error) {
	code, err := language.Normalize(f.Language)
	if err != nil {
		return Result{}, fmt.Errorf("%w: configured source %q: %s", ErrUndeterminedLanguage, f.Language, err)
	}
	return Result{Language: code, Confidence: 1}, nil
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
