package subtitles

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gnurante/internal/timecode"
	"gnurante/internal/transcript"
)

var (
	// ErrUntranslated reports a segment that reached assembly without a translation.
	ErrUntranslated = errors.New("segment not translated")
	// ErrEmptyCue reports a cue with no text; SubRip cannot represent one.
	ErrEmptyCue = errors.New("empty cue text")
)

// Entry is one rendered cue.
type Entry struct {
	Ordinal int
	Start   float64
	End     float64
	Text    string
}

// AssembleOptions controls cue filtering.
type AssembleOptions struct {
	// DropEmpty skips segments whose translation is blank after trimming.
	// When false such a segment keeps its source text instead; a segment
	// that is blank in both is always skipped.
	DropEmpty bool
}

// Assemble converts a fully translated transcript into cues. Ordinals are
// assigned by position after filtering.
func Assemble(t *transcript.Transcript, opts AssembleOptions) ([]Entry, error) {
	if t.Empty() {
		return nil, nil
	}
	entries := make([]Entry, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if !seg.Translated {
			return nil, fmt.Errorf("assemble segment %d: %w", seg.Index, ErrUntranslated)
		}
		if err := checkInterval(seg.Start, seg.End); err != nil {
			return nil, fmt.Errorf("assemble segment %d: %w", seg.Index, err)
		}
		text := normalizeText(seg.TranslatedText)
		if text == "" && !opts.DropEmpty {
			text = normalizeText(seg.SourceText)
		}
		if text == "" {
			continue
		}
		entries = append(entries, Entry{
			Ordinal: len(entries) + 1,
			Start:   seg.Start,
			End:     seg.End,
			Text:    text,
		})
	}
	return entries, nil
}

// checkInterval enforces end > start both in seconds and at millisecond
// resolution, since a cue can collapse to zero length once truncated.
func checkInterval(start, end float64) error {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return fmt.Errorf("%w: non-finite bounds [%v, %v]", transcript.ErrInvalidInterval, start, end)
	}
	if end <= start {
		return fmt.Errorf("%w: end %v <= start %v", transcript.ErrInvalidInterval, end, start)
	}
	startMs, err := timecode.Milliseconds(start)
	if err != nil {
		return fmt.Errorf("%w: %w", transcript.ErrInvalidInterval, err)
	}
	endMs, err := timecode.Milliseconds(end)
	if err != nil {
		return fmt.Errorf("%w: %w", transcript.ErrInvalidInterval, err)
	}
	if endMs <= startMs {
		return fmt.Errorf("%w: [%v, %v] is empty at millisecond resolution", transcript.ErrInvalidInterval, start, end)
	}
	return nil
}

// normalizeText unifies line endings and drops blank lines, which would
// otherwise terminate the cue early.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
