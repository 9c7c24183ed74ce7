package transcript

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInterval reports a segment whose start/end contract is broken.
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrEmptyTranscript reports a transcript with zero usable units.
	ErrEmptyTranscript = errors.New("empty transcript")
)

// Mode records which synchronization strategy produced a Transcript.
type Mode int

const (
	// ModeNative keeps recognizer timestamps.
	ModeNative Mode = iota + 1
	// ModeUniform spreads sentences evenly over the media duration.
	ModeUniform
)

func (m Mode) String() string {
	switch m {
	case ModeNative:
		return "native"
	case ModeUniform:
		return "uniform"
	default:
		return "unknown"
	}
}

// RawSegment is one {start, end, text} triple from the recognizer.
type RawSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Segment is a timed unit of source text and, once translated, its translation.
// SourceText is stored exactly as the recognizer produced it; surrounding
// whitespace is dropped only when text is joined or rendered.
type Segment struct {
	Index          int
	Start          float64
	End            float64
	SourceText     string
	TranslatedText string
	Translated     bool
}

// Transcript is the ordered segment list owned by a single pipeline run.
type Transcript struct {
	Mode       Mode
	Segments   []Segment
	Language   string
	Confidence float64
}

// Empty reports whether the transcript has no segments.
func (t *Transcript) Empty() bool {
	return t == nil || len(t.Segments) == 0
}

// Text concatenates all segment texts, space separated.
func (t *Transcript) Text() string {
	if t.Empty() {
		return ""
	}
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.SourceText); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Units returns the translation units in segment order.
func (t *Transcript) Units() []string {
	if t.Empty() {
		return nil
	}
	units := make([]string, len(t.Segments))
	for i, seg := range t.Segments {
		units[i] = seg.SourceText
	}
	return units
}

// ApplyTranslations fills TranslatedText positionally.
func (t *Transcript) ApplyTranslations(texts []string) error {
	if t == nil {
		return errors.New("nil transcript")
	}
	if len(texts) != len(t.Segments) {
		return fmt.Errorf("apply translations: got %d texts for %d segments", len(texts), len(t.Segments))
	}
	for i := range t.Segments {
		t.Segments[i].TranslatedText = texts[i]
		t.Segments[i].Translated = true
	}
	return nil
}

// Passthrough marks every segment translated with its own source text.
func (t *Transcript) Passthrough() {
	if t == nil {
		return
	}
	for i := range t.Segments {
		t.Segments[i].TranslatedText = t.Segments[i].SourceText
		t.Segments[i].Translated = true
	}
}

// TranslatedText concatenates translated texts, one segment per line.
func (t *Transcript) TranslatedText() string {
	if t.Empty() {
		return ""
	}
	var b strings.Builder
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.TranslatedText); text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
