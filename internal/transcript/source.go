package transcript

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// SyncMode is the configured preference between native and uniform timing.
type SyncMode string

const (
	SyncSegment SyncMode = "segment"
	SyncUniform SyncMode = "uniform"
)

// Source is the input to Build. Construct it with NativeSource or FlatSource.
type Source struct {
	mode     Mode
	segments []RawSegment
	text     string
	duration float64
}

// NativeSource wraps recognizer segments whose timestamps are kept as-is.
func NativeSource(segments []RawSegment) Source {
	return Source{mode: ModeNative, segments: slices.Clone(segments)}
}

// FlatSource wraps a transcript string and the media duration in seconds.
func FlatSource(text string, duration float64) Source {
	return Source{mode: ModeUniform, text: text, duration: duration}
}

// Mode returns the variant tag.
func (s Source) Mode() Mode {
	return s.mode
}

// Select picks the source variant for the configured sync mode. Segment mode
// uses recognizer segments when there are any; uniform mode, or a recognizer
// that produced only text, re-slices the flat transcript. Missing text is
// rebuilt from the segments and a missing duration falls back to the last
// segment end.
func Select(mode SyncMode, segments []RawSegment, text string, duration float64) Source {
	if mode != SyncUniform && len(segments) > 0 {
		return NativeSource(segments)
	}
	if strings.TrimSpace(text) == "" && len(segments) > 0 {
		parts := make([]string, 0, len(segments))
		for _, seg := range segments {
			if t := strings.TrimSpace(seg.Text); t != "" {
				parts = append(parts, t)
			}
		}
		text = strings.Join(parts, " ")
	}
	if duration <= 0 && len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}
	return FlatSource(text, duration)
}

// Build produces a Transcript from either source variant.
func Build(src Source) (*Transcript, error) {
	switch src.mode {
	case ModeNative:
		return buildNative(src.segments)
	case ModeUniform:
		return buildUniform(src.text, src.duration)
	default:
		return nil, fmt.Errorf("build transcript: unknown source mode %d", src.mode)
	}
}

func buildNative(raw []RawSegment) (*Transcript, error) {
	t := &Transcript{Mode: ModeNative, Segments: make([]Segment, 0, len(raw))}
	prevStart := 0.0
	for i, seg := range raw {
		if err := checkInterval(seg.Start, seg.End); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		if i > 0 && seg.Start < prevStart {
			return nil, fmt.Errorf("segment %d starts at %v before previous start %v: %w", i, seg.Start, prevStart, ErrInvalidInterval)
		}
		prevStart = seg.Start
		t.Segments = append(t.Segments, Segment{
			Index:      i,
			Start:      seg.Start,
			End:        seg.End,
			SourceText: seg.Text,
		})
	}
	return t, nil
}

func buildUniform(text string, duration float64) (*Transcript, error) {
	var sentences []string
	for sentence := range Sentences(text) {
		sentences = append(sentences, sentence)
	}
	t := &Transcript{Mode: ModeUniform}
	n := len(sentences)
	if n == 0 {
		return t, nil
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return nil, fmt.Errorf("uniform timing needs a positive duration, got %v for %d sentences: %w", duration, n, ErrInvalidInterval)
	}
	t.Segments = make([]Segment, n)
	for i, sentence := range sentences {
		end := duration
		if i < n-1 {
			end = boundary(i+1, n, duration)
		}
		t.Segments[i] = Segment{
			Index:      i,
			Start:      boundary(i, n, duration),
			End:        end,
			SourceText: sentence,
		}
	}
	return t, nil
}

// boundary is the i-th of n+1 equally spaced points on [0, d].
func boundary(i, n int, d float64) float64 {
	return float64(i) * d / float64(n)
}

func checkInterval(start, end float64) error {
	switch {
	case math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0):
		return fmt.Errorf("non-finite interval [%v, %v]: %w", start, end, ErrInvalidInterval)
	case start < 0:
		return fmt.Errorf("negative start %v: %w", start, ErrInvalidInterval)
	case end <= start:
		return fmt.Errorf("end %v not after start %v: %w", end, start, ErrInvalidInterval)
	}
	return nil
}
