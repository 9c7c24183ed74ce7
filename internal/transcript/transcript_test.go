package transcript

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestSentencesSplitsAndTrims(t *testing.T) {
	text := "  Hello world. How are you?   Fine, thanks!  "
	got := slices.Collect(Sentences(text))
	want := []string{"Hello world.", "How are you?", "Fine, thanks!"}
	if !slices.Equal(got, want) {
		t.Fatalf("Sentences = %q, want %q", got, want)
	}
}

func TestSentencesIsRestartable(t *testing.T) {
	seq := Sentences("One. Two. Three.")
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) || len(first) != 3 {
		t.Fatalf("expected identical passes of 3 sentences, got %q and %q", first, second)
	}
}

func TestSentencesStopsEarly(t *testing.T) {
	count := 0
	for range Sentences("A. B. C. D.") {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("expected to stop after 2, got %d", count)
	}
}

func TestSentencesEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if got := slices.Collect(Sentences(text)); len(got) != 0 {
			t.Fatalf("Sentences(%q) = %q, want none", text, got)
		}
	}
}

func TestBuildUniformPartitionsDuration(t *testing.T) {
	const duration = 10.0
	tr, err := Build(FlatSource("First one. Second one. Third one.", duration))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tr.Mode != ModeUniform {
		t.Fatalf("expected uniform mode, got %v", tr.Mode)
	}
	n := len(tr.Segments)
	if n != 3 {
		t.Fatalf("expected 3 segments, got %d", n)
	}
	for i, seg := range tr.Segments {
		wantStart := float64(i) * duration / float64(n)
		wantEnd := float64(i+1) * duration / float64(n)
		if math.Abs(seg.Start-wantStart) > 1e-9 || math.Abs(seg.End-wantEnd) > 1e-9 {
			t.Fatalf("segment %d = [%v, %v], want [%v, %v]", i, seg.Start, seg.End, wantStart, wantEnd)
		}
		if seg.Index != i {
			t.Fatalf("segment %d has index %d", i, seg.Index)
		}
		if i > 0 && seg.Start != tr.Segments[i-1].End {
			t.Fatalf("gap or overlap between %d and %d", i-1, i)
		}
	}
	if tr.Segments[0].Start != 0 || tr.Segments[n-1].End != duration {
		t.Fatalf("segments do not cover [0, %v]", duration)
	}
}

func TestBuildUniformZeroSentencesIsEmpty(t *testing.T) {
	for _, duration := range []float64{0, 12.5} {
		tr, err := Build(FlatSource("   ", duration))
		if err != nil {
			t.Fatalf("Build with duration %v: %v", duration, err)
		}
		if !tr.Empty() || tr.Mode != ModeUniform {
			t.Fatalf("expected empty uniform transcript, got %+v", tr)
		}
	}
}

func TestBuildUniformRequiresDuration(t *testing.T) {
	for _, duration := range []float64{0, -1, math.NaN()} {
		if _, err := Build(FlatSource("Hello.", duration)); !errors.Is(err, ErrInvalidInterval) {
			t.Fatalf("duration %v: expected ErrInvalidInterval, got %v", duration, err)
		}
	}
}

func TestBuildNativePassesTimestampsThrough(t *testing.T) {
	raw := []RawSegment{
		{Start: 0.0, End: 1.5, Text: " Hello"},
		{Start: 1.5, End: 3.0, Text: "world "},
		{Start: 1.5, End: 3.0, Text: "again"},
	}
	tr, err := Build(NativeSource(raw))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tr.Mode != ModeNative || len(tr.Segments) != 3 {
		t.Fatalf("unexpected transcript %+v", tr)
	}
	for i, seg := range tr.Segments {
		if seg.Start != raw[i].Start || seg.End != raw[i].End || seg.Index != i || seg.SourceText != raw[i].Text {
			t.Fatalf("segment %d altered: %+v", i, seg)
		}
	}
	if tr.Text() != "Hello world again" {
		t.Fatalf("Text() = %q", tr.Text())
	}
}

func TestBuildNativeRejectsBadIntervals(t *testing.T) {
	cases := map[string][]RawSegment{
		"zero length":    {{Start: 2, End: 2, Text: "x"}},
		"reversed":       {{Start: 3, End: 2, Text: "x"}},
		"negative start": {{Start: -0.5, End: 1, Text: "x"}},
		"non monotonic":  {{Start: 5, End: 6, Text: "a"}, {Start: 4, End: 7, Text: "b"}},
		"infinite":       {{Start: 0, End: math.Inf(1), Text: "x"}},
	}
	for name, raw := range cases {
		if _, err := Build(NativeSource(raw)); !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("%s: expected ErrInvalidInterval, got %v", name, err)
		}
	}
}

func TestNativeSourceCopiesInput(t *testing.T) {
	raw := []RawSegment{{Start: 0, End: 1, Text: "a"}}
	src := NativeSource(raw)
	raw[0].End = -1
	if _, err := Build(src); err != nil {
		t.Fatalf("mutating caller slice changed source: %v", err)
	}
}

func TestSelect(t *testing.T) {
	segments := []RawSegment{{Start: 0, End: 2, Text: "Hello."}, {Start: 2, End: 4, Text: "Bye."}}

	if src := Select(SyncSegment, segments, "", 0); src.Mode() != ModeNative {
		t.Fatalf("segment mode with segments should be native, got %v", src.Mode())
	}
	if src := Select(SyncSegment, nil, "Hello.", 3); src.Mode() != ModeUniform {
		t.Fatalf("missing segments should force uniform, got %v", src.Mode())
	}

	src := Select(SyncUniform, segments, "", 0)
	if src.Mode() != ModeUniform {
		t.Fatalf("uniform mode should re-slice, got %v", src.Mode())
	}
	tr, err := Build(src)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tr.Segments) != 2 || tr.Segments[1].End != 4 {
		t.Fatalf("expected text and duration derived from segments, got %+v", tr.Segments)
	}
}

func TestApplyTranslations(t *testing.T) {
	tr, err := Build(NativeSource([]RawSegment{{Start: 0, End: 1, Text: "Hello"}, {Start: 1, End: 2, Text: "world"}}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := tr.ApplyTranslations([]string{"Ciao"}); err == nil {
		t.Fatal("expected length mismatch error")
	}
	if err := tr.ApplyTranslations([]string{"Ciao", "mondo"}); err != nil {
		t.Fatalf("ApplyTranslations: %v", err)
	}
	if !tr.Segments[1].Translated || tr.Segments[1].TranslatedText != "mondo" {
		t.Fatalf("unexpected segment %+v", tr.Segments[1])
	}
	if got := tr.TranslatedText(); got != "Ciao\nmondo\n" {
		t.Fatalf("TranslatedText() = %q", got)
	}
	if units := tr.Units(); !slices.Equal(units, []string{"Hello", "world"}) {
		t.Fatalf("Units() = %q", units)
	}
}
