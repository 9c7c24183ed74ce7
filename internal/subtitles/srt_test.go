package subtitles

import (
	"errors"
	"strings"
	"testing"

	"gnurante/internal/transcript"
)

func TestRenderHelloWorld(t *testing.T) {
	tr := &transcript.Transcript{Segments: []transcript.Segment{
		{Index: 0, Start: 0.0, End: 1.5, SourceText: "Hello", TranslatedText: "Ciao", Translated: true},
		{Index: 1, Start: 1.5, End: 3.0, SourceText: "world", TranslatedText: "mondo", Translated: true},
	}}
	entries, err := Assemble(tr, AssembleOptions{DropEmpty: true})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	got, err := Render(entries)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:01,500\nCiao\n\n2\n00:00:01,500 --> 00:00:03,000\nmondo\n\n"
	if got != want {
		t.Fatalf("Render =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderRejectsBrokenEntries(t *testing.T) {
	if _, err := Render([]Entry{{Ordinal: 1, Start: 2, End: 2, Text: "x"}}); !errors.Is(err, transcript.ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := Render([]Entry{{Ordinal: 1, Start: 0, End: 1, Text: "a"}, {Ordinal: 3, Start: 1, End: 2, Text: "b"}}); err == nil {
		t.Fatal("expected error for ordinal gap")
	}
	for _, text := range []string{"", " \n\t "} {
		if _, err := Render([]Entry{{Ordinal: 1, Start: 0, End: 1, Text: text}}); !errors.Is(err, ErrEmptyCue) {
			t.Fatalf("text %q: expected ErrEmptyCue, got %v", text, err)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	got, err := Render(nil)
	if err != nil || got != "" {
		t.Fatalf("Render(nil) = %q, %v", got, err)
	}
}

func TestParseRoundTrip(t *testing.T) {
	entries := []Entry{
		{Ordinal: 1, Start: 0, End: 1.25, Text: "prima riga\nseconda riga"},
		{Ordinal: 2, Start: 61.5, End: 63.75, Text: "dopo"},
	}
	rendered, err := Render(entries)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	parsed, err := Parse(strings.NewReader(rendered))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(parsed))
	}
	for i := range entries {
		if parsed[i] != entries[i] {
			t.Fatalf("entry %d = %+v, want %+v", i, parsed[i], entries[i])
		}
	}
}

func TestParseToleratesWindowsFiles(t *testing.T) {
	input := "\ufeff1\r\n00:00:01,000 --> 00:00:02,000 X1:100 X2:200\r\nCiao\r\n\r\n\r\n00:00:03.000 --> 00:00:04.000\r\nmondo\r\n"
	parsed, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 entries, got %+v", parsed)
	}
	if parsed[0].Text != "Ciao" || parsed[0].End != 2 {
		t.Fatalf("unexpected first entry %+v", parsed[0])
	}
	if parsed[1].Ordinal != 2 || parsed[1].Start != 3 {
		t.Fatalf("missing ordinal should fall back to position: %+v", parsed[1])
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, input := range []string{"hello\nworld\n", "1\n00:00:01,000 --> nope\ntext\n", "x\n00:00:01,000 --> 00:00:02,000\n"} {
		if _, err := Parse(strings.NewReader(input)); !errors.Is(err, ErrMalformedSRT) {
			t.Fatalf("Parse(%q) expected ErrMalformedSRT, got %v", input, err)
		}
	}
}

func TestValidate(t *testing.T) {
	good := "1\n00:00:00,000 --> 00:00:01,500\nCiao\n\n2\n00:00:01,500 --> 00:00:03,000\nmondo\n\n"
	if issues := Validate(good, 3.0); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}

	tests := []struct {
		name    string
		content string
		video   float64
		prefix  string
	}{
		{"empty", "  \n", 0, "empty_subtitle_file"},
		{"bad timestamp", "1\n00:00:xx,000 --> 00:00:01,000\nx\n", 0, "timestamp_parse_error"},
		{"gap", "1\n00:00:00,000 --> 00:00:01,000\na\n\n3\n00:00:01,000 --> 00:00:02,000\nb\n", 0, "non_contiguous_ordinal"},
		{"zero length", "1\n00:00:01,000 --> 00:00:01,000\na\n", 0, "invalid_interval"},
		{"overlap", "1\n00:00:00,000 --> 00:00:02,000\na\n\n2\n00:00:01,000 --> 00:00:03,000\nb\n", 0, "overlapping_cue"},
		{"duration", good, 120, "duration_mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(tt.content, tt.video)
			found := false
			for _, issue := range issues {
				if strings.HasPrefix(issue, tt.prefix) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected issue %q, got %v", tt.prefix, issues)
			}
		})
	}
}
