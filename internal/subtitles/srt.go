package subtitles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gnurante/internal/timecode"
)

// ErrMalformedSRT reports input that is not SubRip.
var ErrMalformedSRT = errors.New("malformed srt")

// Render returns the SubRip text for entries.
func Render(entries []Entry) (string, error) {
	var b strings.Builder
	if err := WriteSRT(&b, entries); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WriteSRT validates entries and writes them to w. Ordinals must run 1..M
// and every cue needs non-blank text.
func WriteSRT(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for i, entry := range entries {
		if entry.Ordinal != i+1 {
			return fmt.Errorf("render cue %d: ordinal %d breaks 1..%d numbering", i, entry.Ordinal, len(entries))
		}
		if err := checkInterval(entry.Start, entry.End); err != nil {
			return fmt.Errorf("render cue %d: %w", entry.Ordinal, err)
		}
		text := normalizeText(entry.Text)
		if text == "" {
			return fmt.Errorf("render cue %d: %w", entry.Ordinal, ErrEmptyCue)
		}
		start, err := timecode.Format(entry.Start)
		if err != nil {
			return fmt.Errorf("render cue %d: %w", entry.Ordinal, err)
		}
		end, err := timecode.Format(entry.End)
		if err != nil {
			return fmt.Errorf("render cue %d: %w", entry.Ordinal, err)
		}
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", entry.Ordinal, start, end, text); err != nil {
			return fmt.Errorf("write srt: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// Parse reads SubRip cues. Missing ordinals are tolerated and cues keep the
// numbering found in the file. Position hints after the end timestamp are
// ignored.
func Parse(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimPrefix(string(data), "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var entries []Entry
	for blockIdx, block := range splitBlocks(content) {
		entry, err := parseBlock(block, len(entries)+1)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %w", ErrMalformedSRT, blockIdx+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func splitBlocks(content string) [][]string {
	var blocks [][]string
	var current []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, strings.TrimRight(line, " \t"))
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func parseBlock(lines []string, fallbackOrdinal int) (Entry, error) {
	entry := Entry{Ordinal: fallbackOrdinal}
	if !strings.Contains(lines[0], "-->") {
		ordinal, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return Entry{}, fmt.Errorf("invalid ordinal %q", lines[0])
		}
		entry.Ordinal = ordinal
		lines = lines[1:]
	}
	if len(lines) == 0 || !strings.Contains(lines[0], "-->") {
		return Entry{}, errors.New("missing timing line")
	}
	startText, endText, _ := strings.Cut(lines[0], "-->")
	endFields := strings.Fields(endText)
	if len(endFields) == 0 {
		return Entry{}, fmt.Errorf("missing end timestamp in %q", lines[0])
	}
	start, err := timecode.Parse(startText)
	if err != nil {
		return Entry{}, err
	}
	end, err := timecode.Parse(endFields[0])
	if err != nil {
		return Entry{}, err
	}
	entry.Start = start
	entry.End = end
	entry.Text = normalizeText(strings.Join(lines[1:], "\n"))
	return entry, nil
}
