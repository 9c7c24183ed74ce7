package subtitles

import (
	"fmt"
	"math"
	"strings"
)

// durationToleranceSeconds is how far the last cue may end from the video end
// before Validate reports a mismatch.
const durationToleranceSeconds = 8.0

// Validate checks SubRip content for format issues.
// Returns a list of issues found; empty slice means validation passed.
func Validate(content string, videoSeconds float64) []string {
	var issues []string
	if strings.TrimSpace(content) == "" {
		return append(issues, "empty_subtitle_file")
	}
	entries, err := Parse(strings.NewReader(content))
	if err != nil {
		return append(issues, fmt.Sprintf("timestamp_parse_error: %v", err))
	}
	if len(entries) == 0 {
		return append(issues, "no_cues")
	}

	var previousEnd float64
	for i, entry := range entries {
		if entry.Ordinal != i+1 {
			issues = append(issues, fmt.Sprintf("non_contiguous_ordinal: cue %d numbered %d", i+1, entry.Ordinal))
		}
		if err := checkInterval(entry.Start, entry.End); err != nil {
			issues = append(issues, fmt.Sprintf("invalid_interval: cue %d", entry.Ordinal))
		}
		if entry.Start < previousEnd {
			issues = append(issues, fmt.Sprintf("overlapping_cue: cue %d starts before previous cue ends", entry.Ordinal))
		}
		if entry.Text == "" {
			issues = append(issues, fmt.Sprintf("empty_cue: cue %d", entry.Ordinal))
		}
		previousEnd = entry.End
	}

	if videoSeconds > 0 {
		delta := videoSeconds - entries[len(entries)-1].End
		if math.Abs(delta) > durationToleranceSeconds {
			issues = append(issues, fmt.Sprintf("duration_mismatch: delta=%.1fs", delta))
		}
	}
	return issues
}
