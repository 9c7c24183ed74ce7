// Package timecode formats and parses SubRip timestamps.
//
// Timestamps are rendered as HH:MM:SS,mmm with the millisecond component
// truncated rather than rounded, so a formatted end time can never sort before
// the formatted start time of the same interval.
package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNegative reports a negative timestamp, which no segment may carry.
	ErrNegative = errors.New("negative timestamp")
	// ErrNotFinite reports NaN or infinite input.
	ErrNotFinite = errors.New("timestamp is not finite")
)

// truncationGuard absorbs binary float noise such as 2.3*1000 == 2299.999...
// It is far below one millisecond and preserves ordering.
const truncationGuard = 1e-6

// Milliseconds converts seconds to whole milliseconds, truncating.
func Milliseconds(seconds float64) (int64, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, fmt.Errorf("timecode %v: %w", seconds, ErrNotFinite)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("timecode %v: %w", seconds, ErrNegative)
	}
	return int64(math.Floor(seconds*1000 + truncationGuard)), nil
}

// Format renders seconds as an SRT timestamp. Hours are not capped.
func Format(seconds float64) (string, error) {
	total, err := Milliseconds(seconds)
	if err != nil {
		return "", err
	}
	ms := total % 1000
	total /= 1000
	hours := total / 3600
	total %= 3600
	minutes := total / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, ms), nil
}

// Parse reads an SRT timestamp back into seconds. A period millisecond
// separator is accepted as well.
func Parse(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
