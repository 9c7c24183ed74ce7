// Package transcript turns recognizer output into a timed Transcript.
//
// A Source is a tagged variant: ModeNative carries recognizer segments whose
// timestamps pass through unchanged, ModeUniform carries flat text plus the
// media duration and is re-sliced into sentences of equal length. Build is the
// only constructor for Transcript, so every Segment leaving this package has a
// validated interval.
package transcript
