// Package subtitles turns a translated transcript into SubRip text and hands
// it to ffmpeg.
//
// Assemble maps each translated segment onto its interval and renumbers the
// surviving cues 1..M. Render writes every cue as
//
//	ordinal
//	HH:MM:SS,mmm --> HH:MM:SS,mmm
//	text
//	<blank line>
//
// so the file always ends with one blank line. Zero-length intervals, before
// or after millisecond truncation, are rejected rather than rendered.
//
// Muxer burns the subtitles into the video stream or attaches them as a
// mov_text track, writing to a temporary file that is renamed on success.
package subtitles
