// Package whisperx turns a media file into timed transcript segments.
//
// Audio is extracted with ffmpeg as mono 16 kHz PCM, optionally denoised
// with the afftdn filter, and transcribed by WhisperX run through uvx. The
// JSON output is read back as transcript.RawSegment values plus the language
// WhisperX reported.
package whisperx
