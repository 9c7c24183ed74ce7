// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//
// Entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Duration: container duration in seconds, used as the source duration
//     hint when only flat transcript text is available
package ffprobe
