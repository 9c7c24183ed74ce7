// Package pipeline sequences the subtitle stages for one run.
//
// A run moves strictly through
//
//	Idle -> LanguageDetected -> Translated -> Assembled -> Done
//
// and any step error ends it in Failed. The step for each state lives in a
// map keyed by the state it produces, so each stage can be replaced in tests.
// On failure the orchestrator deletes the artifacts it wrote in the run work
// directory (transcript.txt, translation.txt, subtitles.srt) and returns a
// *Failure naming the stage. Files produced by collaborators such as the
// downloader or the recognizer are left alone.
//
// Per-unit translation failures are tallied by the translate engine; Policy
// decides whether they are substituted with the source text or fatal.
package pipeline
