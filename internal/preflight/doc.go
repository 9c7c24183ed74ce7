// Package preflight provides readiness checks for the directories, external
// tools and translation backend that gnurante depends on.
//
// The "gnurante doctor" command renders every result as a table. The "run"
// command calls RunAll before downloading anything so that a missing API key
// or an unwritable work directory fails in seconds rather than after a long
// transcription.
package preflight
