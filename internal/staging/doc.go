// Package staging manages per-run work directories under paths.work_dir.
//
// A workspace is locked with an flock on its .lock file for as long as a run
// uses it, so "staging clean" never removes a directory that is in use.
package staging
