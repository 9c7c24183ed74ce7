// Package main hosts the gnurante CLI entrypoint and command graph.
//
// The Cobra command tree covers the full video workflow (run), the
// transcript-to-SRT core (translate), the HTTP service (serve) and the
// maintenance commands for configuration, work directories and environment
// checks. Configuration resolution and logger setup live in the shared
// command context so subcommands only deal with their own flags.
//
// New behavior belongs in the internal packages first; commands here should
// stay thin adapters over them.
package main
