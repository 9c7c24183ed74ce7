package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gnurante/internal/staging"
)

const defaultStaleAge = 24 * time.Hour

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage run work directories",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List run work directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := cfg.Paths.WorkDir

			dirs, err := staging.ListDirectories(root)
			if err != nil {
				return fmt.Errorf("list work directories: %w", err)
			}
			var totalSize int64
			for _, dir := range dirs {
				totalSize += dir.Size
			}

			if ctx.JSONMode() {
				if dirs == nil {
					dirs = []staging.DirInfo{}
				}
				return writeJSON(cmd, map[string]any{
					"work_dir":         root,
					"directories":      dirs,
					"total_size_bytes": totalSize,
				})
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No work directories found")
				return nil
			}
			fmt.Fprintf(out, "Work directory: %s\n\n", root)

			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				state := "idle"
				if dir.Locked {
					state = "running"
				}
				rows = append(rows, []string{
					dir.Name,
					formatAge(time.Since(dir.ModTime)),
					humanize.Bytes(uint64(dir.Size)),
					state,
				})
			}
			fmt.Fprint(out, renderTable(out,
				[]string{"Run", "Age", "Size", "State"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), humanize.Bytes(uint64(totalSize)))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale run work directories",
		Long: `Remove work directories left behind by interrupted or --keep-work runs.

By default only directories older than --max-age are removed. Directories
locked by a run that is still in progress are always skipped.

Use --all to remove every unlocked directory regardless of age.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			age := maxAge
			if cleanAll {
				age = 0
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.WorkDir, age, logger)
			if ctx.JSONMode() {
				errs := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
				}
				return writeJSON(cmd, map[string]any{
					"removed": len(result.Removed),
					"skipped": len(result.Skipped),
					"errors":  errs,
				})
			}
			printStagingCleanResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all unlocked work directories")
	cmd.Flags().DurationVar(&maxAge, "max-age", defaultStaleAge, "Remove directories older than this")

	return cmd
}

func printStagingCleanResult(cmd *cobra.Command, result staging.CleanStaleResult) {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintln(out, "No work directories to clean")
	} else {
		fmt.Fprintf(out, "Removed %d work directories\n", len(result.Removed))
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped %d directories in use\n", len(result.Skipped))
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
	}
}

func formatAge(d time.Duration) string {
	d = d.Truncate(time.Minute)
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
