package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gnurante/internal/deps"
	"gnurante/internal/preflight"
	"gnurante/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var skipBackend bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories and the translation backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := preflight.CheckSystemDeps(cfg)
			var checks []preflight.Result
			if skipBackend {
				checks = []preflight.Result{
					preflight.CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
					preflight.CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
				}
			} else {
				checks = preflight.RunAll(cmd.Context(), cfg)
			}

			failures := deps.CountBlocking(statuses)
			for _, check := range checks {
				if !check.Passed {
					failures++
				}
			}

			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{
					"dependencies": statuses,
					"checks":       checks,
					"failures":     failures,
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				rows := make([][]string, 0, len(statuses)+len(checks))
				for _, status := range statuses {
					detail := status.Path
					if !status.Available {
						detail = status.Detail
					}
					rows = append(rows, []string{checkMark(out, status.Available, status.Optional), status.Name, detail})
				}
				for _, check := range checks {
					rows = append(rows, []string{checkMark(out, check.Passed, false), check.Name, check.Detail})
				}
				fmt.Fprint(out, renderTable(out, []string{"Status", "Check", "Detail"}, rows, nil))
			}

			if failures > 0 {
				return services.Wrap(services.ErrExternalTool, "doctor", "", fmt.Sprintf("%d checks failed", failures), nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipBackend, "offline", false, "Skip the translation backend and cache checks")
	return cmd
}
