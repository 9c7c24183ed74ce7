package preflight

import (
	"context"

	"gnurante/internal/app"
	"gnurante/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory, backend and cache checks for cfg.
// Binary checks are reported separately by CheckSystemDeps.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
	}

	backend, err := app.NewBackend(cfg)
	if err != nil {
		results = append(results, Result{Name: backendLabel(cfg.Translation.Backend), Detail: err.Error()})
	} else {
		results = append(results, CheckBackend(ctx, backend))
	}

	if cfg.Translation.CacheEnabled {
		results = append(results, CheckCache(ctx, cfg.Translation.CachePath))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
