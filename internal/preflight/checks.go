package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"gnurante/internal/config"
	"gnurante/internal/deps"
	"gnurante/internal/transcache"
	"gnurante/internal/translate"
)

const backendCheckTimeout = 30 * time.Second

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckBackend verifies that the translation backend answers. Backends
// without a health probe pass with a note. It makes a single attempt.
func CheckBackend(ctx context.Context, backend translate.Backend) Result {
	if backend == nil {
		return Result{Name: "Translation backend", Detail: "not configured"}
	}
	name := backendLabel(backend.Name())
	checker, ok := backend.(healthChecker)
	if !ok {
		return Result{Name: name, Passed: true, Detail: "no health probe available"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, backendCheckTimeout)
	defer cancel()

	if err := checker.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeBackendError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckCache opens the translation cache and reports its size.
func CheckCache(ctx context.Context, path string) Result {
	const name = "Translation cache"

	store, err := transcache.Open(ctx, path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries, %d hits)", path, stats.Entries, stats.Hits)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries a full run shells out to.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.Toolchain(cfg.FFmpegBinary(), cfg.YtDLPBinary())
}

func backendLabel(name string) string {
	return fmt.Sprintf("Translation backend (%s)", name)
}

// summarizeBackendError produces a human-readable summary for health check failures.
func summarizeBackendError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
