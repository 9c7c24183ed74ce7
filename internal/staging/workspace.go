package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const lockFile = ".lock"

// ErrBusy reports a workspace locked by another process.
var ErrBusy = errors.New("workspace in use")

// Workspace is a locked run directory.
type Workspace struct {
	ID   string
	Dir  string
	lock *flock.Flock
}

// Open creates root/id and locks it. An empty id gets a fresh UUID.
func Open(root, id string) (*Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("staging root required")
	}
	if id = strings.TrimSpace(id); id == "" {
		id = uuid.NewString()
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("invalid workspace id %q", id)
	}
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	lock := flock.New(filepath.Join(dir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock workspace: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBusy, dir)
	}
	return &Workspace{ID: id, Dir: dir, lock: lock}, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Release unlocks the workspace and leaves its files in place.
func (w *Workspace) Release() error {
	if w == nil || w.lock == nil {
		return nil
	}
	err := w.lock.Unlock()
	_ = os.Remove(w.lock.Path())
	w.lock = nil
	return err
}

// Remove unlocks the workspace and deletes the directory.
func (w *Workspace) Remove() error {
	if w == nil {
		return nil
	}
	releaseErr := w.Release()
	if err := os.RemoveAll(w.Dir); err != nil {
		return err
	}
	return releaseErr
}

// RemoveFiles deletes the named files inside the workspace, ignoring ones
// that do not exist.
func (w *Workspace) RemoveFiles(names ...string) error {
	var errs []error
	for _, name := range names {
		if err := os.Remove(w.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// inUse reports whether another holder has dir locked.
func inUse(dir string) bool {
	path := filepath.Join(dir, lockFile)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	probe := flock.New(path)
	ok, err := probe.TryLock()
	if err != nil || !ok {
		return true
	}
	_ = probe.Unlock()
	return false
}
