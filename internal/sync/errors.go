package sync

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

var (
	// ErrNotInitialized is returned when the working tree has no branch binding.
	ErrNotInitialized = errors.New("not an apivcs working tree (run 'apivcs clone' or 'apivcs create' first)")

	// ErrAlreadyInitialized is returned when cloning or creating into a bound working tree.
	ErrAlreadyInitialized = errors.New("working tree is already initialized")

	// ErrUnresolvedConflicts is returned when pulling or pushing with conflicts present.
	ErrUnresolvedConflicts = errors.New("unresolved conflicts, resolve them before syncing")

	// ErrNoConflict is returned when resolving a path that has no conflict.
	ErrNoConflict = errors.New("no conflict recorded for path")
)

// LockError reports that the branch lock is held by someone else.
type LockError struct {
	Owner     string
	ProjectID string
	Branch    string
}

func (e *LockError) Error() string {
	return fmt.Sprintf("branch %s of project %s is locked by %s", e.Branch, e.ProjectID, e.Owner)
}

// RemoteError wraps a failing gateway or directory call.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// ApplyError aggregates the per-file failures of a multi-file operation.
// Files that did not fail were changed regardless.
type ApplyError struct {
	Op  string
	Err error
}

func (e *ApplyError) Error() string {
	failures := multierr.Errors(e.Err)
	lines := make([]string, 0, len(failures)+1)
	lines = append(lines, fmt.Sprintf("%s failed for %d file(s):", e.Op, len(failures)))
	for _, err := range failures {
		lines = append(lines, "  "+err.Error())
	}
	return strings.Join(lines, "\n")
}

// Unwrap returns every individual failure.
func (e *ApplyError) Unwrap() []error {
	return multierr.Errors(e.Err)
}

// conflictError lists the conflicted paths.
func conflictError(paths []string) error {
	return fmt.Errorf("%w: %s", ErrUnresolvedConflicts, strings.Join(paths, ", "))
}
