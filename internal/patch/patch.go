// Package patch implements the per-path change model of a working copy.
//
// A Patch is one path-scoped change produced by comparing two trees. There are
// five variants: New, Delete, Modified, NewFileConflict and MergeConflict. The
// set is closed; callers switch on the concrete type when they need variant
// specific behavior.
//
// Every variant can be applied to a directory under a merging Strategy,
// reverted, transmitted to a remote branch, and rendered as a unified diff.
// Conflict variants additionally implement Conflict and are resolved through
// marker files that live next to the conflicted file, so an unresolved merge
// survives process restarts.
package patch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/remote"
)

// Kind identifies the variant of a Patch.
type Kind int

const (
	KindNew Kind = iota
	KindDelete
	KindModified
	KindNewFileConflict
	KindMergeConflict
)

// Label returns the status label used when listing changes.
func (k Kind) Label() string {
	switch k {
	case KindNew:
		return "new file:"
	case KindDelete:
		return "deleted:"
	case KindModified:
		return "modified:"
	case KindNewFileConflict:
		return "new file conflict:"
	case KindMergeConflict:
		return "merge conflict:"
	default:
		return "unknown:"
	}
}

func (k Kind) String() string {
	return strings.TrimSuffix(k.Label(), ":")
}

// Patch is one path-scoped change.
type Patch interface {
	// Path is the slash separated path relative to the tree root.
	Path() string

	// Kind reports the variant.
	Kind() Kind

	// Apply mutates dir so that it carries this change.
	Apply(fs fsops.FS, dir string, strategy Strategy) ApplyResult

	// Unapply reverses the change in dir using the retained prior content.
	Unapply(fs fsops.FS, dir string) ApplyResult

	// Push transmits the content found under dir for this path to the remote branch.
	Push(ctx context.Context, branch remote.Branch, fs fsops.FS, dir string) error

	// Print renders a unified diff for human display.
	Print(w io.Writer) error

	sealed()
}

// Conflict is a Patch that can only be settled by explicit resolution.
type Conflict interface {
	Patch

	// Resolve settles the conflict in dir under strategy and removes the markers.
	Resolve(fs fsops.FS, dir string, strategy Strategy) ApplyResult
}

// IsConflict reports whether p is one of the conflict variants.
func IsConflict(p Patch) bool {
	switch p.(type) {
	case *NewFileConflict, *MergeConflict:
		return true
	case *New, *Delete, *Modified:
		return false
	default:
		panic(fmt.Sprintf("patch: unknown variant %T", p))
	}
}

// Conflicts filters the conflict variants out of patches.
func Conflicts(patches []Patch) []Conflict {
	var out []Conflict
	for _, p := range patches {
		if c, ok := p.(Conflict); ok {
			out = append(out, c)
		}
	}
	return out
}

// DeletesFirst returns patches with every Delete moved ahead of the other
// variants, keeping relative order otherwise. A file replacing a directory,
// or the reverse, then finds its path free.
func DeletesFirst(patches []Patch) []Patch {
	out := make([]Patch, 0, len(patches))
	for _, p := range patches {
		if _, ok := p.(*Delete); ok {
			out = append(out, p)
		}
	}
	for _, p := range patches {
		if _, ok := p.(*Delete); !ok {
			out = append(out, p)
		}
	}
	return out
}

// ApplyResult is the outcome of applying or reverting one Patch.
type ApplyResult struct {
	Success bool
	Message string
}

// Succeeded builds a successful result with an optional informational message.
func Succeeded(message string) ApplyResult {
	return ApplyResult{Success: true, Message: message}
}

// Failed builds a failed result.
func Failed(format string, args ...any) ApplyResult {
	return ApplyResult{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Err converts a failed result into an error. Successful results yield nil.
func (r ApplyResult) Err() error {
	if r.Success {
		return nil
	}
	return &Failure{Message: r.Message}
}

// Failure is the error form of a failed ApplyResult.
type Failure struct {
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// osPath maps a slash separated relative path below dir to a filesystem path.
func osPath(dir, rel string) string {
	return filepath.Join(dir, filepath.FromSlash(rel))
}

// writeHeader prints the per-file banner that precedes a unified diff.
func writeHeader(w io.Writer, path string) error {
	_, err := fmt.Fprintf(w, "Index: %s\n%s\n", path, strings.Repeat("=", 67))
	return err
}
