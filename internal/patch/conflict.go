package patch

import (
	"context"
	"fmt"
	"io"

	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/remote"
)

// NewFileConflict is a path that was added on both sides with different content.
type NewFileConflict struct {
	path   string
	theirs []byte
	ours   []byte
}

func (c *NewFileConflict) sealed() {}

func (c *NewFileConflict) Path() string { return c.path }

func (c *NewFileConflict) Kind() Kind { return KindNewFileConflict }

// Theirs returns the incoming content.
func (c *NewFileConflict) Theirs() []byte { return c.theirs }

// Ours returns the local content.
func (c *NewFileConflict) Ours() []byte { return c.ours }

func (c *NewFileConflict) Apply(fsops.FS, string, Strategy) ApplyResult {
	return Failed("%s: conflicts cannot be applied, resolve them first", c.path)
}

func (c *NewFileConflict) Unapply(fsops.FS, string) ApplyResult {
	return Failed("%s: conflicts cannot be reverted, resolve them first", c.path)
}

func (c *NewFileConflict) Push(context.Context, remote.Branch, fsops.FS, string) error {
	return fmt.Errorf("%s: %w", c.path, ErrUnresolvedConflict)
}

func (c *NewFileConflict) Resolve(fs fsops.FS, dir string, strategy Strategy) ApplyResult {
	return resolve(fs, dir, c.path, c.theirs, strategy)
}

func (c *NewFileConflict) Print(w io.Writer) error {
	return printConflict(w, c.path, c.ours, c.theirs)
}

// MergeConflict is a path modified on both sides where the incoming change
// could not be merged into the local edits.
type MergeConflict struct {
	path     string
	original []byte
	theirs   []byte
	ours     []byte
}

func (c *MergeConflict) sealed() {}

func (c *MergeConflict) Path() string { return c.path }

func (c *MergeConflict) Kind() Kind { return KindMergeConflict }

// Original returns the local content recorded when the merge failed.
func (c *MergeConflict) Original() []byte { return c.original }

// Theirs returns the incoming content.
func (c *MergeConflict) Theirs() []byte { return c.theirs }

// Ours returns the current local content.
func (c *MergeConflict) Ours() []byte { return c.ours }

func (c *MergeConflict) Apply(fsops.FS, string, Strategy) ApplyResult {
	return Failed("%s: merge conflicts cannot be applied, resolve them first", c.path)
}

func (c *MergeConflict) Unapply(fsops.FS, string) ApplyResult {
	return Failed("%s: merge conflicts cannot be reverted, resolve them first", c.path)
}

func (c *MergeConflict) Push(context.Context, remote.Branch, fsops.FS, string) error {
	return fmt.Errorf("%s: %w", c.path, ErrUnresolvedConflict)
}

func (c *MergeConflict) Resolve(fs fsops.FS, dir string, strategy Strategy) ApplyResult {
	return resolve(fs, dir, c.path, c.theirs, strategy)
}

func (c *MergeConflict) Print(w io.Writer) error {
	return printConflict(w, c.path, c.ours, c.theirs)
}

func resolve(fs fsops.FS, dir, path string, theirs []byte, strategy Strategy) ApplyResult {
	switch strategy {
	case KeepOurs:
	case KeepTheirs:
		if err := fs.AtomicWrite(osPath(dir, path), theirs, 0644); err != nil {
			return Failed("%v", ioErr(path, err))
		}
	default:
		return Failed("%s: strategy %s cannot resolve a conflict, use %s or %s", path, strategy, KeepOurs, KeepTheirs)
	}
	if err := MarkResolved(fs, dir, path); err != nil {
		return Failed("%v", err)
	}
	return Succeeded("")
}

// printConflict renders the local content against the incoming one.
func printConflict(w io.Writer, path string, ours, theirs []byte) error {
	if err := writeHeader(w, path); err != nil {
		return err
	}
	d := diffLines(splitLines(ours), splitLines(theirs))
	return d.writeUnified(w, path+" (ours)", path+" (theirs)")
}
