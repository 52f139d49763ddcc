package patch

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/remote"
)

// Delete removes a file the baseline has. The removed content is retained so
// the deletion can be reverted byte for byte.
type Delete struct {
	path     string
	original []byte
	diff     *lineDiff
}

// DeleteFile builds a Delete patch for path whose baseline content was original.
func DeleteFile(path string, original []byte) *Delete {
	return &Delete{
		path:     path,
		original: original,
		diff:     diffLines(splitLines(original), nil),
	}
}

func (p *Delete) sealed() {}

func (p *Delete) Path() string { return p.path }

func (p *Delete) Kind() Kind { return KindDelete }

// Original returns the content of the file before deletion.
func (p *Delete) Original() []byte { return p.original }

// Stats returns the number of added and deleted lines.
func (p *Delete) Stats() (additions, deletions int) { return p.diff.stats() }

// Apply removes the file along with the directories it leaves empty. A file
// that is already gone is not an error.
func (p *Delete) Apply(fs fsops.FS, dir string, _ Strategy) ApplyResult {
	target := osPath(dir, p.path)
	if err := fs.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return Succeeded(p.path + " was already deleted")
		}
		return Failed("%v", ioErr(p.path, err))
	}
	if err := fsops.RemoveEmptyParents(fs, filepath.Dir(target), dir); err != nil {
		return Failed("%v", ioErr(p.path, err))
	}
	return Succeeded("")
}

// Unapply restores the original content.
func (p *Delete) Unapply(fs fsops.FS, dir string) ApplyResult {
	if err := fs.AtomicWrite(osPath(dir, p.path), p.original, 0644); err != nil {
		return Failed("%v", ioErr(p.path, err))
	}
	return Succeeded("")
}

// Push deletes the remote file.
func (p *Delete) Push(ctx context.Context, branch remote.Branch, _ fsops.FS, _ string) error {
	return branch.Delete(ctx, p.path)
}

// Print renders the whole file as removed lines.
func (p *Delete) Print(w io.Writer) error {
	if err := writeHeader(w, p.path); err != nil {
		return err
	}
	return p.diff.writeUnified(w, p.path, p.path)
}
