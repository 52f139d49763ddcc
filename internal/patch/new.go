package patch

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/remote"
)

// New adds a file that the baseline does not have.
type New struct {
	path    string
	content []byte
	diff    *lineDiff
}

// NewFile builds a New patch for path carrying content.
func NewFile(path string, content []byte) *New {
	return &New{
		path:    path,
		content: content,
		diff:    diffLines(nil, splitLines(content)),
	}
}

func (p *New) sealed() {}

func (p *New) Path() string { return p.path }

func (p *New) Kind() Kind { return KindNew }

// Content returns the content the file is created with.
func (p *New) Content() []byte { return p.content }

// Stats returns the number of added and deleted lines.
func (p *New) Stats() (additions, deletions int) { return p.diff.stats() }

// Apply creates the file. An existing file with different content is a
// collision that is settled by strategy and always reported as a failure.
func (p *New) Apply(fs fsops.FS, dir string, strategy Strategy) ApplyResult {
	target := osPath(dir, p.path)

	existing, err := fs.ReadFile(target)
	switch {
	case os.IsNotExist(err):
		if err := fs.AtomicWrite(target, p.content, 0644); err != nil {
			return Failed("%v", ioErr(p.path, err))
		}
		return Succeeded("")
	case err != nil:
		return Failed("%v", ioErr(p.path, err))
	}

	if bytes.Equal(existing, p.content) {
		return Succeeded("")
	}

	switch strategy {
	case KeepBoth:
		if err := newMarkers(fs, dir, p.path).write(p.content, nil); err != nil {
			return Failed("%v", ioErr(p.path, err))
		}
		return Failed("%s already exists locally; incoming version written to %s (strategy %s)",
			p.path, p.path+TheirsSuffix, strategy)
	case KeepTheirs:
		if err := fs.AtomicWrite(target, p.content, 0644); err != nil {
			return Failed("%v", ioErr(p.path, err))
		}
		return Failed("%s already exists locally; replaced with incoming version (strategy %s)", p.path, strategy)
	default:
		return Failed("%s already exists locally; local version kept (strategy %s)", p.path, strategy)
	}
}

// Unapply deletes the created file.
func (p *New) Unapply(fs fsops.FS, dir string) ApplyResult {
	target := osPath(dir, p.path)
	if err := fs.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return Succeeded(p.path + " already absent")
		}
		return Failed("%v", ioErr(p.path, err))
	}
	return Succeeded("")
}

// Push uploads the file found under dir as a new remote file.
func (p *New) Push(ctx context.Context, branch remote.Branch, fs fsops.FS, dir string) error {
	content, err := fs.ReadFile(osPath(dir, p.path))
	if err != nil {
		return ioErr(p.path, err)
	}
	return branch.NewFile(ctx, p.path, content, remote.MimeType(p.path))
}

// Print renders the whole file as added lines.
func (p *New) Print(w io.Writer) error {
	if err := writeHeader(w, p.path); err != nil {
		return err
	}
	return p.diff.writeUnified(w, p.path, p.path)
}
