package patch

import (
	"context"
	"io"
	"os"
	"slices"

	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/remote"
)

// Modified changes the content of a file present on both sides. It keeps the
// baseline content and the line diff from baseline to revised.
type Modified struct {
	path     string
	original []byte
	diff     *lineDiff
}

// ModifyFile compares original and revised content of path. It returns false
// when the two are equal line by line.
func ModifyFile(path string, original, revised []byte) (*Modified, bool) {
	d := diffLines(splitLines(original), splitLines(revised))
	if d.empty() {
		return nil, false
	}
	return &Modified{path: path, original: original, diff: d}, true
}

func (p *Modified) sealed() {}

func (p *Modified) Path() string { return p.path }

func (p *Modified) Kind() Kind { return KindModified }

// Original returns the baseline content.
func (p *Modified) Original() []byte { return p.original }

// Revised returns the revised content, reconstructed from the baseline.
func (p *Modified) Revised() []byte {
	return joinLines(p.diff.b)
}

// Stats returns the number of added and deleted lines.
func (p *Modified) Stats() (additions, deletions int) { return p.diff.stats() }

// Apply replays the line diff on the file under dir. A file that already
// carries the revised lines is left as is. When the file has
// diverged so that a hunk no longer matches, strategy decides what is written:
// KeepTheirs overwrites the file with the revised content, KeepBoth leaves
// the file alone and records the revised and local content in conflict
// markers, KeepOurs leaves everything untouched. All three report failure.
func (p *Modified) Apply(fs fsops.FS, dir string, strategy Strategy) ApplyResult {
	target := osPath(dir, p.path)

	current, err := fs.ReadFile(target)
	missing := os.IsNotExist(err)
	if err != nil && !missing {
		return Failed("%v", ioErr(p.path, err))
	}

	var applyErr error
	if !missing {
		lines := splitLines(current)
		if slices.Equal(lines, p.diff.b) {
			return Succeeded("")
		}
		patched, err := p.diff.applyTo(lines)
		if err == nil {
			if err := fs.AtomicWrite(target, joinLines(patched), 0644); err != nil {
				return Failed("%v", ioErr(p.path, err))
			}
			return Succeeded("")
		}
		applyErr = err
	} else {
		applyErr = ErrPatchFailed
	}

	theirs, err := p.diff.applyTo(p.diff.a)
	if err != nil {
		return Failed("%v", ioErr(p.path, err))
	}

	switch strategy {
	case KeepTheirs:
		if err := fs.AtomicWrite(target, joinLines(theirs), 0644); err != nil {
			return Failed("%v", ioErr(p.path, err))
		}
	case KeepBoth:
		var original []byte
		if !missing {
			original = current
		}
		if err := newMarkers(fs, dir, p.path).write(joinLines(theirs), original); err != nil {
			return Failed("%v", ioErr(p.path, err))
		}
	}
	return Failed("%s: %v; resolved with strategy %s", p.path, applyErr, strategy)
}

// Unapply restores the baseline content.
func (p *Modified) Unapply(fs fsops.FS, dir string) ApplyResult {
	if err := fs.AtomicWrite(osPath(dir, p.path), p.original, 0644); err != nil {
		return Failed("%v", ioErr(p.path, err))
	}
	return Succeeded("")
}

// Push uploads the file found under dir.
func (p *Modified) Push(ctx context.Context, branch remote.Branch, fs fsops.FS, dir string) error {
	content, err := fs.ReadFile(osPath(dir, p.path))
	if err != nil {
		return ioErr(p.path, err)
	}
	return branch.UpdateFile(ctx, p.path, content, remote.MimeType(p.path))
}

// Print renders the line diff.
func (p *Modified) Print(w io.Writer) error {
	if err := writeHeader(w, p.path); err != nil {
		return err
	}
	return p.diff.writeUnified(w, p.path, p.path)
}
