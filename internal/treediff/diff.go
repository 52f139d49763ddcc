package treediff

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/patch"
)

// Diff is the result of comparing two trees.
type Diff struct {
	// Patches holds at most one patch per path, in traversal order.
	Patches []patch.Patch
}

// Empty reports whether the trees are equal.
func (d *Diff) Empty() bool {
	return len(d.Patches) == 0
}

// HasConflicts reports whether any patch is a conflict.
func (d *Diff) HasConflicts() bool {
	return len(d.Conflicts()) > 0
}

// Conflicts returns the conflict patches.
func (d *Diff) Conflicts() []patch.Conflict {
	return patch.Conflicts(d.Patches)
}

// ForPath returns the patches whose path is rel or lies below rel.
func (d *Diff) ForPath(rel string) []patch.Patch {
	rel = strings.TrimSuffix(path.Clean(filepath.ToSlash(rel)), "/")
	var out []patch.Patch
	for _, p := range d.Patches {
		if p.Path() == rel || strings.HasPrefix(p.Path(), rel+"/") {
			out = append(out, p)
		}
	}
	return out
}

// Option configures an Engine.
type Option func(*Engine)

// WithExclude skips every slash separated relative path for which fn returns true.
func WithExclude(fn func(rel string) bool) Option {
	return func(e *Engine) {
		e.exclude = fn
	}
}

// Engine computes tree diffs through an fsops.FS.
type Engine struct {
	fs      fsops.FS
	exclude func(rel string) bool
}

// New creates an Engine.
func New(fs fsops.FS, opts ...Option) *Engine {
	e := &Engine{
		fs:      fs,
		exclude: func(string) bool { return false },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute returns the patches that turn baselineRoot into revisedRoot.
// Either root may be missing, in which case it is treated as empty.
func (e *Engine) Compute(revisedRoot, baselineRoot string) (*Diff, error) {
	w := &walker{
		Engine:   e,
		revised:  revisedRoot,
		baseline: baselineRoot,
	}
	if err := w.compare(""); err != nil {
		return nil, err
	}
	return &Diff{Patches: w.patches}, nil
}

type entryKind int

const (
	missing entryKind = iota
	file
	dir
)

type walker struct {
	*Engine
	revised  string
	baseline string
	patches  []patch.Patch
}

func join(root, rel string) string {
	if rel == "" {
		return root
	}
	return filepath.Join(root, filepath.FromSlash(rel))
}

func (w *walker) kind(root, rel string) (entryKind, error) {
	info, err := w.fs.Stat(join(root, rel))
	if err != nil {
		// A path below a file on the other side is simply absent.
		if os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR) {
			return missing, nil
		}
		return missing, fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	if info.IsDir() {
		return dir, nil
	}
	return file, nil
}

// skip reports whether a child name is never a diff subject.
func (w *walker) skip(rel, name string) bool {
	return strings.HasPrefix(name, ".") || patch.IsMarker(name) || w.exclude(rel)
}

func childRel(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

func (w *walker) compare(rel string) error {
	revisedKind, err := w.kind(w.revised, rel)
	if err != nil {
		return err
	}
	baselineKind, err := w.kind(w.baseline, rel)
	if err != nil {
		return err
	}

	switch {
	case revisedKind == dir && baselineKind == dir:
		return w.compareChildren(rel)

	case revisedKind == dir:
		if baselineKind == file {
			if err := w.deleteFile(rel); err != nil {
				return err
			}
		}
		return w.eachFile(w.revised, rel, w.revisedFile)

	case baselineKind == dir:
		if revisedKind == file {
			if err := w.revisedFile(rel); err != nil {
				return err
			}
		}
		return w.eachFile(w.baseline, rel, w.deleteFile)

	case revisedKind == file:
		return w.revisedFile(rel)

	case baselineKind == file:
		if ok, err := w.conflict(rel); err != nil || ok {
			return err
		}
		return w.deleteFile(rel)
	}
	return nil
}

func (w *walker) compareChildren(rel string) error {
	names := make(map[string]struct{})
	for _, root := range []string{w.revised, w.baseline} {
		entries, err := w.fs.ReadDir(join(root, rel))
		if err != nil {
			return fmt.Errorf("failed to read directory %s: %w", join(root, rel), err)
		}
		for _, entry := range entries {
			if !w.skip(childRel(rel, entry.Name()), entry.Name()) {
				names[entry.Name()] = struct{}{}
			}
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		if err := w.compare(childRel(rel, name)); err != nil {
			return err
		}
	}
	return nil
}

// eachFile calls fn for every regular file below rel in root, in lexical order.
func (w *walker) eachFile(root, rel string, fn func(rel string) error) error {
	entries, err := w.fs.ReadDir(join(root, rel))
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", join(root, rel), err)
	}
	for _, entry := range entries {
		child := childRel(rel, entry.Name())
		if w.skip(child, entry.Name()) {
			continue
		}
		if entry.IsDir() {
			err = w.eachFile(root, child, fn)
		} else {
			err = fn(child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// conflict records the conflict for rel if the revised side carries markers.
func (w *walker) conflict(rel string) (bool, error) {
	c, ok, err := patch.DetectConflict(w.fs, w.revised, rel)
	if err != nil || !ok {
		return false, err
	}
	w.patches = append(w.patches, c)
	return true, nil
}

// revisedFile classifies a file present on the revised side.
func (w *walker) revisedFile(rel string) error {
	if ok, err := w.conflict(rel); err != nil || ok {
		return err
	}

	revised, err := w.fs.ReadFile(join(w.revised, rel))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rel, err)
	}

	baselineKind, err := w.kind(w.baseline, rel)
	if err != nil {
		return err
	}
	if baselineKind != file {
		w.patches = append(w.patches, patch.NewFile(rel, revised))
		return nil
	}

	baseline, err := w.fs.ReadFile(join(w.baseline, rel))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rel, err)
	}
	if p, changed := patch.ModifyFile(rel, baseline, revised); changed {
		w.patches = append(w.patches, p)
	}
	return nil
}

func (w *walker) deleteFile(rel string) error {
	original, err := w.fs.ReadFile(join(w.baseline, rel))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rel, err)
	}
	w.patches = append(w.patches, patch.DeleteFile(rel, original))
	return nil
}
