package patch

import (
	"os"
	"strings"

	"github.com/danieljhkim/apivcs/internal/fsops"
)

// Marker suffixes. A conflicted file <path> carries <path>.theirs with the
// incoming content and, for three-way conflicts, <path>.original with the
// local content at the time the merge failed.
const (
	TheirsSuffix   = ".theirs"
	OriginalSuffix = ".original"
)

// IsMarker reports whether name is a conflict marker file.
func IsMarker(name string) bool {
	return strings.HasSuffix(name, TheirsSuffix) || strings.HasSuffix(name, OriginalSuffix)
}

// markers addresses the marker files of one path below dir.
type markers struct {
	fs   fsops.FS
	dir  string
	path string
}

func newMarkers(fs fsops.FS, dir, path string) markers {
	return markers{fs: fs, dir: dir, path: path}
}

func (m markers) theirsPath() string {
	return osPath(m.dir, m.path+TheirsSuffix)
}

func (m markers) originalPath() string {
	return osPath(m.dir, m.path+OriginalSuffix)
}

// write stores the marker files. A nil original produces a two-way conflict.
func (m markers) write(theirs, original []byte) error {
	if err := m.fs.AtomicWrite(m.theirsPath(), theirs, 0644); err != nil {
		return err
	}
	if original == nil {
		return removeIfExists(m.fs, m.originalPath())
	}
	return m.fs.AtomicWrite(m.originalPath(), original, 0644)
}

func (m markers) clear() error {
	if err := removeIfExists(m.fs, m.theirsPath()); err != nil {
		return err
	}
	return removeIfExists(m.fs, m.originalPath())
}

func (m markers) exists() (bool, error) {
	return m.fs.Exists(m.theirsPath())
}

func removeIfExists(fs fsops.FS, path string) error {
	if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// HasConflict reports whether path below dir carries conflict markers.
func HasConflict(fs fsops.FS, dir, path string) (bool, error) {
	return newMarkers(fs, dir, path).exists()
}

// DetectConflict loads the conflict recorded for path below dir. It returns
// false when path has no markers.
func DetectConflict(fs fsops.FS, dir, path string) (Conflict, bool, error) {
	m := newMarkers(fs, dir, path)
	ok, err := m.exists()
	if err != nil || !ok {
		return nil, false, ioErr(path, err)
	}

	theirs, err := fs.ReadFile(m.theirsPath())
	if err != nil {
		return nil, false, ioErr(path+TheirsSuffix, err)
	}
	ours, err := fs.ReadFile(osPath(dir, path))
	if err != nil && !os.IsNotExist(err) {
		return nil, false, ioErr(path, err)
	}

	original, err := fs.ReadFile(m.originalPath())
	switch {
	case os.IsNotExist(err):
		return &NewFileConflict{path: path, theirs: theirs, ours: ours}, true, nil
	case err != nil:
		return nil, false, ioErr(path+OriginalSuffix, err)
	}
	return &MergeConflict{path: path, original: original, theirs: theirs, ours: ours}, true, nil
}

// MarkResolved accepts the current content of path as final by removing its
// markers. The working file is not touched.
func MarkResolved(fs fsops.FS, dir, path string) error {
	return ioErr(path, newMarkers(fs, dir, path).clear())
}
