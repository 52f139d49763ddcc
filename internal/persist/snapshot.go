// Package persist manages the branch snapshot mirror and the pull staging area.
//
// The snapshot is the diff baseline of a working tree: a plain copy of the
// remote branch as of the last successful sync. It is written in full on
// clone and advanced path by path afterwards, always by copying bytes from
// the tree the patches were computed against.
package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/hash"
	"github.com/danieljhkim/apivcs/internal/patch"
)

// SnapshotManager maintains snapshot and staging directories.
type SnapshotManager struct {
	fs     fsops.FS
	hasher hash.Hasher
}

// NewSnapshotManager creates a new SnapshotManager.
func NewSnapshotManager(fs fsops.FS, hasher hash.Hasher) *SnapshotManager {
	return &SnapshotManager{fs: fs, hasher: hasher}
}

// Exists reports whether a snapshot directory is present.
func (s *SnapshotManager) Exists(snapshotDir string) (bool, error) {
	exists, err := s.fs.Exists(snapshotDir)
	if err != nil {
		return false, fmt.Errorf("failed to check snapshot: %w", err)
	}
	return exists, nil
}

// Write stores one file in the tree at root.
func (s *SnapshotManager) Write(root, rel string, content []byte) error {
	if err := s.fs.ValidateRelPath(rel); err != nil {
		return err
	}
	if err := s.fs.AtomicWrite(filepath.Join(root, filepath.FromSlash(rel)), content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// Advance brings snapshotDir in line with sourceDir for the paths touched by
// patches. Added and modified files are copied byte for byte; deleted files
// are removed with the directories they leave empty. Deletions go first.
// Conflicts are skipped. Every failing path is reported.
func (s *SnapshotManager) Advance(snapshotDir, sourceDir string, patches []patch.Patch) error {
	var errs error
	for _, p := range patch.DeletesFirst(patches) {
		dst := filepath.Join(snapshotDir, filepath.FromSlash(p.Path()))

		switch p.(type) {
		case *patch.New, *patch.Modified:
			src := filepath.Join(sourceDir, filepath.FromSlash(p.Path()))
			if err := s.fs.Copy(src, dst); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("failed to advance %s: %w", p.Path(), err))
			}
		case *patch.Delete:
			if err := s.fs.Remove(dst); err != nil && !os.IsNotExist(err) {
				errs = multierr.Append(errs, fmt.Errorf("failed to advance %s: %w", p.Path(), err))
				continue
			}
			if err := fsops.RemoveEmptyParents(s.fs, filepath.Dir(dst), snapshotDir); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("failed to advance %s: %w", p.Path(), err))
			}
		case *patch.NewFileConflict, *patch.MergeConflict:
		}
	}
	return errs
}

// ResetStaging empties the staging directory and recreates it.
func (s *SnapshotManager) ResetStaging(stagingDir string) error {
	if err := s.ClearStaging(stagingDir); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging area: %w", err)
	}
	return nil
}

// ClearStaging removes the staging directory.
func (s *SnapshotManager) ClearStaging(stagingDir string) error {
	if err := s.fs.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("failed to clear staging area: %w", err)
	}
	return nil
}

// Verify checks that the snapshot holds exactly the diffable content of
// sourceDir.
func (s *SnapshotManager) Verify(snapshotDir, sourceDir string) error {
	want, err := hash.HashTree(s.fs, s.hasher, sourceDir, diffable)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", sourceDir, err)
	}
	got, err := hash.HashTree(s.fs, s.hasher, snapshotDir, diffable)
	if err != nil {
		return fmt.Errorf("failed to hash snapshot: %w", err)
	}

	if mismatches := hash.Mismatches(want, got); len(mismatches) > 0 {
		sort.Strings(mismatches)
		return fmt.Errorf("snapshot differs from %s: %s", sourceDir, strings.Join(mismatches, ", "))
	}
	return nil
}

func diffable(rel string, _ os.FileInfo) bool {
	name := filepath.Base(rel)
	return !strings.HasPrefix(name, ".") && !patch.IsMarker(name)
}
