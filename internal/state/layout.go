package state

import "path/filepath"

const (
	// MetaDirName is the hidden directory holding all local state.
	MetaDirName = ".vcsmeta"

	configFileName = "config"
	branchesDir    = "branches"
	stagingDir     = "tmp/staging"
)

// Layout resolves the state paths of one working tree.
type Layout struct {
	Root string
}

// NewLayout creates a Layout for the working tree at root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// MetaDir returns the .vcsmeta directory.
func (l Layout) MetaDir() string {
	return filepath.Join(l.Root, MetaDirName)
}

// ConfigPath returns the binding file.
func (l Layout) ConfigPath() string {
	return filepath.Join(l.MetaDir(), configFileName)
}

// SnapshotDir returns the mirror of branch.
func (l Layout) SnapshotDir(branch string) string {
	return filepath.Join(l.MetaDir(), branchesDir, branch)
}

// StagingDir returns the pull scratch area.
func (l Layout) StagingDir() string {
	return filepath.Join(l.MetaDir(), filepath.FromSlash(stagingDir))
}
