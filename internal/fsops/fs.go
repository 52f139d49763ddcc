// Package fsops provides filesystem operations with safety guarantees.
//
// All filesystem access in apivcs goes through the FS interface. The working
// tree, the branch snapshot mirror, the staging area and the directory-backed
// remote are all reached through it, which lets tests swap the OS filesystem
// for an in-memory one.
//
// Key features:
//   - Atomic writes using temp file + rename
//   - File copy, walk and empty directory pruning
//   - Path validation for relative paths and identifiers
package fsops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FS provides an abstraction for filesystem operations.
// All filesystem mutations in apivcs must go through this interface.
type FS interface {
	// Stat returns file info for path.
	Stat(path string) (os.FileInfo, error)

	// ReadDir returns the entries of a directory sorted by name.
	ReadDir(path string) ([]os.FileInfo, error)

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// AtomicWrite writes data to path atomically using temp file + rename.
	// Parent directories are created as needed.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes a file or empty directory.
	Remove(path string) error

	// RemoveAll removes a path and all its contents.
	RemoveAll(path string) error

	// Copy copies the file src to dst, replacing a directory found at dst.
	Copy(src, dst string) error

	// Exists checks if a path exists.
	Exists(path string) (bool, error)

	// Walk walks the tree rooted at root in lexical order.
	Walk(root string, fn filepath.WalkFunc) error

	// ValidateRelPath validates a relative path for safety.
	ValidateRelPath(relPath string) error
}

// AferoFS implements FS on top of an afero.Fs.
type AferoFS struct {
	fs afero.Fs
}

// New wraps an afero filesystem.
func New(fs afero.Fs) *AferoFS {
	return &AferoFS{fs: fs}
}

// NewRealFS creates an FS backed by the operating system.
func NewRealFS() *AferoFS {
	return New(afero.NewOsFs())
}

// NewMemFS creates an FS held entirely in memory.
func NewMemFS() *AferoFS {
	return New(afero.NewMemMapFs())
}

// Stat returns file info for path.
func (a *AferoFS) Stat(path string) (os.FileInfo, error) {
	return a.fs.Stat(path)
}

// ReadDir returns the entries of a directory sorted by name.
func (a *AferoFS) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(a.fs, path)
}

// ReadFile reads the entire contents of a file.
func (a *AferoFS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(a.fs, path)
}

// MkdirAll creates a directory and all parent directories.
func (a *AferoFS) MkdirAll(path string, perm os.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

// Remove removes a file or empty directory.
func (a *AferoFS) Remove(path string) error {
	return a.fs.Remove(path)
}

// RemoveAll removes a path and all its contents.
func (a *AferoFS) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

// Exists checks if a path exists.
func (a *AferoFS) Exists(path string) (bool, error) {
	return afero.Exists(a.fs, path)
}

// Walk walks the tree rooted at root in lexical order.
func (a *AferoFS) Walk(root string, fn filepath.WalkFunc) error {
	return afero.Walk(a.fs, root, fn)
}

// Copy copies the file src to dst. A directory at dst is replaced.
func (a *AferoFS) Copy(src, dst string) error {
	srcInfo, err := a.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if srcInfo.IsDir() {
		return fmt.Errorf("failed to copy %s: source is a directory", src)
	}

	dstInfo, err := a.fs.Stat(dst)
	if err == nil {
		if dstInfo.IsDir() {
			if err := a.fs.RemoveAll(dst); err != nil {
				return fmt.Errorf("failed to remove existing destination: %w", err)
			}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat destination: %w", err)
	}

	return a.copyFile(src, dst, srcInfo.Mode())
}

// copyFile copies a single file from src to dst.
func (a *AferoFS) copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := a.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	if err := a.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	dstFile, err := a.fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	return dstFile.Sync()
}

// RemoveEmptyParents removes dir and then each of its ancestors for as long
// as they are empty. root and anything outside it are never removed.
func RemoveEmptyParents(fs FS, dir, root string) error {
	root = filepath.Clean(root)
	prefix := root + string(filepath.Separator)
	if root == string(filepath.Separator) {
		prefix = root
	}

	for dir = filepath.Clean(dir); dir != root && strings.HasPrefix(dir, prefix); dir = filepath.Dir(dir) {
		entries, err := fs.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to read %s: %w", dir, err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := fs.Remove(dir); err != nil {
			return fmt.Errorf("failed to remove empty directory %s: %w", dir, err)
		}
	}
	return nil
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (a *AferoFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := a.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Create temp file in the same directory as target
	tmpFile, err := afero.TempFile(a.fs, dir, ".apivcs-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = a.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := a.fs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := a.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}

// ValidateRelPath validates a relative path for safety.
// Returns an error if the path is invalid or unsafe.
func (a *AferoFS) ValidateRelPath(relPath string) error {
	return ValidateRelPath(relPath)
}

// ValidateRelPath rejects empty, absolute and traversing paths.
func ValidateRelPath(relPath string) error {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))

	if cleaned == "" || cleaned == "." {
		return fmt.Errorf("invalid path: empty or current directory")
	}
	if filepath.IsAbs(cleaned) {
		return fmt.Errorf("invalid path: must be relative, got absolute path %q", cleaned)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) ||
		strings.Contains(cleaned, string(filepath.Separator)+".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid path: path traversal not allowed in %q", cleaned)
	}

	return nil
}

// ValidateIdentifier rejects empty identifiers and identifiers that look like paths.
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("invalid identifier: empty")
	}
	if strings.Contains(id, string(filepath.Separator)) || strings.Contains(id, "/") || strings.Contains(id, "\\") {
		return fmt.Errorf("invalid identifier: must not contain path separators")
	}
	if id == "." || id == ".." || (strings.HasPrefix(id, ".") && len(id) > 1 && id[1] == '.') {
		return fmt.Errorf("invalid identifier: path traversal not allowed")
	}

	return nil
}
