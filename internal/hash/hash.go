// Package hash provides content hashing for comparing directory trees.
//
// apivcs uses SHA-256 digests to check that a branch snapshot mirrors the
// tree it was advanced from. Hashing goes through fsops.FS so the same code
// works on the OS filesystem and in memory.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/apivcs/internal/fsops"
)

// Hasher provides an abstraction for file hashing operations.
type Hasher interface {
	// HashFile computes the hash of the file at the given path.
	HashFile(fs fsops.FS, path string) (string, error)
}

// SHA256Hasher implements Hasher using SHA-256.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// HashFile computes the SHA-256 hash of the file at the given path.
func (h *SHA256Hasher) HashFile(fs fsops.FS, path string) (string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Tree maps slash separated relative paths to file digests.
type Tree map[string]string

// HashTree hashes every regular file below root for which keep returns true.
// Directories for which keep returns false are not descended into. A missing
// root yields an empty Tree.
func HashTree(fs fsops.FS, h Hasher, root string, keep func(rel string, info os.FileInfo) bool) (Tree, error) {
	tree := Tree{}
	if ok, err := fs.Exists(root); err != nil || !ok {
		return tree, err
	}

	err := fs.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !keep(rel, info) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		sum, err := h.HashFile(fs, path)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		tree[rel] = sum
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// Mismatches lists the paths whose digest differs between a and b, or that
// exist on one side only, in no particular order.
func Mismatches(a, b Tree) []string {
	var out []string
	for path, sum := range a {
		if b[path] != sum {
			out = append(out, path)
		}
	}
	for path := range b {
		if _, ok := a[path]; !ok {
			out = append(out, path)
		}
	}
	return out
}
