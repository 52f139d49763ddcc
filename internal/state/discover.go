package state

import (
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/apivcs/internal/fsops"
)

// Discover finds the working tree containing start by walking up until a
// directory holding a binding file is found. It returns ErrNoBinding when
// no ancestor is bound.
func Discover(fs fsops.FS, start string) (Layout, error) {
	absPath, err := filepath.Abs(start)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to get absolute path: %w", err)
	}

	current := absPath
	for {
		layout := NewLayout(current)
		ok, err := fs.Exists(layout.ConfigPath())
		if err != nil {
			return Layout{}, err
		}
		if ok {
			return layout, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return Layout{}, fmt.Errorf("%w in %s or any parent directory", ErrNoBinding, absPath)
		}
		current = parent
	}
}
