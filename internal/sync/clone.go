package sync

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/danieljhkim/apivcs/internal/remote"
	"github.com/danieljhkim/apivcs/internal/state"
)

// Clone binds the working tree at req.Root to a remote branch and downloads
// the branch into both the working tree and a fresh snapshot.
func (s *Syncer) Clone(ctx context.Context, req *CloneRequest) (*CloneResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Root == "" {
		return nil, fmt.Errorf("working tree root is required")
	}
	binding := &state.Binding{ProjectID: req.ProjectID, Branch: req.Branch, OrgID: req.OrgID}
	if err := binding.Validate(); err != nil {
		return nil, err
	}
	ws := &workspace{layout: state.NewLayout(req.Root), binding: binding}

	exists, err := s.snapshotMgr.Exists(ws.snapshotDir())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, req.Root)
	}
	if err := s.bindings.Save(ws.layout, binding); err != nil {
		return nil, fmt.Errorf("failed to save binding: %w", err)
	}

	result := &CloneResult{Binding: binding}
	err = s.withLock(ctx, ws, func(branch remote.Branch) error {
		n, err := s.download(ctx, branch, ws.root(), ws.snapshotDir())
		if err != nil {
			// Leave no partial snapshot behind so the clone can be retried.
			if rerr := s.fs.RemoveAll(ws.snapshotDir()); rerr != nil {
				err = multierr.Append(err, rerr)
			}
			return err
		}
		if err := s.fs.MkdirAll(ws.snapshotDir(), 0755); err != nil {
			return fmt.Errorf("failed to create snapshot: %w", err)
		}
		result.Files = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.l.Info("cloned", append(ws.fields(), zap.Int("files", result.Files))...)
	return result, nil
}
