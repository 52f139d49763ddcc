package sync

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/remote"
)

// Pull merges the remote changes made since the last sync into the working tree.
func (s *Syncer) Pull(ctx context.Context, req *PullRequest) (*PullResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.open(req.Root)
	if err != nil {
		return nil, err
	}

	var result *PullResult
	err = s.withLock(ctx, ws, func(branch remote.Branch) error {
		var pullErr error
		result, pullErr = s.pullLocked(ctx, ws, branch, req.Strategy)
		return pullErr
	})
	return result, err
}

// pullLocked performs a pull while the caller holds the lock. The result is
// returned even when some changes failed to apply.
func (s *Syncer) pullLocked(ctx context.Context, ws *workspace, branch remote.Branch, strategy patch.Strategy) (result *PullResult, err error) {
	if strategy == "" {
		strategy = patch.DefaultStrategy
	}

	local, err := s.localDiff(ws)
	if err != nil {
		return nil, err
	}
	if local.HasConflicts() {
		return nil, conflictError(conflictPaths(local.Conflicts()))
	}

	staging := ws.layout.StagingDir()
	if err := s.snapshotMgr.ResetStaging(staging); err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, s.snapshotMgr.ClearStaging(staging))
	}()

	if _, err := s.download(ctx, branch, staging); err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(ws.snapshotDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	incoming, err := s.differ.Compute(staging, ws.snapshotDir())
	if err != nil {
		return nil, fmt.Errorf("failed to compute remote changes: %w", err)
	}
	result = &PullResult{Incoming: incoming.Patches}
	s.l.Debug("remote changes", append(ws.fields(), zap.Int("count", len(incoming.Patches)))...)

	failed, applyErrs := s.applyAll(ws, patch.DeletesFirst(incoming.Patches), strategy)
	result.Failed = failed

	if err := s.snapshotMgr.Advance(ws.snapshotDir(), staging, incoming.Patches); err != nil {
		return result, fmt.Errorf("failed to advance snapshot: %w", err)
	}
	if err := s.snapshotMgr.Verify(ws.snapshotDir(), staging); err != nil {
		s.l.Warn("snapshot does not mirror the remote branch", append(ws.fields(), zap.Error(err))...)
	}

	if applyErrs != nil {
		return result, &ApplyError{Op: "pull", Err: applyErrs}
	}
	return result, nil
}
