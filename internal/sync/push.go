package sync

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/remote"
)

// Push uploads the local changes. Remote changes are pulled first; if that
// pull does not apply cleanly nothing is uploaded.
func (s *Syncer) Push(ctx context.Context, req *PushRequest) (*PushResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, err := s.open(req.Root)
	if err != nil {
		return nil, err
	}

	result := &PushResult{}
	err = s.withLock(ctx, ws, func(branch remote.Branch) error {
		local, err := s.localDiff(ws)
		if err != nil {
			return err
		}
		if local.Empty() {
			result.UpToDate = true
			return nil
		}
		if local.HasConflicts() {
			return conflictError(conflictPaths(local.Conflicts()))
		}

		result.Pull, err = s.pullLocked(ctx, ws, branch, req.Strategy)
		if err != nil {
			return fmt.Errorf("push aborted, remote changes did not merge cleanly: %w", err)
		}

		local, err = s.localDiff(ws)
		if err != nil {
			return err
		}
		if local.HasConflicts() {
			return conflictError(conflictPaths(local.Conflicts()))
		}

		pushed, pushErrs := s.pushAll(ctx, ws, branch, local.Patches)
		result.Pushed = pushed

		if err := s.snapshotMgr.Advance(ws.snapshotDir(), ws.root(), pushed); err != nil {
			pushErrs = multierr.Append(pushErrs, fmt.Errorf("failed to advance snapshot: %w", err))
		}
		if pushErrs != nil {
			return &ApplyError{Op: "push", Err: pushErrs}
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	s.l.Info("pushed", append(ws.fields(), zap.Int("files", len(result.Pushed)))...)
	return result, nil
}

// pushAll transmits every patch, deletions first, and returns those that
// succeeded.
func (s *Syncer) pushAll(ctx context.Context, ws *workspace, branch remote.Branch, patches []patch.Patch) ([]patch.Patch, error) {
	s.listener.StartPushing(len(patches))
	defer s.listener.EndPushing()

	var (
		pushed []patch.Patch
		errs   error
	)
	for _, p := range patch.DeletesFirst(patches) {
		s.listener.Pushing(p)
		if err := p.Push(ctx, branch, s.fs, ws.root()); err != nil {
			errs = multierr.Append(errs, &RemoteError{Op: "push " + p.Path(), Err: err})
			s.l.Warn("push failed", append(ws.fields(), zap.String("path", p.Path()), zap.Error(err))...)
			continue
		}
		pushed = append(pushed, p)
	}
	return pushed, errs
}
