package sync

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/treediff"
)

// Diff computes the local changes of the working tree at root. It does not
// contact the remote.
func (s *Syncer) Diff(_ context.Context, root string) (*treediff.Diff, error) {
	ws, err := s.open(root)
	if err != nil {
		return nil, err
	}
	return s.localDiff(ws)
}

// Status returns the binding and the local changes of the working tree at root.
func (s *Syncer) Status(_ context.Context, root string) (*StatusResult, error) {
	ws, err := s.open(root)
	if err != nil {
		return nil, err
	}
	d, err := s.localDiff(ws)
	if err != nil {
		return nil, err
	}
	return &StatusResult{Binding: ws.binding, Diff: d}, nil
}

// Revert restores the snapshot state of rel, or of every changed file below
// rel when it names a directory.
func (s *Syncer) Revert(_ context.Context, root, rel string) (*RevertResult, error) {
	rel, err := canonical(rel)
	if err != nil {
		return nil, err
	}
	return s.revert(root, func(d *treediff.Diff) []patch.Patch {
		return d.ForPath(rel)
	})
}

// RevertAll restores the snapshot state of every changed file.
func (s *Syncer) RevertAll(_ context.Context, root string) (*RevertResult, error) {
	return s.revert(root, func(d *treediff.Diff) []patch.Patch {
		return d.Patches
	})
}

func (s *Syncer) revert(root string, pick func(*treediff.Diff) []patch.Patch) (*RevertResult, error) {
	ws, err := s.open(root)
	if err != nil {
		return nil, err
	}
	d, err := s.localDiff(ws)
	if err != nil {
		return nil, err
	}

	result := &RevertResult{}
	var errs error
	for _, p := range pick(d) {
		res := p.Unapply(s.fs, ws.root())
		if !res.Success {
			errs = multierr.Append(errs, res.Err())
			continue
		}
		result.Reverted = append(result.Reverted, p.Path())
		s.l.Debug("reverted", append(ws.fields(), zap.String("path", p.Path()))...)
	}
	if errs != nil {
		return result, &ApplyError{Op: "revert", Err: errs}
	}
	return result, nil
}

// Resolve settles the conflict recorded for rel under strategy.
func (s *Syncer) Resolve(_ context.Context, root, rel string, strategy patch.Strategy) error {
	ws, err := s.open(root)
	if err != nil {
		return err
	}
	rel, err = canonical(rel)
	if err != nil {
		return err
	}

	c, ok, err := patch.DetectConflict(s.fs, ws.root(), rel)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoConflict, rel)
	}
	if res := c.Resolve(s.fs, ws.root(), strategy); !res.Success {
		return res.Err()
	}

	s.l.Info("conflict resolved", append(ws.fields(), zap.String("path", rel), zap.String("strategy", string(strategy)))...)
	return nil
}

// MarkResolved accepts the current content of rel as the resolution of its
// conflict by deleting the markers.
func (s *Syncer) MarkResolved(_ context.Context, root, rel string) error {
	ws, err := s.open(root)
	if err != nil {
		return err
	}
	rel, err = canonical(rel)
	if err != nil {
		return err
	}

	ok, err := patch.HasConflict(s.fs, ws.root(), rel)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoConflict, rel)
	}
	return patch.MarkResolved(s.fs, ws.root(), rel)
}
