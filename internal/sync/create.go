package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/remote"
	"github.com/danieljhkim/apivcs/internal/state"
)

// Create creates a remote project, binds the working tree at req.Root to it
// and pulls its initial content.
func (s *Syncer) Create(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	if req.Root == "" {
		return nil, fmt.Errorf("working tree root is required")
	}
	layout := state.NewLayout(req.Root)

	exists, err := s.fs.Exists(layout.MetaDir())
	if err != nil {
		return nil, fmt.Errorf("failed to check working tree: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, req.Root)
	}

	projectID, branch, err := s.remote.CreateProject(ctx, remote.NewProject{
		Type:        req.Type,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return nil, &RemoteError{Op: "create project", Err: err}
	}

	binding := &state.Binding{ProjectID: projectID, Branch: branch, OrgID: req.OrgID}
	if err := s.bindings.Save(layout, binding); err != nil {
		return nil, fmt.Errorf("failed to save binding: %w", err)
	}
	s.l.Info("project created", zap.String("project", projectID), zap.String("branch", branch))

	strategy := req.Strategy
	if strategy == "" {
		strategy = patch.DefaultStrategy
	}
	pulled, err := s.Pull(ctx, &PullRequest{Root: req.Root, Strategy: strategy})
	if err != nil {
		return nil, err
	}
	return &CreateResult{Binding: binding, Pull: pulled}, nil
}
