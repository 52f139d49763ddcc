package sync

import (
	"context"

	"github.com/danieljhkim/apivcs/internal/remote"
)

// Projects lists the remote projects a working tree can be bound to.
func (s *Syncer) Projects(ctx context.Context) ([]remote.Project, error) {
	projects, err := s.remote.Projects(ctx)
	if err != nil {
		return nil, &RemoteError{Op: "list projects", Err: err}
	}
	return remote.VisibleProjects(projects), nil
}

// Branches lists the branches of a remote project.
func (s *Syncer) Branches(ctx context.Context, projectID string) ([]string, error) {
	branches, err := s.remote.Branches(ctx, projectID)
	if err != nil {
		return nil, &RemoteError{Op: "list branches", Err: err}
	}
	return branches, nil
}
