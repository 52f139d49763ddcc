package sync

import (
	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/remote"
	"github.com/danieljhkim/apivcs/internal/state"
	"github.com/danieljhkim/apivcs/internal/treediff"
)

// CloneRequest contains parameters for binding a working tree to a remote branch.
type CloneRequest struct {
	// Root is the working tree directory
	Root string

	// ProjectID is the remote project to clone
	ProjectID string

	// Branch is the branch to bind to
	Branch string

	// OrgID is the organization recorded in the binding
	OrgID string
}

// CloneResult contains the result of a clone operation.
type CloneResult struct {
	Binding *state.Binding

	// Files is the number of files downloaded
	Files int
}

// CreateRequest contains parameters for creating a remote project.
type CreateRequest struct {
	Root        string
	OrgID       string
	Type        remote.ProjectType
	Name        string
	Description string
	Strategy    patch.Strategy
}

// CreateResult contains the result of a create operation.
type CreateResult struct {
	Binding *state.Binding
	Pull    *PullResult
}

// PullRequest contains parameters for pulling remote changes.
type PullRequest struct {
	Root     string
	Strategy patch.Strategy
}

// PullResult contains the result of a pull operation.
type PullResult struct {
	// Incoming holds the remote changes since the last sync
	Incoming []patch.Patch

	// Failed is the number of changes that could not be applied cleanly
	Failed int
}

// PushRequest contains parameters for pushing local changes.
type PushRequest struct {
	Root     string
	Strategy patch.Strategy
}

// PushResult contains the result of a push operation.
type PushResult struct {
	// UpToDate is set when there was nothing to push
	UpToDate bool

	// Pull is the result of the pull that preceded the upload
	Pull *PullResult

	// Pushed holds the transmitted changes
	Pushed []patch.Patch
}

// StatusResult describes a working tree.
type StatusResult struct {
	Binding *state.Binding
	Diff    *treediff.Diff
}

// RevertResult contains the result of a revert operation.
type RevertResult struct {
	// Reverted holds the paths restored to their snapshot state
	Reverted []string
}
