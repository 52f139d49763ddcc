// Package remote defines the collaborators that live on the far side of a
// sync: the per-branch document store, its advisory lock, and the project
// directory used to discover and create projects.
//
// Transport, authentication and credential handling belong to the
// implementations. The dirstore subpackage provides one backed by a plain
// directory tree.
package remote

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
)

// ExchangeModulesDir holds dependencies managed by the remote itself. Paths
// below it are never downloaded or pushed.
const ExchangeModulesDir = "exchange_modules"

// File types reported by ListFiles.
const (
	TypeFile   = "FILE"
	TypeFolder = "FOLDER"
)

// File is one entry of a branch listing.
type File struct {
	// Path is slash separated and relative to the branch root.
	Path string
	Type string
}

// IsFile reports whether the entry carries content.
func (f File) IsFile() bool {
	return f.Type == TypeFile
}

// Excluded reports whether the entry lives under ExchangeModulesDir.
func (f File) Excluded() bool {
	return IsExcluded(f.Path)
}

// IsExcluded reports whether a slash separated path lives under ExchangeModulesDir.
func IsExcluded(p string) bool {
	return p == ExchangeModulesDir || strings.HasPrefix(p, ExchangeModulesDir+"/")
}

// Content is the payload of one remote file.
type Content struct {
	Bytes    []byte
	MimeType string
}

// Branch is the handle to one branch of a remote project.
type Branch interface {
	ProjectID() string
	Name() string

	// ListFiles returns every entry on the branch. Nothing is filtered server side.
	ListFiles(ctx context.Context) ([]File, error)

	// FileContent downloads the content of one file.
	FileContent(ctx context.Context, path string) (Content, error)

	// NewFile creates a file that does not exist yet.
	NewFile(ctx context.Context, path string, content []byte, mimeType string) error

	// UpdateFile replaces the content of an existing file.
	UpdateFile(ctx context.Context, path string, content []byte, mimeType string) error

	// Delete removes a file.
	Delete(ctx context.Context, path string) error
}

// Lock is the answer to a lock request. When Granted is false, Owner names
// the identity currently holding the lock.
type Lock struct {
	Granted    bool
	Owner      string
	AcquiredAt time.Time
	Branch     Branch
}

// Gateway grants access to branches under an advisory lock. The lock is not
// enforced on the data operations; cooperating clients hold it for the whole
// duration of a mutating operation.
type Gateway interface {
	AcquireLock(ctx context.Context, identity, projectID, branch string) (Lock, error)
	ReleaseLock(ctx context.Context, identity, projectID, branch string) error
}

// ProjectType is the flavor of API specification a project holds.
type ProjectType string

const (
	ProjectTypeRAML         ProjectType = "raml"
	ProjectTypeRAMLFragment ProjectType = "raml-fragment"
	ProjectTypeOAS          ProjectType = "oas"

	// ProjectTypeMuleApplication is reserved for projects managed by the
	// remote itself. They are hidden from listings.
	ProjectTypeMuleApplication ProjectType = "Mule_Application"
)

// ParseProjectType validates a user supplied project type.
func ParseProjectType(s string) (ProjectType, error) {
	switch t := ProjectType(strings.ToLower(s)); t {
	case ProjectTypeRAML, ProjectTypeRAMLFragment, ProjectTypeOAS:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q (expected raml, raml-fragment or oas)", ErrInvalidProjectType, s)
}

// Project describes one remote project.
type Project struct {
	ID          string
	Name        string
	Description string
	Type        ProjectType
}

// NewProject is the request to create a project.
type NewProject struct {
	Type        ProjectType
	Name        string
	Description string
}

// Directory lists and creates projects.
type Directory interface {
	// Projects lists the visible projects, excluding ProjectTypeMuleApplication.
	Projects(ctx context.Context) ([]Project, error)

	// CreateProject creates a project and returns its ID together with the
	// branch a new working copy should bind to.
	CreateProject(ctx context.Context, req NewProject) (projectID, branch string, err error)

	// Branches lists the branch names of a project.
	Branches(ctx context.Context, projectID string) ([]string, error)
}

// Service is a remote offering both the gateway and the directory.
type Service interface {
	Gateway
	Directory
}

// VisibleProjects drops projects of the reserved type.
func VisibleProjects(projects []Project) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if p.Type == ProjectTypeMuleApplication {
			continue
		}
		out = append(out, p)
	}
	return out
}

// MimeType guesses the content type of a path from its extension.
func MimeType(p string) string {
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".raml":
		return "application/raml+yaml"
	case ".yaml", ".yml":
		return "application/yaml"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "text/plain"
}
