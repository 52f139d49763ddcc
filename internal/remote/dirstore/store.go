// Package dirstore implements the remote gateway and project directory on top
// of a plain directory tree, such as a shared network mount.
//
// Layout below the store root:
//
//	projects/<id>/project.json
//	projects/<id>/branches/<branch>/files/...
//	projects/<id>/branches/<branch>/lock.json
//
// Locks are created exclusively, so two processes sharing the directory
// cannot both hold the lock of a branch.
package dirstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	stdsync "sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/danieljhkim/apivcs/internal/clock"
	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/remote"
)

const (
	projectsDir     = "projects"
	projectFileName = "project.json"
	branchesDir     = "branches"
	filesDir        = "files"
	lockFileName    = "lock.json"

	// DefaultBranch is the branch every new project starts with.
	DefaultBranch = "master"
)

var (
	_ remote.Service = (*Store)(nil)
	_ remote.Branch  = (*branch)(nil)
)

// Option configures a Store.
type Option func(*Store)

// Logger sets the logger used by the store.
func Logger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.l = l
		}
	}
}

// Clock sets the time source used to stamp locks.
func Clock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// Store is a directory backed remote.
type Store struct {
	fs    afero.Fs
	files fsops.FS
	clock clock.Clock
	l     *zap.Logger

	mu stdsync.Mutex
}

// New creates a store on fs, whose root is the store root.
func New(fs afero.Fs, opts ...Option) *Store {
	s := &Store{
		fs:    fs,
		files: fsops.New(fs),
		clock: clock.RealClock{},
		l:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMem creates an empty store held in memory.
func NewMem(opts ...Option) *Store {
	return New(afero.NewBasePathFs(afero.NewMemMapFs(), "/remote"), opts...)
}

// Open creates a store rooted at dir on the OS filesystem.
func Open(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create remote root: %w", err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), opts...), nil
}

type projectRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
}

type lockRecord struct {
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
}

func projectDir(projectID string) string {
	return filepath.Join(projectsDir, projectID)
}

func branchDir(projectID, name string) string {
	return filepath.Join(projectDir(projectID), branchesDir, name)
}

func (s *Store) checkBranch(projectID, name string) error {
	if err := fsops.ValidateIdentifier(projectID); err != nil {
		return fmt.Errorf("invalid project ID: %w", err)
	}
	if err := fsops.ValidateIdentifier(name); err != nil {
		return fmt.Errorf("invalid branch: %w", err)
	}

	if ok, err := afero.Exists(s.fs, filepath.Join(projectDir(projectID), projectFileName)); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s", remote.ErrProjectNotFound, projectID)
	}
	if ok, err := afero.DirExists(s.fs, branchDir(projectID, name)); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s/%s", remote.ErrBranchNotFound, projectID, name)
	}
	return nil
}

// AcquireLock grants the branch lock to identity unless another identity
// holds it. A holder asking again is granted the lock again.
func (s *Store) AcquireLock(_ context.Context, identity, projectID, name string) (remote.Lock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBranch(projectID, name); err != nil {
		return remote.Lock{}, err
	}
	lockPath := filepath.Join(branchDir(projectID, name), lockFileName)
	record := lockRecord{Owner: identity, AcquiredAt: s.clock.Now()}

	f, err := s.fs.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	switch {
	case err == nil:
		defer func() {
			_ = f.Close()
		}()
		if err := json.NewEncoder(f).Encode(record); err != nil {
			_ = s.fs.Remove(lockPath)
			return remote.Lock{}, fmt.Errorf("failed to write lock: %w", err)
		}
	case os.IsExist(err):
		held, err := s.readLock(lockPath)
		if err != nil {
			return remote.Lock{}, err
		}
		if held.Owner != identity {
			s.l.Debug("lock refused",
				zap.String("project", projectID),
				zap.String("branch", name),
				zap.String("owner", held.Owner))
			return remote.Lock{Granted: false, Owner: held.Owner, AcquiredAt: held.AcquiredAt}, nil
		}
		record = held
	default:
		return remote.Lock{}, fmt.Errorf("failed to create lock: %w", err)
	}

	s.l.Debug("lock granted",
		zap.String("project", projectID),
		zap.String("branch", name),
		zap.String("owner", identity))
	return remote.Lock{
		Granted:    true,
		Owner:      record.Owner,
		AcquiredAt: record.AcquiredAt,
		Branch:     &branch{s: s, projectID: projectID, name: name},
	}, nil
}

// ReleaseLock drops the lock held by identity. Releasing a free lock is a no-op.
func (s *Store) ReleaseLock(_ context.Context, identity, projectID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBranch(projectID, name); err != nil {
		return err
	}
	lockPath := filepath.Join(branchDir(projectID, name), lockFileName)

	held, err := s.readLock(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if held.Owner != identity {
		return fmt.Errorf("%w: %s is locked by %s", remote.ErrLockNotHeld, name, held.Owner)
	}
	if err := s.fs.Remove(lockPath); err != nil {
		return fmt.Errorf("failed to remove lock: %w", err)
	}

	s.l.Debug("lock released",
		zap.String("project", projectID),
		zap.String("branch", name),
		zap.String("owner", identity))
	return nil
}

func (s *Store) readLock(lockPath string) (lockRecord, error) {
	var record lockRecord
	data, err := afero.ReadFile(s.fs, lockPath)
	if err != nil {
		return record, err
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("failed to parse lock: %w", err)
	}
	return record, nil
}

// Projects lists visible projects sorted by name.
func (s *Store) Projects(_ context.Context) ([]remote.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := afero.ReadDir(s.fs, projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []remote.Project{}, nil
		}
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var projects []remote.Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := afero.ReadFile(s.fs, filepath.Join(projectsDir, entry.Name(), projectFileName))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read project %s: %w", entry.Name(), err)
		}
		var record projectRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to parse project %s: %w", entry.Name(), err)
		}
		projects = append(projects, remote.Project{
			ID:          record.ID,
			Name:        record.Name,
			Description: record.Description,
			Type:        remote.ProjectType(record.Type),
		})
	}

	projects = remote.VisibleProjects(projects)
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name < projects[j].Name
	})
	return projects, nil
}

// CreateProject registers a new project with an empty default branch.
func (s *Store) CreateProject(_ context.Context, req remote.NewProject) (string, string, error) {
	if _, err := remote.ParseProjectType(string(req.Type)); err != nil {
		return "", "", err
	}
	if strings.TrimSpace(req.Name) == "" {
		return "", "", fmt.Errorf("project name is required")
	}

	project := remote.Project{
		ID:          ulid.Make().String(),
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
	}
	if err := s.AddProject(project, DefaultBranch); err != nil {
		return "", "", err
	}

	s.l.Info("project created",
		zap.String("project", project.ID),
		zap.String("name", project.Name),
		zap.String("type", string(project.Type)))
	return project.ID, DefaultBranch, nil
}

// AddProject stores a project record as given, along with empty branches.
func (s *Store) AddProject(project remote.Project, branches ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fsops.ValidateIdentifier(project.ID); err != nil {
		return fmt.Errorf("invalid project ID: %w", err)
	}
	data, err := json.MarshalIndent(projectRecord{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Type:        string(project.Type),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	if err := s.files.AtomicWrite(filepath.Join(projectDir(project.ID), projectFileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}

	for _, name := range branches {
		if err := fsops.ValidateIdentifier(name); err != nil {
			return fmt.Errorf("invalid branch: %w", err)
		}
		if err := s.fs.MkdirAll(filepath.Join(branchDir(project.ID, name), filesDir), 0755); err != nil {
			return fmt.Errorf("failed to create branch %s: %w", name, err)
		}
	}
	return nil
}

// Branches lists the branch names of a project.
func (s *Store) Branches(_ context.Context, projectID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fsops.ValidateIdentifier(projectID); err != nil {
		return nil, fmt.Errorf("invalid project ID: %w", err)
	}
	entries, err := afero.ReadDir(s.fs, filepath.Join(projectDir(projectID), branchesDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", remote.ErrProjectNotFound, projectID)
		}
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Branch returns a handle to a branch without locking it.
func (s *Store) Branch(projectID, name string) (remote.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBranch(projectID, name); err != nil {
		return nil, err
	}
	return &branch{s: s, projectID: projectID, name: name}, nil
}

// branch is the handle to one branch of the store.
type branch struct {
	s         *Store
	projectID string
	name      string
}

func (b *branch) ProjectID() string { return b.projectID }

func (b *branch) Name() string { return b.name }

func (b *branch) root() string {
	return filepath.Join(branchDir(b.projectID, b.name), filesDir)
}

func (b *branch) filePath(p string) (string, error) {
	if err := fsops.ValidateRelPath(p); err != nil {
		return "", err
	}
	return filepath.Join(b.root(), filepath.FromSlash(path.Clean(p))), nil
}

func (b *branch) ListFiles(_ context.Context) ([]remote.File, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	root := b.root()
	var files []remote.File
	err := afero.Walk(b.s.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		entry := remote.File{Path: filepath.ToSlash(rel), Type: remote.TypeFile}
		if info.IsDir() {
			entry.Type = remote.TypeFolder
		}
		files = append(files, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

func (b *branch) FileContent(_ context.Context, p string) (remote.Content, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	target, err := b.filePath(p)
	if err != nil {
		return remote.Content{}, err
	}
	data, err := afero.ReadFile(b.s.fs, target)
	if err != nil {
		if os.IsNotExist(err) {
			return remote.Content{}, fmt.Errorf("%w: %s", remote.ErrFileNotFound, p)
		}
		return remote.Content{}, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return remote.Content{Bytes: data, MimeType: remote.MimeType(p)}, nil
}

func (b *branch) NewFile(_ context.Context, p string, content []byte, _ string) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	target, err := b.filePath(p)
	if err != nil {
		return err
	}
	if ok, err := afero.Exists(b.s.fs, target); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", remote.ErrFileExists, p)
	}
	return b.s.files.AtomicWrite(target, content, 0644)
}

func (b *branch) UpdateFile(_ context.Context, p string, content []byte, _ string) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	target, err := b.filePath(p)
	if err != nil {
		return err
	}
	if ok, err := afero.Exists(b.s.fs, target); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s", remote.ErrFileNotFound, p)
	}
	return b.s.files.AtomicWrite(target, content, 0644)
}

func (b *branch) Delete(_ context.Context, p string) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	target, err := b.filePath(p)
	if err != nil {
		return err
	}
	if err := b.s.fs.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", remote.ErrFileNotFound, p)
		}
		return fmt.Errorf("failed to delete %s: %w", p, err)
	}
	if err := fsops.RemoveEmptyParents(b.s.files, filepath.Dir(target), b.root()); err != nil {
		return fmt.Errorf("failed to delete %s: %w", p, err)
	}
	return nil
}
