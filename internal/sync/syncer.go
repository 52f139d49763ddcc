// Package sync implements the operations that keep a working tree in step
// with one branch of a remote project.
//
// Every mutating operation runs under the remote advisory lock of the branch
// and under an in-process mutex, because pull and push share the snapshot
// and staging directories. The lock is released on every exit path.
package sync

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	stdsync "sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/persist"
	"github.com/danieljhkim/apivcs/internal/remote"
	"github.com/danieljhkim/apivcs/internal/state"
	"github.com/danieljhkim/apivcs/internal/treediff"
)

// maxParallelDownloads bounds concurrent file downloads.
const maxParallelDownloads = 8

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.l = l
		}
	}
}

// WithListener sets the progress listener.
func WithListener(listener Listener) Option {
	return func(s *Syncer) {
		if listener != nil {
			s.listener = listener
		}
	}
}

// Syncer orchestrates clone, create, pull, push, diff and revert.
type Syncer struct {
	fs          fsops.FS
	remote      remote.Service
	bindings    state.BindingStore
	snapshotMgr *persist.SnapshotManager
	differ      *treediff.Engine
	identity    string
	listener    Listener
	l           *zap.Logger

	mu stdsync.Mutex
}

// New creates a new Syncer with the specified dependencies. identity names
// the caller when acquiring remote locks.
func New(
	fs fsops.FS,
	service remote.Service,
	bindings state.BindingStore,
	snapshotMgr *persist.SnapshotManager,
	identity string,
	opts ...Option,
) *Syncer {
	s := &Syncer{
		fs:          fs,
		remote:      service,
		bindings:    bindings,
		snapshotMgr: snapshotMgr,
		differ:      treediff.New(fs, treediff.WithExclude(remote.IsExcluded)),
		identity:    identity,
		listener:    NopListener{},
		l:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// workspace is a bound working tree.
type workspace struct {
	layout  state.Layout
	binding *state.Binding
}

func (w *workspace) root() string {
	return w.layout.Root
}

func (w *workspace) snapshotDir() string {
	return w.layout.SnapshotDir(w.binding.Branch)
}

func (w *workspace) fields() []zap.Field {
	return []zap.Field{
		zap.String("project", w.binding.ProjectID),
		zap.String("branch", w.binding.Branch),
	}
}

// open loads the binding of the working tree at root.
func (s *Syncer) open(root string) (*workspace, error) {
	if root == "" {
		return nil, fmt.Errorf("working tree root is required")
	}
	layout := state.NewLayout(root)
	binding, err := s.bindings.Load(layout)
	if err != nil {
		if errors.Is(err, state.ErrNoBinding) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to load binding: %w", err)
	}
	return &workspace{layout: layout, binding: binding}, nil
}

// withLock runs fn while holding the remote lock of the branch.
func (s *Syncer) withLock(ctx context.Context, ws *workspace, fn func(branch remote.Branch) error) (err error) {
	projectID, name := ws.binding.ProjectID, ws.binding.Branch

	lock, err := s.remote.AcquireLock(ctx, s.identity, projectID, name)
	if err != nil {
		return &RemoteError{Op: "acquire lock", Err: err}
	}
	if !lock.Granted {
		return &LockError{Owner: lock.Owner, ProjectID: projectID, Branch: name}
	}
	s.l.Debug("lock acquired", append(ws.fields(), zap.String("owner", s.identity))...)

	defer func() {
		// The lock must be released even when ctx was canceled mid-operation.
		releaseCtx := context.WithoutCancel(ctx)
		if rerr := s.remote.ReleaseLock(releaseCtx, s.identity, projectID, name); rerr != nil {
			err = multierr.Append(err, &RemoteError{Op: "release lock", Err: rerr})
			return
		}
		s.l.Debug("lock released", append(ws.fields(), zap.String("owner", s.identity))...)
	}()

	return fn(lock.Branch)
}

// localDiff compares the working tree with the snapshot.
func (s *Syncer) localDiff(ws *workspace) (*treediff.Diff, error) {
	d, err := s.differ.Compute(ws.root(), ws.snapshotDir())
	if err != nil {
		return nil, fmt.Errorf("failed to compute local changes: %w", err)
	}
	return d, nil
}

// download fetches every file of the branch, except excluded ones, into
// each of dirs. It returns the number of files fetched.
func (s *Syncer) download(ctx context.Context, branch remote.Branch, dirs ...string) (int, error) {
	files, err := branch.ListFiles(ctx)
	if err != nil {
		return 0, &RemoteError{Op: "list files", Err: err}
	}

	var wanted []remote.File
	for _, f := range files {
		if f.IsFile() && !f.Excluded() {
			wanted = append(wanted, f)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDownloads)
	for _, f := range wanted {
		f := f
		g.Go(func() error {
			content, err := branch.FileContent(gctx, f.Path)
			if err != nil {
				return &RemoteError{Op: "download " + f.Path, Err: err}
			}
			for _, dir := range dirs {
				if err := s.snapshotMgr.Write(dir, f.Path, content.Bytes); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(wanted), nil
}

// applyAll applies patches to the working tree and collects every failure.
func (s *Syncer) applyAll(ws *workspace, patches []patch.Patch, strategy patch.Strategy) (int, error) {
	s.listener.StartApplying(len(patches))
	defer s.listener.EndApplying()

	var errs error
	failed := 0
	for _, p := range patches {
		result := p.Apply(s.fs, ws.root(), strategy)
		s.listener.Applied(p, result)
		if !result.Success {
			failed++
			errs = multierr.Append(errs, result.Err())
			s.l.Warn("change not applied cleanly",
				append(ws.fields(),
					zap.String("path", p.Path()),
					zap.String("strategy", string(strategy)),
					zap.String("reason", result.Message))...)
			continue
		}
		if result.Message != "" {
			s.l.Info(result.Message, append(ws.fields(), zap.String("path", p.Path()))...)
		}
	}
	return failed, errs
}

// canonical turns a user supplied path into a slash separated relative path.
func canonical(rel string) (string, error) {
	if err := fsops.ValidateRelPath(rel); err != nil {
		return "", err
	}
	return path.Clean(filepath.ToSlash(rel)), nil
}

func conflictPaths(conflicts []patch.Conflict) []string {
	paths := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		paths = append(paths, c.Path())
	}
	return paths
}
