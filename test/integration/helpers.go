package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/danieljhkim/apivcs/internal/clock"
	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/hash"
	"github.com/danieljhkim/apivcs/internal/persist"
	"github.com/danieljhkim/apivcs/internal/remote"
	"github.com/danieljhkim/apivcs/internal/remote/dirstore"
	"github.com/danieljhkim/apivcs/internal/state"
	"github.com/danieljhkim/apivcs/internal/sync"
)

const testProjectID = "01J0ORDERSAPI"

// setupRemote creates a directory backed remote with one project on the OS
// filesystem.
func setupRemote(t *testing.T) *dirstore.Store {
	t.Helper()

	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	store, err := dirstore.Open(filepath.Join(t.TempDir(), "remote"),
		dirstore.Logger(zaptest.NewLogger(t)),
		dirstore.Clock(clk),
	)
	if err != nil {
		t.Fatalf("failed to open remote: %v", err)
	}

	err = store.AddProject(remote.Project{
		ID:   testProjectID,
		Name: "orders-api",
		Type: remote.ProjectTypeRAML,
	}, dirstore.DefaultBranch)
	if err != nil {
		t.Fatalf("failed to add project: %v", err)
	}
	return store
}

// newSyncer creates a syncer over the real filesystem.
func newSyncer(t *testing.T, store *dirstore.Store, identity string) *sync.Syncer {
	t.Helper()

	fs := fsops.NewRealFS()
	return sync.New(
		fs,
		store,
		state.NewFileBindingStore(fs),
		persist.NewSnapshotManager(fs, hash.NewSHA256Hasher()),
		identity,
		sync.WithLogger(zaptest.NewLogger(t)),
	)
}

func remoteBranch(t *testing.T, store *dirstore.Store) remote.Branch {
	t.Helper()
	b, err := store.Branch(testProjectID, dirstore.DefaultBranch)
	if err != nil {
		t.Fatalf("failed to open branch: %v", err)
	}
	return b
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent of %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("failed to read %s: %v", rel, err)
	}
	return string(data)
}

func fileExists(t *testing.T, root, rel string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		t.Fatalf("failed to stat %s: %v", rel, err)
	}
	return false
}
