//go:build integration
// +build integration

package integration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/hash"
	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/persist"
	"github.com/danieljhkim/apivcs/internal/sync"
)

func clone(t *testing.T, s *sync.Syncer, root string) {
	t.Helper()
	_, err := s.Clone(context.Background(), &sync.CloneRequest{
		Root:      root,
		ProjectID: testProjectID,
		Branch:    "master",
		OrgID:     "acme",
	})
	if err != nil {
		t.Fatalf("clone into %s failed: %v", root, err)
	}
}

func TestPushPull_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupRemote(t)
	branch := remoteBranch(t, store)

	seed := map[string]string{
		"api.raml":                          "#%RAML 1.0\r\ntitle: Orders\r\n",
		"resources/orders.raml":             "#%RAML 1.0 ResourceType\nget:\n",
		"resources/types/order.raml":        "#%RAML 1.0 DataType\ntype: object",
		"exchange_modules/acme/common.raml": "#%RAML 1.0 Library\n",
	}
	for rel, content := range seed {
		if err := branch.NewFile(ctx, rel, []byte(content), ""); err != nil {
			t.Fatalf("failed to seed %s: %v", rel, err)
		}
	}

	tmpDir := t.TempDir()
	aliceRoot := filepath.Join(tmpDir, "alice")
	bobRoot := filepath.Join(tmpDir, "bob")
	alice := newSyncer(t, store, "alice")
	bob := newSyncer(t, store, "bob")
	clone(t, alice, aliceRoot)
	clone(t, bob, bobRoot)

	// Content is stored byte for byte, line endings included.
	if got := readFile(t, aliceRoot, "api.raml"); got != seed["api.raml"] {
		t.Errorf("api.raml = %q, want %q", got, seed["api.raml"])
	}
	if fileExists(t, aliceRoot, "exchange_modules/acme/common.raml") {
		t.Error("exchange_modules must not be downloaded")
	}

	writeFile(t, aliceRoot, "resources/orders.raml", "#%RAML 1.0 ResourceType\nget:\npost:\n")
	writeFile(t, aliceRoot, "resources/types/customer.raml", "#%RAML 1.0 DataType\n")
	if err := fsops.NewRealFS().Remove(filepath.Join(aliceRoot, "resources", "types", "order.raml")); err != nil {
		t.Fatalf("failed to delete order.raml: %v", err)
	}

	pushed, err := alice.Push(ctx, &sync.PushRequest{Root: aliceRoot})
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if len(pushed.Pushed) != 3 {
		t.Errorf("pushed %d changes, want 3", len(pushed.Pushed))
	}

	pulled, err := bob.Pull(ctx, &sync.PullRequest{Root: bobRoot, Strategy: patch.KeepBoth})
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pulled.Incoming) != 3 {
		t.Errorf("pulled %d changes, want 3", len(pulled.Incoming))
	}

	// Both working trees now hold identical content.
	verifier := persist.NewSnapshotManager(fsops.NewRealFS(), hash.NewSHA256Hasher())
	if err := verifier.Verify(aliceRoot, bobRoot); err != nil {
		t.Errorf("working trees differ: %v", err)
	}

	for name, s := range map[string]*sync.Syncer{aliceRoot: alice, bobRoot: bob} {
		d, err := s.Diff(ctx, name)
		if err != nil {
			t.Fatalf("diff failed: %v", err)
		}
		if !d.Empty() {
			t.Errorf("expected no local changes in %s, got %d", name, len(d.Patches))
		}
	}
}

func TestLock_BlocksOtherClients(t *testing.T) {
	ctx := context.Background()
	store := setupRemote(t)
	if err := remoteBranch(t, store).NewFile(ctx, "api.raml", []byte("#%RAML 1.0\n"), ""); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	root := filepath.Join(t.TempDir(), "ws")
	alice := newSyncer(t, store, "alice")
	clone(t, alice, root)
	writeFile(t, root, "api.raml", "#%RAML 1.0\ntitle: Locked\n")

	lock, err := store.AcquireLock(ctx, "carol", testProjectID, "master")
	if err != nil || !lock.Granted {
		t.Fatalf("carol failed to take the lock: %v", err)
	}

	_, err = alice.Push(ctx, &sync.PushRequest{Root: root})
	var lockErr *sync.LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("push error = %v, want LockError", err)
	}
	if lockErr.Owner != "carol" {
		t.Errorf("lock owner = %q, want carol", lockErr.Owner)
	}

	if err := store.ReleaseLock(ctx, "carol", testProjectID, "master"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := alice.Push(ctx, &sync.PushRequest{Root: root}); err != nil {
		t.Fatalf("push after release failed: %v", err)
	}
}

func TestConflictMarkers_SurviveRestart(t *testing.T) {
	ctx := context.Background()
	store := setupRemote(t)
	base := "#%RAML 1.0\ntitle: Orders\nversion: v1\n"
	if err := remoteBranch(t, store).NewFile(ctx, "api.raml", []byte(base), ""); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	tmpDir := t.TempDir()
	aliceRoot := filepath.Join(tmpDir, "alice")
	bobRoot := filepath.Join(tmpDir, "bob")
	alice := newSyncer(t, store, "alice")
	clone(t, alice, aliceRoot)
	clone(t, newSyncer(t, store, "bob"), bobRoot)

	writeFile(t, aliceRoot, "api.raml", "#%RAML 1.0\ntitle: Orders\nversion: v2\n")
	if _, err := alice.Push(ctx, &sync.PushRequest{Root: aliceRoot}); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	writeFile(t, bobRoot, "api.raml", "#%RAML 1.0\ntitle: Orders\nversion: v3\n")
	if _, err := newSyncer(t, store, "bob").Pull(ctx, &sync.PullRequest{Root: bobRoot}); err == nil {
		t.Fatal("expected pull to report a conflict")
	}

	// A fresh syncer sees the conflict through the marker files alone.
	bob := newSyncer(t, store, "bob")
	d, err := bob.Diff(ctx, bobRoot)
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if !d.HasConflicts() {
		t.Fatal("expected the conflict to persist across syncers")
	}

	if err := bob.Resolve(ctx, bobRoot, "api.raml", patch.KeepOurs); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if _, err := bob.Push(ctx, &sync.PushRequest{Root: bobRoot}); err != nil {
		t.Fatalf("push after resolve failed: %v", err)
	}

	content, err := remoteBranch(t, store).FileContent(ctx, "api.raml")
	if err != nil {
		t.Fatalf("failed to read remote: %v", err)
	}
	if string(content.Bytes) != "#%RAML 1.0\ntitle: Orders\nversion: v3\n" {
		t.Errorf("remote content = %q", content.Bytes)
	}
}
