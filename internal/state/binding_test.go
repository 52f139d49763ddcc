package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/apivcs/internal/fsops"
)

func TestLayout(t *testing.T) {
	l := NewLayout("/ws")
	assert.Equal(t, "/ws/.vcsmeta/config", l.ConfigPath())
	assert.Equal(t, "/ws/.vcsmeta/branches/master", l.SnapshotDir("master"))
	assert.Equal(t, "/ws/.vcsmeta/tmp/staging", l.StagingDir())
}

func TestFileBindingStore_SaveAndLoad(t *testing.T) {
	fs := fsops.NewMemFS()
	store := NewFileBindingStore(fs)
	layout := NewLayout("/ws")

	exists, err := store.Exists(layout)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Load(layout)
	assert.ErrorIs(t, err, ErrNoBinding)

	want := &Binding{ProjectID: "01HZX3K6W1", Branch: "master", OrgID: "acme"}
	require.NoError(t, store.Save(layout, want))

	raw, err := fs.ReadFile(layout.ConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "projectId = 01HZX3K6W1")

	got, err := store.Load(layout)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileBindingStore_LoadIncomplete(t *testing.T) {
	fs := fsops.NewMemFS()
	layout := NewLayout("/ws")
	require.NoError(t, fs.AtomicWrite(layout.ConfigPath(), []byte("projectId=42\nbranch=master\n"), 0644))

	_, err := NewFileBindingStore(fs).Load(layout)
	require.ErrorIs(t, err, ErrBindingIncomplete)
	assert.Contains(t, err.Error(), "orgId")
}

func TestFileBindingStore_SaveRejectsInvalid(t *testing.T) {
	store := NewFileBindingStore(fsops.NewMemFS())
	layout := NewLayout("/ws")

	err := store.Save(layout, &Binding{ProjectID: "1", OrgID: "o"})
	assert.ErrorIs(t, err, ErrBindingIncomplete)

	err = store.Save(layout, &Binding{ProjectID: "1", Branch: "../x", OrgID: "o"})
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	fs := fsops.NewMemFS()
	store := NewFileBindingStore(fs)
	require.NoError(t, store.Save(NewLayout("/ws"), &Binding{ProjectID: "01HZX3K6W1", Branch: "master", OrgID: "acme"}))
	require.NoError(t, fs.MkdirAll("/ws/resources/types", 0755))

	layout, err := Discover(fs, "/ws/resources/types")
	require.NoError(t, err)
	assert.Equal(t, "/ws", layout.Root)

	layout, err = Discover(fs, "/ws")
	require.NoError(t, err)
	assert.Equal(t, "/ws", layout.Root)

	_, err = Discover(fs, "/elsewhere")
	assert.ErrorIs(t, err, ErrNoBinding)
}
