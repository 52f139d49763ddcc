package treediff

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/patch"
	"github.com/danieljhkim/apivcs/internal/remote"
)

const (
	work = "/work"
	base = "/base"
)

func seed(t *testing.T, fs fsops.FS, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		require.NoError(t, fs.AtomicWrite(filepath.Join(root, filepath.FromSlash(rel)), []byte(content), 0644))
	}
}

type entry struct {
	kind patch.Kind
	path string
}

func summarize(d *Diff) []entry {
	out := make([]entry, 0, len(d.Patches))
	for _, p := range d.Patches {
		out = append(out, entry{kind: p.Kind(), path: p.Path()})
	}
	return out
}

func TestCompute_EqualTrees(t *testing.T) {
	fs := fsops.NewMemFS()
	files := map[string]string{"api.raml": "#%RAML 1.0\n", "types/user.raml": "type: object\n"}
	seed(t, fs, work, files)
	seed(t, fs, base, files)

	d, err := New(fs).Compute(work, base)
	require.NoError(t, err)
	assert.True(t, d.Empty())

	again, err := New(fs).Compute(work, base)
	require.NoError(t, err)
	assert.True(t, again.Empty())
}

func TestCompute_Changes(t *testing.T) {
	fs := fsops.NewMemFS()
	seed(t, fs, base, map[string]string{
		"api.raml":        "#%RAML 1.0\ntitle: My api\n",
		"gone.raml":       "bye\n",
		"same.raml":       "same\n",
		"docs/intro.md":   "intro\n",
		"docs/guide.md":   "guide\n",
		"schemas":         "was a file\n",
		"examples/a.json": "{}\n",
	})
	seed(t, fs, work, map[string]string{
		"api.raml":          "#%RAML 1.0\ntitle: Your api\n",
		"same.raml":         "same\n",
		"added.raml":        "hello\n",
		"docs":              "now a file\n",
		"schemas/user.json": "{}\n",
		"examples/a.json":   "{}\n",
	})

	d, err := New(fs).Compute(work, base)
	require.NoError(t, err)

	assert.Equal(t, []entry{
		{patch.KindNew, "added.raml"},
		{patch.KindModified, "api.raml"},
		{patch.KindNew, "docs"},
		{patch.KindDelete, "docs/guide.md"},
		{patch.KindDelete, "docs/intro.md"},
		{patch.KindDelete, "gone.raml"},
		{patch.KindDelete, "schemas"},
		{patch.KindNew, "schemas/user.json"},
	}, summarize(d))
	assert.False(t, d.HasConflicts())
}

func TestCompute_MissingBaseline(t *testing.T) {
	fs := fsops.NewMemFS()
	seed(t, fs, work, map[string]string{"b.raml": "b\n", "a/c.raml": "c\n"})

	d, err := New(fs).Compute(work, "/nowhere")
	require.NoError(t, err)
	assert.Equal(t, []entry{
		{patch.KindNew, "a/c.raml"},
		{patch.KindNew, "b.raml"},
	}, summarize(d))
}

func TestCompute_SkipsHiddenMarkersAndExcluded(t *testing.T) {
	fs := fsops.NewMemFS()
	seed(t, fs, base, map[string]string{"api.raml": "a\n"})
	seed(t, fs, work, map[string]string{
		"api.raml":                    "a\n",
		".vcsmeta/config":             "projectId=1\n",
		".hidden.raml":                "x\n",
		"exchange_modules/dep/x.raml": "x\n",
		"stray.original":              "x\n",
	})

	d, err := New(fs, WithExclude(remote.IsExcluded)).Compute(work, base)
	require.NoError(t, err)
	assert.True(t, d.Empty(), "unexpected patches: %v", summarize(d))
}

func TestCompute_Conflicts(t *testing.T) {
	fs := fsops.NewMemFS()
	seed(t, fs, base, map[string]string{
		"merged.raml": "same\n",
		"added.raml":  "theirs\n",
	})
	seed(t, fs, work, map[string]string{
		"merged.raml":          "same\n",
		"merged.raml.theirs":   "theirs\n",
		"merged.raml.original": "same\n",
		"added.raml":           "ours\n",
		"added.raml.theirs":    "theirs\n",
	})

	d, err := New(fs).Compute(work, base)
	require.NoError(t, err)

	assert.Equal(t, []entry{
		{patch.KindNewFileConflict, "added.raml"},
		{patch.KindMergeConflict, "merged.raml"},
	}, summarize(d))
	require.True(t, d.HasConflicts())
	require.Len(t, d.Conflicts(), 2)

	mc, ok := d.Patches[1].(*patch.MergeConflict)
	require.True(t, ok)
	assert.Equal(t, "theirs\n", string(mc.Theirs()))
	assert.Equal(t, "same\n", string(mc.Original()))
	assert.Equal(t, "same\n", string(mc.Ours()))
}

func TestCompute_ConflictOnDeletedFile(t *testing.T) {
	fs := fsops.NewMemFS()
	seed(t, fs, base, map[string]string{"api.raml": "a\n"})
	seed(t, fs, work, map[string]string{"api.raml.theirs": "b\n"})

	d, err := New(fs).Compute(work, base)
	require.NoError(t, err)
	assert.Equal(t, []entry{{patch.KindNewFileConflict, "api.raml"}}, summarize(d))
}

func TestDiff_ForPath(t *testing.T) {
	fs := fsops.NewMemFS()
	seed(t, fs, work, map[string]string{"a/x.raml": "x\n", "a/y.raml": "y\n", "ab.raml": "ab\n"})

	d, err := New(fs).Compute(work, base)
	require.NoError(t, err)

	got := d.ForPath("a")
	require.Len(t, got, 2)
	assert.Equal(t, "a/x.raml", got[0].Path())
	assert.Len(t, d.ForPath("a/y.raml"), 1)
	assert.Empty(t, d.ForPath("b"))
}
