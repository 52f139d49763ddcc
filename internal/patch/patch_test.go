package patch

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/apivcs/internal/fsops"
	"github.com/danieljhkim/apivcs/internal/remote"
)

const ws = "/ws"

func writeFile(t *testing.T, fs fsops.FS, rel, content string) {
	t.Helper()
	require.NoError(t, fs.AtomicWrite(osPath(ws, rel), []byte(content), 0644))
}

func readFile(t *testing.T, fs fsops.FS, rel string) string {
	t.Helper()
	data, err := fs.ReadFile(osPath(ws, rel))
	require.NoError(t, err)
	return string(data)
}

func exists(t *testing.T, fs fsops.FS, rel string) bool {
	t.Helper()
	ok, err := fs.Exists(osPath(ws, rel))
	require.NoError(t, err)
	return ok
}

func TestModified_Print(t *testing.T) {
	baseline := "#%RAML 1.0\ntitle: My api\n/test:\n  get:\n\n"
	revised := "#%RAML 1.0\ntitle: My api\n/test:\n  get:\n/test2:  \n"

	p, ok := ModifyFile("Api.raml", []byte(baseline), []byte(revised))
	require.True(t, ok)

	var buf bytes.Buffer
	require.NoError(t, p.Print(&buf))

	want := "Index: Api.raml\n" +
		"===================================================================\n" +
		"--- Api.raml\n" +
		"+++ Api.raml\n" +
		"@@ -3,3 +3,3 @@\n" +
		" /test:\n" +
		"   get:\n" +
		"-\n" +
		"+/test2:  \n"
	assert.Equal(t, want, buf.String())
}

func TestModifyFile_NoChange(t *testing.T) {
	_, ok := ModifyFile("a.raml", []byte("a\nb\n"), []byte("a\r\nb"))
	assert.False(t, ok)
}

func TestNew_Print(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFile("types.raml", []byte("a\nb\n")).Print(&buf))
	assert.Contains(t, buf.String(), "@@ -0,0 +1,2 @@\n+a\n+b\n")
}

func TestDelete_Print(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DeleteFile("types.raml", []byte("a\nb\n")).Print(&buf))
	assert.Contains(t, buf.String(), "@@ -1,2 +0,0 @@\n-a\n-b\n")
}

func TestNew_Apply(t *testing.T) {
	t.Run("creates missing file", func(t *testing.T) {
		fs := fsops.NewMemFS()
		res := NewFile("dir/a.raml", []byte("new\n")).Apply(fs, ws, KeepBoth)
		require.True(t, res.Success, res.Message)
		assert.Equal(t, "new\n", readFile(t, fs, "dir/a.raml"))
	})

	t.Run("identical existing file succeeds", func(t *testing.T) {
		fs := fsops.NewMemFS()
		writeFile(t, fs, "a.raml", "same\n")
		res := NewFile("a.raml", []byte("same\n")).Apply(fs, ws, KeepOurs)
		assert.True(t, res.Success, res.Message)
	})

	t.Run("keep both writes theirs marker", func(t *testing.T) {
		fs := fsops.NewMemFS()
		writeFile(t, fs, "a.raml", "ours\n")
		res := NewFile("a.raml", []byte("theirs\n")).Apply(fs, ws, KeepBoth)
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "KEEP_BOTH")
		assert.Equal(t, "ours\n", readFile(t, fs, "a.raml"))
		assert.Equal(t, "theirs\n", readFile(t, fs, "a.raml.theirs"))
		assert.False(t, exists(t, fs, "a.raml.original"))

		c, ok, err := DetectConflict(fs, ws, "a.raml")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, KindNewFileConflict, c.Kind())
	})

	t.Run("keep ours keeps local file", func(t *testing.T) {
		fs := fsops.NewMemFS()
		writeFile(t, fs, "a.raml", "ours\n")
		res := NewFile("a.raml", []byte("theirs\n")).Apply(fs, ws, KeepOurs)
		assert.False(t, res.Success)
		assert.Equal(t, "ours\n", readFile(t, fs, "a.raml"))
		assert.False(t, exists(t, fs, "a.raml.theirs"))
	})

	t.Run("keep theirs overwrites local file", func(t *testing.T) {
		fs := fsops.NewMemFS()
		writeFile(t, fs, "a.raml", "ours\n")
		res := NewFile("a.raml", []byte("theirs\n")).Apply(fs, ws, KeepTheirs)
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "KEEP_THEIRS")
		assert.Equal(t, "theirs\n", readFile(t, fs, "a.raml"))
	})
}

func TestNew_Unapply(t *testing.T) {
	fs := fsops.NewMemFS()
	p := NewFile("a.raml", []byte("x\n"))
	require.True(t, p.Apply(fs, ws, KeepBoth).Success)

	require.True(t, p.Unapply(fs, ws).Success)
	assert.False(t, exists(t, fs, "a.raml"))

	res := p.Unapply(fs, ws)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.Message)
}

func TestDelete_ApplyAndUnapply(t *testing.T) {
	fs := fsops.NewMemFS()
	original := "line1\r\nline2"
	writeFile(t, fs, "a.raml", original)
	p := DeleteFile("a.raml", []byte(original))

	require.True(t, p.Apply(fs, ws, KeepBoth).Success)
	assert.False(t, exists(t, fs, "a.raml"))

	again := p.Apply(fs, ws, KeepBoth)
	assert.True(t, again.Success)
	assert.Contains(t, again.Message, "already deleted")

	require.True(t, p.Unapply(fs, ws).Success)
	assert.Equal(t, original, readFile(t, fs, "a.raml"))
}

func TestDelete_ApplyPrunesEmptyDirectories(t *testing.T) {
	fs := fsops.NewMemFS()
	writeFile(t, fs, "schemas/v1/user.json", "{}\n")

	require.True(t, DeleteFile("schemas/v1/user.json", []byte("{}\n")).Apply(fs, ws, KeepBoth).Success)
	assert.False(t, exists(t, fs, "schemas"))
	ok, err := fs.Exists(ws)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeletesFirst(t *testing.T) {
	patches := []Patch{
		NewFile("schemas", []byte("x")),
		DeleteFile("schemas/a.json", nil),
		NewFile("types.raml", []byte("y")),
		DeleteFile("schemas/b.json", nil),
	}

	var got []string
	for _, p := range DeletesFirst(patches) {
		got = append(got, p.Kind().String()+" "+p.Path())
	}
	assert.Equal(t, []string{
		"deleted schemas/a.json",
		"deleted schemas/b.json",
		"new file schemas",
		"new file types.raml",
	}, got)
}

func TestModified_Apply(t *testing.T) {
	baseline := "one\ntwo\nthree\nfour\nfive\nsix\nseven\neight\n"
	theirs := "one\ntwo\nthree\nfour\nfive\nsix\nSEVEN\neight\n"
	diverged := "one\ntwo\nthree\nfour\nfive\nsix\n7\neight\n"

	newPatch := func(t *testing.T) *Modified {
		p, ok := ModifyFile("api.raml", []byte(baseline), []byte(theirs))
		require.True(t, ok)
		return p
	}

	t.Run("clean apply over unrelated local edit", func(t *testing.T) {
		fs := fsops.NewMemFS()
		writeFile(t, fs, "api.raml", "zero\n"+baseline)
		res := newPatch(t).Apply(fs, ws, KeepBoth)
		require.True(t, res.Success, res.Message)
		assert.Equal(t, "zero\n"+theirs, readFile(t, fs, "api.raml"))
	})

	t.Run("keep both writes markers and keeps local edits", func(t *testing.T) {
		fs := fsops.NewMemFS()
		writeFile(t, fs, "api.raml", diverged)
		res := newPatch(t).Apply(fs, ws, KeepBoth)
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "KEEP_BOTH")
		assert.Equal(t, diverged, readFile(t, fs, "api.raml"))
		assert.Equal(t, theirs, readFile(t, fs, "api.raml.theirs"))
		assert.Equal(t, diverged, readFile(t, fs, "api.raml.original"))

		c, ok, err := DetectConflict(fs, ws, "api.raml")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, KindMergeConflict, c.Kind())
	})

	t.Run("keep theirs overwrites local edits", func(t *testing.T) {
		fs := fsops.NewMemFS()
		writeFile(t, fs, "api.raml", diverged)
		res := newPatch(t).Apply(fs, ws, KeepTheirs)
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "KEEP_THEIRS")
		assert.Equal(t, theirs, readFile(t, fs, "api.raml"))
		assert.False(t, exists(t, fs, "api.raml.theirs"))
	})

	t.Run("same edit made locally succeeds without markers", func(t *testing.T) {
		for _, strategy := range Strategies() {
			fs := fsops.NewMemFS()
			writeFile(t, fs, "api.raml", theirs)
			res := newPatch(t).Apply(fs, ws, strategy)
			require.True(t, res.Success, res.Message)
			assert.Equal(t, theirs, readFile(t, fs, "api.raml"))
			assert.False(t, exists(t, fs, "api.raml.theirs"))
			assert.False(t, exists(t, fs, "api.raml.original"))
		}
	})

	t.Run("keep ours leaves everything untouched", func(t *testing.T) {
		fs := fsops.NewMemFS()
		writeFile(t, fs, "api.raml", diverged)
		res := newPatch(t).Apply(fs, ws, KeepOurs)
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "KEEP_OURS")
		assert.Equal(t, diverged, readFile(t, fs, "api.raml"))
		assert.False(t, exists(t, fs, "api.raml.theirs"))
		assert.False(t, exists(t, fs, "api.raml.original"))
	})

	t.Run("unapply restores baseline bytes", func(t *testing.T) {
		fs := fsops.NewMemFS()
		writeFile(t, fs, "api.raml", theirs)
		require.True(t, newPatch(t).Unapply(fs, ws).Success)
		assert.Equal(t, baseline, readFile(t, fs, "api.raml"))
	})
}

func TestConflict_Resolve(t *testing.T) {
	setup := func(t *testing.T) (fsops.FS, Conflict) {
		fs := fsops.NewMemFS()
		writeFile(t, fs, "api.raml", "ours\n")
		writeFile(t, fs, "api.raml.theirs", "theirs\n")
		writeFile(t, fs, "api.raml.original", "ours\n")
		c, ok, err := DetectConflict(fs, ws, "api.raml")
		require.NoError(t, err)
		require.True(t, ok)
		return fs, c
	}

	t.Run("apply and unapply always fail", func(t *testing.T) {
		fs, c := setup(t)
		assert.False(t, c.Apply(fs, ws, KeepTheirs).Success)
		assert.False(t, c.Unapply(fs, ws).Success)
		assert.ErrorIs(t, c.Push(context.Background(), nil, fs, ws), ErrUnresolvedConflict)
	})

	t.Run("keep theirs", func(t *testing.T) {
		fs, c := setup(t)
		require.True(t, c.Resolve(fs, ws, KeepTheirs).Success)
		assert.Equal(t, "theirs\n", readFile(t, fs, "api.raml"))
		assert.False(t, exists(t, fs, "api.raml.theirs"))
		assert.False(t, exists(t, fs, "api.raml.original"))
	})

	t.Run("keep ours", func(t *testing.T) {
		fs, c := setup(t)
		require.True(t, c.Resolve(fs, ws, KeepOurs).Success)
		assert.Equal(t, "ours\n", readFile(t, fs, "api.raml"))
		assert.False(t, exists(t, fs, "api.raml.theirs"))
	})

	t.Run("keep both is rejected", func(t *testing.T) {
		fs, c := setup(t)
		res := c.Resolve(fs, ws, KeepBoth)
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "KEEP_BOTH")
		assert.True(t, exists(t, fs, "api.raml.theirs"))
	})
}

func TestMarkResolved(t *testing.T) {
	fs := fsops.NewMemFS()
	writeFile(t, fs, "api.raml", "manual merge\n")
	writeFile(t, fs, "api.raml.theirs", "theirs\n")

	require.NoError(t, MarkResolved(fs, ws, "api.raml"))
	assert.Equal(t, "manual merge\n", readFile(t, fs, "api.raml"))
	ok, err := HasConflict(fs, ws, "api.raml")
	require.NoError(t, err)
	assert.False(t, ok)
}

type recordingBranch struct {
	calls []string
}

func (b *recordingBranch) ProjectID() string { return "p" }
func (b *recordingBranch) Name() string      { return "master" }
func (b *recordingBranch) ListFiles(context.Context) ([]remote.File, error) {
	return nil, nil
}
func (b *recordingBranch) FileContent(context.Context, string) (remote.Content, error) {
	return remote.Content{}, nil
}
func (b *recordingBranch) NewFile(_ context.Context, path string, content []byte, mimeType string) error {
	b.calls = append(b.calls, "new "+path+" "+mimeType+" "+string(content))
	return nil
}
func (b *recordingBranch) UpdateFile(_ context.Context, path string, content []byte, _ string) error {
	b.calls = append(b.calls, "update "+path+" "+string(content))
	return nil
}
func (b *recordingBranch) Delete(_ context.Context, path string) error {
	b.calls = append(b.calls, "delete "+path)
	return nil
}

func TestPatch_Push(t *testing.T) {
	fs := fsops.NewMemFS()
	writeFile(t, fs, "a.raml", "A")
	writeFile(t, fs, "b.raml", "B2")

	modified, ok := ModifyFile("b.raml", []byte("B"), []byte("B2"))
	require.True(t, ok)

	branch := &recordingBranch{}
	ctx := context.Background()
	for _, p := range []Patch{NewFile("a.raml", []byte("A")), modified, DeleteFile("c.raml", []byte("C"))} {
		require.NoError(t, p.Push(ctx, branch, fs, ws))
	}
	assert.Equal(t, []string{
		"new a.raml application/raml+yaml A",
		"update b.raml B2",
		"delete c.raml",
	}, branch.calls)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("keep_theirs")
	require.NoError(t, err)
	assert.Equal(t, KeepTheirs, s)

	_, err = ParseStrategy("KEEP_NONE")
	assert.Error(t, err)

	flag := DefaultStrategy
	assert.Equal(t, "KEEP_BOTH", flag.String())
	require.NoError(t, flag.Set("KEEP_OURS"))
	assert.Equal(t, KeepOurs, flag)
}

func TestKind_Label(t *testing.T) {
	assert.Equal(t, "new file:", KindNew.Label())
	assert.Equal(t, "merge conflict:", KindMergeConflict.Label())
	assert.Equal(t, "new file conflict", KindNewFileConflict.String())
}
