package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/clientprune/internal/testutil"
	"github.com/panbanda/clientprune/internal/vcs"
)

func TestFilesystemSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.tsx")
	require.NoError(t, os.WriteFile(path, []byte("'use client'\n"), 0o644))

	src := NewFilesystem()
	got, err := src.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "'use client'\n", string(got))

	_, err = src.Read(filepath.Join(dir, "missing.ts"))
	assert.Error(t, err)
}

type fakeTree struct {
	files map[string]string
}

func (f *fakeTree) File(path string) ([]byte, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return []byte(content), nil
}

func (f *fakeTree) Entries() ([]vcs.TreeEntry, error) {
	var entries []vcs.TreeEntry
	for path, content := range f.files {
		entries = append(entries, vcs.TreeEntry{Path: path, Size: int64(len(content))})
	}
	return entries, nil
}

func TestTreeSourceRead(t *testing.T) {
	tree := &fakeTree{files: map[string]string{"src/a.ts": "a", "b.ts": "b"}}
	src := NewTree(tree, "/repo")

	got, err := src.Read("/repo/src/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))

	got, err = src.Read("b.ts")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))

	_, err = src.Read("/repo/c.ts")
	assert.Error(t, err)
}

func TestTreeSourceFiles(t *testing.T) {
	tree := &fakeTree{files: map[string]string{
		"src/a.ts":      "a",
		"src/b.css":     "b",
		"src/lib/c.tsx": "c",
		"srcx/d.ts":     "d",
	}}
	src := NewTree(tree, "/repo")

	onlyTS := func(p string) bool { return filepath.Ext(p) != ".css" }
	files, err := src.Files("/repo/src", onlyTS)
	require.NoError(t, err)
	assert.Equal(t, []string{"/repo/src/a.ts", "/repo/src/lib/c.tsx"}, files)

	all, err := src.Files("/repo", nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestOpenRevision(t *testing.T) {
	dir := testutil.InitRepo(t, map[string]string{"page.tsx": "committed"})
	path := filepath.Join(dir, "page.tsx")

	// uncommitted edits are not visible through the revision
	testutil.WriteFile(t, path, "working")

	src, snap, err := OpenRevision(dir, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, "HEAD", snap.Rev)
	got, err := src.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "committed", string(got))

	files, err := src.Files(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestOpenRevisionOutsideRepository(t *testing.T) {
	_, _, err := OpenRevision(t.TempDir(), "HEAD")
	assert.ErrorIs(t, err, vcs.ErrNotRepository)
}
