// Package source abstracts where module content is read from: the working
// tree or a git revision.
package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/panbanda/clientprune/internal/vcs"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// TreeSource reads files from a git tree. Paths passed to Read may be
// absolute or relative to the repository root.
// It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	tree vcs.Tree
	root string
	mu   sync.Mutex
}

// NewTree creates a source that reads from a git tree rooted at root.
func NewTree(tree vcs.Tree, root string) *TreeSource {
	return &TreeSource{tree: tree, root: root}
}

// OpenRevision resolves rev in the repository containing dir. The returned
// snapshot identifies the commit that was read.
func OpenRevision(dir, rev string) (*TreeSource, *vcs.Snapshot, error) {
	repo, err := vcs.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	snap, err := repo.Resolve(rev)
	if err != nil {
		return nil, nil, err
	}
	return NewTree(snap, repo.Root()), snap, nil
}

// Read implements ContentSource.
// It is safe for concurrent use.
func (t *TreeSource) Read(path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.File(t.rel(path))
}

// Files returns the absolute paths of files in the tree below dir, sorted.
// keep, if set, receives each path relative to the tree root.
func (t *TreeSource) Files(dir string, keep func(path string) bool) ([]string, error) {
	t.mu.Lock()
	entries, err := t.tree.Entries()
	t.mu.Unlock()
	if err != nil {
		return nil, err
	}

	prefix := t.rel(dir)
	if prefix == "." {
		prefix = ""
	}
	var files []string
	for _, e := range entries {
		if prefix != "" && e.Path != prefix && !strings.HasPrefix(e.Path, prefix+"/") {
			continue
		}
		if keep == nil || keep(e.Path) {
			files = append(files, filepath.Join(t.root, filepath.FromSlash(e.Path)))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (t *TreeSource) rel(path string) string {
	if filepath.IsAbs(path) && t.root != "" {
		if r, err := filepath.Rel(t.root, path); err == nil {
			path = r
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}
