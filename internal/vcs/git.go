// Package vcs reads module sources out of git history.
package vcs

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotRepository is returned when no enclosing git repository exists.
var ErrNotRepository = errors.New("not a git repository")

// TreeEntry is a regular file recorded in a tree.
type TreeEntry struct {
	Path string
	Size int64
}

// Tree is a read-only view of the files at one commit. Paths are slash
// separated and relative to the repository root.
type Tree interface {
	File(path string) ([]byte, error)
	Entries() ([]TreeEntry, error)
}

// Repository is a git repository on disk.
type Repository struct {
	repo *git.Repository
	root string
}

// Open finds the repository containing path, walking up to the nearest .git.
func Open(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRepository)
	}
	if err != nil {
		return nil, err
	}
	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return &Repository{repo: repo, root: root}, nil
}

// Root returns the worktree root.
func (r *Repository) Root() string {
	return r.root
}

// Resolve returns the tree of the commit rev points at. Any revision git
// understands works: branches, tags, hashes, HEAD~1. Empty means HEAD.
func (r *Repository) Resolve(rev string) (*Snapshot, error) {
	if rev == "" {
		rev = "HEAD"
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	return &Snapshot{Rev: rev, Hash: *hash, tree: tree}, nil
}

// Snapshot is the tree of one resolved commit.
type Snapshot struct {
	Rev  string
	Hash plumbing.Hash
	tree *object.Tree
}

var _ Tree = (*Snapshot)(nil)

// Short returns the abbreviated commit hash.
func (s *Snapshot) Short() string {
	return s.Hash.String()[:7]
}

func (s *Snapshot) File(path string) ([]byte, error) {
	f, err := s.tree.File(filepath.ToSlash(path))
	if err != nil {
		return nil, fmt.Errorf("%s at %s: %w", path, s.Short(), err)
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(contents), nil
}

// Entries lists regular and executable files. Symlinks are left out since
// their blob is the link target, not source.
func (s *Snapshot) Entries() ([]TreeEntry, error) {
	var entries []TreeEntry
	err := s.tree.Files().ForEach(func(f *object.File) error {
		if f.Mode != filemode.Regular && f.Mode != filemode.Executable {
			return nil
		}
		entries = append(entries, TreeEntry{Path: f.Name, Size: f.Size})
		return nil
	})
	return entries, err
}
