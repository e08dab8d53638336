package testutil

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
)

func TestCreateFileTreeAndList(t *testing.T) {
	dir := t.TempDir()
	CreateFileTree(t, dir, map[string]string{
		"b.ts":       "b",
		"app/a.tsx":  "a",
		"app/x/c.js": "c",
	})

	got := ListFiles(t, dir)
	want := []string{"app/a.tsx", "app/x/c.js", "b.ts"}
	if len(got) != len(want) {
		t.Fatalf("ListFiles() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListFiles()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if ReadFile(t, filepath.Join(dir, "app", "a.tsx")) != "a" {
		t.Error("content mismatch")
	}
}

func TestInitRepo(t *testing.T) {
	dir := InitRepo(t,
		map[string]string{"a.ts": "1"},
		map[string]string{"a.ts": "2"},
	)

	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatal(err)
	}
	iter, err := repo.Log(&git.LogOptions{})
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for {
		if _, err := iter.Next(); err != nil {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("commits = %d, want 2", count)
	}
	if got := ListFiles(t, dir); len(got) != 1 || got[0] != "a.ts" {
		t.Errorf("ListFiles() = %v, .git should be skipped", got)
	}
}
