package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/starford/vaultgate/internal/apperr"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := tempVault(t)
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[a-z]{1,8}(/[a-z]{1,8})?\.md`).Draw(rt, "path")
		content := rapid.SliceOf(rapid.Byte()).Draw(rt, "content")
		if err := s.Write(name, content); err != nil {
			rt.Fatalf("Write: %v", err)
		}
		got, err := s.Read(name)
		if err != nil {
			rt.Fatalf("Read: %v", err)
		}
		if string(got) != string(content) {
			rt.Fatalf("round trip mismatch for %s", name)
		}
	})
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestWriteNewFileMode(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("mode.md", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	fi, err := os.Stat(filepath.Join(s.root, "mode.md"))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", fi.Mode().Perm())
	}
}

func TestReadMissingIsNotFound(t *testing.T) {
	s := tempVault(t)
	_, err := s.Read("nope.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreate(t *testing.T) {
	s := tempVault(t)
	if err := s.Create("dir/new.md", []byte("one")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Create("dir/new.md", []byte("two"))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("second Create err = %v, want ErrAlreadyExists", err)
	}
	got, _ := s.Read("dir/new.md")
	if string(got) != "one" {
		t.Errorf("content = %q, want original", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists("del.md") {
		t.Error("deleted file still exists")
	}
	if err := s.Delete("del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteDirectoryRefused(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("folder/x.md", []byte("x"))
	if err := s.Delete("folder"); !errors.Is(err, apperr.ErrIsDirectory) {
		t.Fatalf("err = %v, want ErrIsDirectory", err)
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.md", []byte("b"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write(".obsidian/app.json", []byte("{}"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var paths []string
	for _, it := range items {
		paths = append(paths, it.Path)
	}
	sort.Strings(paths)
	if diff := cmp.Diff([]string{"a.md", "readme.txt", "sub/b.md"}, paths); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestListPrefix(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("notes/a.md", []byte("a"))
	_ = s.Write("notes/b/c.md", []byte("c"))
	_ = s.Write("other.md", []byte("o"))

	items, err := s.List("notes/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}

	items, err = s.List("missing/")
	if err != nil {
		t.Fatalf("List missing: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("missing prefix returned %d items", len(items))
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("atomic.md", []byte("original content"))
	if err := s.Write("atomic.md", []byte("updated content")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != "updated content" {
		t.Errorf("expected updated content, got %q", got)
	}
	entries, _ := os.ReadDir(s.root)
	if len(entries) != 1 {
		t.Errorf("leftover files: %v", entries)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp(t.TempDir(), "vaultgate-test-*")
	_ = f.Close()
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
