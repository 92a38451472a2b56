package vault

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PublishVaultEvent(kind, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+path)
}

func newService(t *testing.T, files map[string]string) (*Service, *recorder) {
	t.Helper()
	dir, store := testutil.TestVault(t)
	testutil.WriteFiles(t, dir, files)
	rec := &recorder{}
	return NewService(store, testutil.TestDB(t), rec), rec
}

func TestList_ImmediateChildren(t *testing.T) {
	svc, _ := newService(t, map[string]string{
		"notes/a.md":   "a",
		"notes/b/c.md": "c",
		"notes/b/d.md": "d",
		"top.md":       "t",
	})
	ctx := context.Background()

	got, err := svc.List(ctx, "notes/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"a.md", "b/"}, got); diff != "" {
		t.Errorf("List(notes/) mismatch (-want +got):\n%s", diff)
	}

	got, _ = svc.List(ctx, "")
	if diff := cmp.Diff([]string{"notes/", "top.md"}, got); diff != "" {
		t.Errorf("List(root) mismatch (-want +got):\n%s", diff)
	}

	got, _ = svc.List(ctx, "nowhere/")
	if len(got) != 0 {
		t.Errorf("missing dir listed %v", got)
	}
}

func TestPutAndRead(t *testing.T) {
	svc, rec := newService(t, nil)
	ctx := context.Background()

	if err := svc.Put(ctx, "x/y.md", []byte("hello")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, info, err := svc.Read(ctx, "x/y.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "hello" || info.Size != 5 {
		t.Errorf("data = %q size = %d", data, info.Size)
	}
	if err := svc.Put(ctx, "x/y.md", []byte("again")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if diff := cmp.Diff([]string{"created:x/y.md", "updated:x/y.md"}, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestPut_DirectoryPathRejected(t *testing.T) {
	svc, _ := newService(t, nil)
	for _, p := range []string{"", "folder/"} {
		err := svc.Put(context.Background(), p, []byte("x"))
		if !apperr.IsCode(err, apperr.RequestMethodValidOnlyForFiles) {
			t.Errorf("Put(%q) err = %v", p, err)
		}
	}
}

func TestAppend(t *testing.T) {
	svc, _ := newService(t, map[string]string{"log.md": "line one"})
	ctx := context.Background()

	if err := svc.Append(ctx, "log.md", []byte("line two\n")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := svc.Append(ctx, "log.md", []byte("line three")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	data, _, _ := svc.Read(ctx, "log.md")
	if string(data) != "line one\nline two\nline three" {
		t.Errorf("content = %q", data)
	}

	if err := svc.Append(ctx, "fresh.md", []byte("new")); err != nil {
		t.Fatalf("Append create: %v", err)
	}
	data, _, _ = svc.Read(ctx, "fresh.md")
	if string(data) != "new" {
		t.Errorf("fresh content = %q", data)
	}
}

func TestDelete(t *testing.T) {
	svc, rec := newService(t, map[string]string{"gone.md": "x", "dir/keep.md": "k"})
	ctx := context.Background()

	if err := svc.Delete(ctx, "gone.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "gone.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "dir"); !apperr.IsCode(err, apperr.RequestMethodValidOnlyForFiles) {
		t.Errorf("Delete(dir) err = %v", err)
	}
	if err := svc.Delete(ctx, "dir/"); !apperr.IsCode(err, apperr.RequestMethodValidOnlyForFiles) {
		t.Errorf("Delete(dir/) err = %v", err)
	}
	if diff := cmp.Diff([]string{"deleted:gone.md"}, rec.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestNote(t *testing.T) {
	svc, _ := newService(t, map[string]string{
		"n.md": "---\ntags: [x]\nposition: 1\nstatus: draft\n---\nBody #y\n",
	})
	note, err := svc.Note(context.Background(), "n.md")
	if err != nil {
		t.Fatalf("Note: %v", err)
	}
	if diff := cmp.Diff([]string{"x", "y"}, note.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if _, ok := note.Frontmatter["position"]; ok {
		t.Error("position leaked into frontmatter")
	}
	if note.Frontmatter["status"] != "draft" {
		t.Errorf("frontmatter = %v", note.Frontmatter)
	}
	if note.Stat.Size == 0 {
		t.Error("stat size not populated")
	}
}

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"a.md":    "text/markdown; charset=UTF-8",
		"b.json":  "application/json",
		"c.bin42": "application/octet-stream",
	}
	for p, want := range cases {
		if got := ContentType(p); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", p, got, want)
		}
	}
}
