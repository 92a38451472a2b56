package uidsync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/models"
	"github.com/starford/vaultgate/internal/testutil"
	"github.com/starford/vaultgate/internal/vault"
)

// countingVault records how often the engine lists the vault.
type countingVault struct {
	*vault.Service
	files atomic.Int32
}

func (c *countingVault) Files(ctx context.Context) ([]models.FileInfo, error) {
	c.files.Add(1)
	return c.Service.Files(ctx)
}

type fakePrompter struct {
	mu       sync.Mutex
	title    string
	submit   bool
	opened   int
	closed   int
	delay    time.Duration
	onSubmit func(string) bool
}

func (p *fakePrompter) Open(onSubmit func(string) bool) {
	p.mu.Lock()
	p.opened++
	p.onSubmit = onSubmit
	submit, title, delay := p.submit, p.title, p.delay
	p.mu.Unlock()
	if submit {
		go func() {
			time.Sleep(delay)
			onSubmit(title)
		}()
	}
}

func (p *fakePrompter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
}

type outcomes struct {
	mu  sync.Mutex
	got []string
}

func (o *outcomes) ObserveSync(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, outcome)
}

type fixture struct {
	dir      string
	vault    *countingVault
	prompter *fakePrompter
	outcomes *outcomes
	engine   *Engine
}

func newFixture(t *testing.T, files map[string]string, cfg Config) *fixture {
	t.Helper()
	dir, store := testutil.TestVault(t)
	testutil.WriteFiles(t, dir, files)
	f := &fixture{
		dir:      dir,
		vault:    &countingVault{Service: vault.NewService(store, testutil.TestDB(t), nil)},
		prompter: &fakePrompter{},
		outcomes: &outcomes{},
	}
	if cfg.ScratchPath == "" {
		cfg.ScratchPath = "editing.md"
	}
	f.engine = NewEngine(f.vault, f.prompter, cfg, testutil.Logger(), WithObserver(f.outcomes))
	return f
}

func (f *fixture) read(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, filepath.FromSlash(p)))
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}
	return string(data)
}

func TestSync_CreatesAfterPrompt(t *testing.T) {
	f := newFixture(t, map[string]string{"editing.md": "What is a goroutine?\n"},
		Config{PersistFolder: "QA", TitleTimeout: time.Second})
	f.prompter.submit, f.prompter.title = true, "My Note"

	res, err := f.engine.Sync(context.Background(), Request{UID: "7", FieldDomain: 0})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res != (Result{Status: "success", Path: "QA/My Note.md", Created: true}) {
		t.Errorf("result = %+v", res)
	}
	got := f.read(t, "QA/My Note.md")
	if !strings.HasPrefix(got, "---\nid: 00000007\n") {
		t.Errorf("document = %q", got)
	}
	if !strings.Contains(got, "What is a goroutine?\n\n---\n\n") {
		t.Errorf("scratch not in first section: %q", got)
	}
	if f.engine.CachedPath() != "QA/My Note.md" {
		t.Errorf("cache = %q", f.engine.CachedPath())
	}
	if f.engine.Indicator().Busy() {
		t.Error("indicator should clear immediately after create")
	}
}

func TestSync_TimeoutCreatesNothing(t *testing.T) {
	f := newFixture(t, map[string]string{"editing.md": "scratch"},
		Config{PersistFolder: "QA", TitleTimeout: 20 * time.Millisecond})

	_, err := f.engine.Sync(context.Background(), Request{UID: "7"})
	if !apperr.IsCode(err, apperr.OperationTimedOut) {
		t.Fatalf("err = %v, want OperationTimedOut", err)
	}
	if f.prompter.closed != 1 {
		t.Errorf("prompt closed %d times, want 1", f.prompter.closed)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "QA")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("persist folder created: %v", err)
	}

	// A submit arriving after the timeout is ignored.
	if f.prompter.onSubmit("Too Late") {
		t.Error("late submit was accepted")
	}
	if _, err := os.Stat(filepath.Join(f.dir, "QA", "Too Late.md")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("late submit created a document")
	}
	if f.engine.Indicator().Busy() {
		t.Error("indicator should clear on timeout")
	}
	if len(f.outcomes.got) != 1 || f.outcomes.got[0] != "timeout" {
		t.Errorf("outcomes = %v", f.outcomes.got)
	}
}

func TestSync_CancelledContextKeepsPromptOpen(t *testing.T) {
	f := newFixture(t, map[string]string{"editing.md": "scratch"},
		Config{PersistFolder: "QA", TitleTimeout: time.Second})
	f.prompter.submit, f.prompter.title, f.prompter.delay = true, "Kept", 50*time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	res, err := f.engine.Sync(ctx, Request{UID: "9"})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !res.Created || res.Path != "QA/Kept.md" {
		t.Errorf("result = %+v", res)
	}
	if got := f.read(t, "QA/Kept.md"); !strings.Contains(got, "id: 00000009") {
		t.Errorf("document = %q", got)
	}
	if f.prompter.closed != 0 {
		t.Errorf("prompt closed %d times, want 0", f.prompter.closed)
	}
}

func TestSync_CacheAvoidsScan(t *testing.T) {
	f := newFixture(t, map[string]string{
		"editing.md": "new answer",
		"qa/a.md":    "---\nid: 00000001\n---\nQ1\n---\nA1",
		"qa/b.md":    "---\nid: 00000002\n---\nQ2\n---\nA2",
	}, Config{})
	ctx := context.Background()

	if _, err := f.engine.Sync(ctx, Request{UID: "1", FieldDomain: 1}); err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	if n := f.vault.files.Load(); n != 1 {
		t.Fatalf("first sync listed vault %d times, want 1", n)
	}

	res, err := f.engine.Sync(ctx, Request{UID: "00000001", FieldDomain: 1})
	if err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if n := f.vault.files.Load(); n != 1 {
		t.Errorf("cache hit still scanned: %d listings", n)
	}
	if res.Path != "qa/a.md" || res.Created {
		t.Errorf("result = %+v", res)
	}
	if got, want := f.read(t, "qa/a.md"), "---\nid: 00000001\n---\n\nQ1\n\n---\n\nnew answer"; got != want {
		t.Errorf("merged = %q, want %q", got, want)
	}

	// A different UID misses the cache, scans, and moves the cache.
	if _, err := f.engine.Sync(ctx, Request{UID: "2", FieldDomain: 0}); err != nil {
		t.Fatalf("third Sync: %v", err)
	}
	if n := f.vault.files.Load(); n != 2 {
		t.Errorf("cache miss listed vault %d times, want 2", n)
	}
	if f.engine.CachedPath() != "qa/b.md" {
		t.Errorf("cache = %q, want qa/b.md", f.engine.CachedPath())
	}
	if f.prompter.opened != 0 {
		t.Errorf("prompt opened for existing documents")
	}
}

func TestSync_ReadErrorInvalidatesCache(t *testing.T) {
	f := newFixture(t, map[string]string{
		"editing.md": "x",
		"a.md":       "---\nid: 00000001\n---\nQ\n---\nA",
	}, Config{})
	ctx := context.Background()

	if _, err := f.engine.Sync(ctx, Request{UID: "1"}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := os.Remove(filepath.Join(f.dir, "a.md")); err != nil {
		t.Fatal(err)
	}

	_, err := f.engine.Sync(ctx, Request{UID: "1"})
	if !apperr.IsCode(err, apperr.UncategorizedError) {
		t.Fatalf("err = %v, want UncategorizedError", err)
	}
	if f.engine.CachedPath() != "" {
		t.Errorf("cache not invalidated: %q", f.engine.CachedPath())
	}
}

func TestSync_IndicatorLingersAfterMerge(t *testing.T) {
	timers := &manualTimers{}
	dir, store := testutil.TestVault(t)
	testutil.WriteFiles(t, dir, map[string]string{
		"editing.md": "x",
		"a.md":       "---\nid: 00000001\n---\nQ\n---\nA",
	})
	in := NewIndicator(nil, timers.AfterFunc)
	e := NewEngine(vault.NewService(store, testutil.TestDB(t), nil), &fakePrompter{},
		Config{ScratchPath: "editing.md", IndicatorLinger: 2500 * time.Millisecond},
		testutil.Logger(), WithIndicator(in))

	if _, err := e.Sync(context.Background(), Request{UID: "1"}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !in.Busy() {
		t.Fatal("indicator cleared before linger elapsed")
	}
	timers.fireAll()
	if in.Busy() {
		t.Fatal("indicator still busy after linger")
	}
}

func TestSync_RejectsBadRequest(t *testing.T) {
	f := newFixture(t, nil, Config{})
	if _, err := f.engine.Sync(context.Background(), Request{UID: "1", FieldDomain: 2}); err == nil {
		t.Error("expected error for field domain 2")
	}
	if _, err := f.engine.Sync(context.Background(), Request{FieldDomain: 0}); !apperr.IsCode(err, apperr.NoFindUidField) {
		t.Errorf("err = %v, want NoFindUidField", err)
	}
}

func TestSyncSession(t *testing.T) {
	session := filepath.Join(t.TempDir(), "session.ini")
	f := newFixture(t, map[string]string{
		"editing.md": "answer",
		"a.md":       "---\nuid: 00000042\n---\nQ\n===\nA",
	}, Config{SessionFile: session})
	ctx := context.Background()
	write := func(s string) {
		t.Helper()
		if err := os.WriteFile(session, []byte(s), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("SMEditProIsRunning = false\n")
	if _, err := f.engine.SyncSession(ctx); !errors.Is(err, ErrSessionNotRunning) {
		t.Fatalf("err = %v, want ErrSessionNotRunning", err)
	}

	write("SMEditProIsRunning = true\nSMEleType = Topic\neditedEleId = 42\n")
	res, err := f.engine.SyncSession(ctx)
	if err != nil || res.Status != "skipped" {
		t.Fatalf("topic sync = %+v, %v", res, err)
	}

	write("SMEditProIsRunning = true\nSMEleType = Item\neditedEleId = 42\nmdUIDFieldName = uid\nfield_domain = 1\nSMQAdelimiter = ===\n")
	res, err = f.engine.SyncSession(ctx)
	if err != nil {
		t.Fatalf("SyncSession: %v", err)
	}
	if res.Path != "a.md" {
		t.Errorf("path = %q", res.Path)
	}
	if got, want := f.read(t, "a.md"), "---\nuid: 00000042\n---\n\nQ\n\n===\n\nanswer"; got != want {
		t.Errorf("merged = %q, want %q", got, want)
	}
}
