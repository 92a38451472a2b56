package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/vaultgate/internal/testutil"
	"github.com/starford/vaultgate/internal/uidsync"
)

func syncConfig(t *testing.T, session string, files map[string]string) (*Config, string) {
	t.Helper()
	dir := t.TempDir()
	vaultDir := filepath.Join(dir, "vault")
	testutil.WriteFiles(t, vaultDir, files)

	sessionPath := filepath.Join(dir, "session.ini")
	if err := os.WriteFile(sessionPath, []byte(session), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	cfg.App.LogLevel = slog.LevelError
	cfg.Vault.Path = vaultDir
	cfg.SQLite.Path = filepath.Join(dir, "index.db")
	cfg.Sync.SessionFile = sessionPath
	return cfg, vaultDir
}

func TestRunSyncMergesSessionElement(t *testing.T) {
	cfg, vaultDir := syncConfig(t,
		"[Session]\neditedEleId=42\nfield_domain=1\nSMEleType=Item\nSMEditProIsRunning=true\n",
		map[string]string{
			"editing.md": "fresh answer",
			"qa/card.md": "---\nid: 00000042\n---\nQuestion\n\n---\n\nstale answer",
		})

	var out bytes.Buffer
	if err := RunSync(context.Background(), WithConfig(cfg), WithOutput(&out)); err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	var res uidsync.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if res.Path != "qa/card.md" || res.Created {
		t.Errorf("result = %+v", res)
	}
	data, err := os.ReadFile(filepath.Join(vaultDir, "qa", "card.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "fresh answer") || strings.Contains(string(data), "stale") {
		t.Errorf("merged = %q", data)
	}
}

func TestRunSyncSkipsNonItems(t *testing.T) {
	cfg, _ := syncConfig(t,
		"editedEleId=42\nSMEleType=Topic\nSMEditProIsRunning=true\n",
		map[string]string{"editing.md": "x"})

	var out bytes.Buffer
	if err := RunSync(context.Background(), WithConfig(cfg), WithOutput(&out)); err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if !strings.Contains(out.String(), `"skipped"`) {
		t.Errorf("output = %s", out.String())
	}
}

func TestRunSyncRequiresRunningSession(t *testing.T) {
	cfg, _ := syncConfig(t, "editedEleId=42\nSMEleType=Item\nSMEditProIsRunning=false\n", nil)
	err := RunSync(context.Background(), WithConfig(cfg), WithOutput(&bytes.Buffer{}))
	if err == nil || !strings.Contains(err.Error(), "not running") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
