package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/vaultgate/internal/commands"
	"github.com/starford/vaultgate/internal/index"
	"github.com/starford/vaultgate/internal/search"
	"github.com/starford/vaultgate/internal/testutil"
	"github.com/starford/vaultgate/internal/vault"
)

func testServer(t *testing.T, files map[string]string) (*Server, *vault.Service) {
	t.Helper()
	dir, store := testutil.TestVault(t)
	testutil.WriteFiles(t, dir, files)
	db := testutil.TestDB(t)
	if err := index.Sync(db, store, testutil.Logger()); err != nil {
		t.Fatal(err)
	}
	svc := vault.NewService(store, db, nil)

	reg := commands.NewRegistry(testutil.Logger())
	reg.Register("noop", "Do nothing", func(context.Context) error { return nil })
	reg.Register("broken", "Always fails", func(context.Context) error { return errors.New("exploded") })

	return New(svc, db, reg, "test"), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" helper, so dispatch to the handlers.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_vault":
		result, err = srv.listVault(ctx, req)
	case "read_file":
		result, err = srv.readFile(ctx, req)
	case "append_file":
		result, err = srv.appendFile(ctx, req)
	case "simple_search":
		result, err = srv.simpleSearch(ctx, req)
	case "search_vault":
		result, err = srv.searchVault(ctx, req)
	case "list_commands":
		result, err = srv.listCommands(ctx, req)
	case "run_command":
		result, err = srv.runCommand(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAppendAndReadFile(t *testing.T) {
	srv, _ := testServer(t, map[string]string{"log.md": "first"})

	r := callTool(t, srv, "append_file", map[string]interface{}{
		"path":    "log.md",
		"content": "second",
	})
	if r.IsError {
		t.Fatalf("append failed: %s", resultText(r))
	}

	r = callTool(t, srv, "read_file", map[string]interface{}{"path": "log.md"})
	if text := resultText(r); text != "first\nsecond" {
		t.Errorf("read result = %q", text)
	}
}

func TestReadFileMissing(t *testing.T) {
	srv, _ := testServer(t, nil)
	r := callTool(t, srv, "read_file", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing file")
	}
}

func TestListVault(t *testing.T) {
	srv, _ := testServer(t, map[string]string{
		"a.md":         "a",
		"notes/b.md":   "b",
		"notes/c/d.md": "d",
	})

	r := callTool(t, srv, "list_vault", map[string]interface{}{})
	if text := resultText(r); text != "a.md\nnotes/" {
		t.Errorf("root = %q", text)
	}
	r = callTool(t, srv, "list_vault", map[string]interface{}{"folder": "notes"})
	if text := resultText(r); text != "b.md\nc/" {
		t.Errorf("notes = %q", text)
	}
}

func TestSimpleSearchTool(t *testing.T) {
	srv, _ := testServer(t, map[string]string{
		"one.md": "heap sort",
		"two.md": "heap heap",
	})
	r := callTool(t, srv, "simple_search", map[string]interface{}{"query": "heap", "context_length": float64(0)})
	var got []search.Result
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v (%s)", err, resultText(r))
	}
	if len(got) != 2 || got[0].Path != "two.md" {
		t.Fatalf("results = %+v", got)
	}
	if got[0].Matches[0].Context != "heap" {
		t.Errorf("context = %q", got[0].Matches[0].Context)
	}
}

func TestSearchVault(t *testing.T) {
	srv, _ := testServer(t, map[string]string{
		"alpha.md": "the quick fox",
		"beta.md":  "slow tortoise",
	})
	r := callTool(t, srv, "search_vault", map[string]interface{}{"query": "tortoise"})
	if r.IsError {
		t.Fatalf("search failed: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, "beta.md") || strings.Contains(text, "alpha.md") {
		t.Errorf("results = %s", text)
	}
}

func TestCommandsTools(t *testing.T) {
	srv, _ := testServer(t, nil)

	r := callTool(t, srv, "list_commands", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, `"noop"`) || !strings.Contains(text, `"broken"`) {
		t.Errorf("list = %s", text)
	}

	r = callTool(t, srv, "run_command", map[string]interface{}{"id": "noop"})
	if r.IsError {
		t.Errorf("noop failed: %s", resultText(r))
	}
	r = callTool(t, srv, "run_command", map[string]interface{}{"id": "broken"})
	if !r.IsError || !strings.Contains(resultText(r), "exploded") {
		t.Errorf("broken = %v %s", r.IsError, resultText(r))
	}
}
