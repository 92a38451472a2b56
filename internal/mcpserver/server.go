// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes vault tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vaultgate/internal/commands"
	"github.com/starford/vaultgate/internal/index"
	"github.com/starford/vaultgate/internal/search"
	"github.com/starford/vaultgate/internal/vault"
)

// Searcher is the full-text index queried by search_vault.
type Searcher interface {
	Search(query string, limit int) ([]index.SearchResult, error)
}

// Server wraps the MCP server with vault tools.
type Server struct {
	mcp      *server.MCPServer
	vault    *vault.Service
	index    Searcher
	commands *commands.Registry
}

// New creates a new MCP server with all vault tools registered.
func New(svc *vault.Service, idx Searcher, reg *commands.Registry, version string) *Server {
	s := &Server{vault: svc, index: idx, commands: reg}

	s.mcp = server.NewMCPServer(
		"vaultgate",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_vault",
		mcp.WithDescription("List the files and folders directly inside a vault folder."),
		mcp.WithString("folder", mcp.Description("Folder to list, e.g. notes/ (empty for the vault root)")),
	), s.listVault)

	s.mcp.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read a vault file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file (e.g. folder/note.md)")),
	), s.readFile)

	s.mcp.AddTool(mcp.NewTool("append_file",
		mcp.WithDescription("Append content to a vault file, creating it when it does not exist."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the file")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text to append")),
	), s.appendFile)

	s.mcp.AddTool(mcp.NewTool("simple_search",
		mcp.WithDescription("Find Markdown files containing every word of the query, best matches first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Words to search for")),
		mcp.WithNumber("context_length", mcp.Description("Characters of context around each match (default 100)")),
	), s.simpleSearch)

	s.mcp.AddTool(mcp.NewTool("search_vault",
		mcp.WithDescription("Full-text search through the vault index."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchVault)

	s.mcp.AddTool(mcp.NewTool("list_commands",
		mcp.WithDescription("List the commands that run_command accepts."),
	), s.listCommands)

	s.mcp.AddTool(mcp.NewTool("run_command",
		mcp.WithDescription("Run a registered command by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Command id from list_commands")),
	), s.runCommand)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := req.GetString("folder", "")
	if folder != "" && !strings.HasSuffix(folder, "/") {
		folder += "/"
	}
	files, err := s.vault.List(ctx, folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("folder is empty"), nil
	}
	return mcp.NewToolResultText(strings.Join(files, "\n")), nil
}

func (s *Server) readFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, _, err := s.vault.Read(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) appendFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.vault.Append(ctx, path, []byte(content)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("appended to %s", path)), nil
}

func (s *Server) simpleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	contextLength := int(req.GetFloat("context_length", -1))
	results, err := search.Simple(ctx, s.vault, search.NewTokenScorer(query), contextLength)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) searchVault(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.index.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) listCommands(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.commands.List())
}

func (s *Server) runCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.commands.Execute(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("ran %s", id)), nil
}
