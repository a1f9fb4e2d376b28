// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the explorer operations for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mdexplorer/internal/apperr"
	"github.com/starford/mdexplorer/internal/explorer"
)

const searchRulesURI = "mdexplorer://search-rules"

// Server wraps the MCP server with explorer tools.
type Server struct {
	mcp *server.MCPServer
	svc *explorer.Service
}

// New creates a new MCP server with all explorer tools registered.
func New(svc *explorer.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"mdexplorer",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_directory",
		mcp.WithDescription("List one level of a directory below the served root. "+
			"Directories come first, then files, each group sorted by name. Hidden entries are omitted."),
		mcp.WithString("path", mcp.Description("Directory relative to the root (empty or / for the root)")),
	), s.listDirectory)

	s.mcp.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read the full text of a file below the served root."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File relative to the root (e.g. /docs/readme.md)")),
	), s.readFile)

	s.mcp.AddTool(mcp.NewTool("search_files",
		mcp.WithDescription("Case-insensitive line search through Markdown, text, JSON and YAML files. "+
			"Read the mdexplorer://search-rules resource for the exact limits."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for")),
		mcp.WithString("dir", mcp.Description("Directory to search (empty or / for the root)")),
	), s.searchFiles)

	s.mcp.AddResource(
		mcp.NewResource(searchRulesURI, "Search Rules",
			mcp.WithResourceDescription("How search_files walks the tree and which limits apply."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSearchRules,
	)

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

func (s *Server) listDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	tree, err := s.svc.Tree(ctx, path)
	if err != nil {
		return toolError("list_directory", path, err), nil
	}
	if len(tree.Entries) == 0 {
		return mcp.NewToolResultText("empty directory"), nil
	}
	lines := make([]string, len(tree.Entries))
	for i, e := range tree.Entries {
		if e.IsDir {
			lines[i] = e.Path + "/"
		} else {
			lines[i] = e.Path
		}
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.svc.File(ctx, path)
	if err != nil {
		return toolError("read_file", path, err), nil
	}
	return mcp.NewToolResultText(f.Content), nil
}

func (s *Server) searchFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir := req.GetString("dir", "")
	res, err := s.svc.Search(ctx, dir, query)
	if err != nil {
		return toolError("search_files", dir, err), nil
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return toolError("search_files", dir, err), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError reports err to the client with the same generic wording as the
// HTTP API; the full error, which may name host paths, is only logged.
func toolError(tool, path string, err error) *mcp.CallToolResult {
	slog.Warn("mcp: tool failed",
		slog.String("tool", tool),
		slog.String("path", path),
		slog.String("error", err.Error()))
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", path, apperr.Message(err)))
}

func (s *Server) readSearchRules(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      searchRulesURI,
			MIMEType: "text/markdown",
			Text:     SearchRules,
		},
	}, nil
}
