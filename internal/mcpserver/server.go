// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Laguz tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/entryservice"
	"github.com/starford/laguz/internal/handoff"
)

// Server wraps the MCP server with Laguz tools.
type Server struct {
	mcp *server.MCPServer
	svc *entryservice.Service
}

// New creates a new MCP server with all Laguz tools registered.
func New(svc *entryservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List all journal entries with their metadata, newest first."),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read the full text of a journal entry."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry UUID (as returned by list_entries)")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Full-text search through journal entries."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchEntries)

	s.mcp.AddTool(mcp.NewTool("handoff_prompt",
		mcp.WithDescription("Build an AI handoff prompt that wraps the entry text in a "+
			"style-specific preamble. The writer asked for this: respond to the prompt, "+
			"not to the raw entry. Read the laguz://handoff/reflect resource for the "+
			"expected response shape."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry UUID to hand off")),
		mcp.WithString("style", mcp.Description("Prompt style: reflect (default) or summarize")),
	), s.handoffPrompt)

	// Resource: handoff response contract.
	s.mcp.AddResource(
		mcp.NewResource("laguz://handoff/reflect", "Handoff Reflection Contract",
			mcp.WithResourceDescription("How an assistant should respond to a freewriting handoff prompt."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readHandoffResource,
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

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid entry id: %s", raw)), nil
	}
	detail, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", raw)), nil
	}
	return mcp.NewToolResultText(detail.Content), nil
}

func (s *Server) searchEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) handoffPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid entry id: %s", raw)), nil
	}

	styleArg := ""
	if v, sErr := req.RequireString("style"); sErr == nil {
		styleArg = v
	}
	style, err := handoff.ParseStyle(styleArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	prompt, err := s.svc.Handoff(ctx, id, style)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", raw)), nil
	}
	return mcp.NewToolResultText(prompt), nil
}

func (s *Server) readHandoffResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "laguz://handoff/reflect",
			MIMEType: "text/markdown",
			Text:     handoff.ReflectContract,
		},
	}, nil
}
