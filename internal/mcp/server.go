// Package mcp exposes the memory engine as an MCP stdio server. The tool
// surface is deliberately small: save, search, forget, checkpoint. Older
// tool names resolve through a legacy alias table in the dispatcher.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/thierrypdamiba/claude-memory-kit/internal/engine"
)

// ServerName identifies this MCP server to clients.
const ServerName = "claude-memory-kit"

// Server wires the engine to the MCP protocol for a single tenant.
type Server struct {
	engine   *engine.Engine
	tenant   string
	counters *engine.Counters
	mcp      *server.MCPServer
}

// New builds the MCP server. Instructions are assembled at startup so the
// client sees the identity card, the last checkpoint, and recent context
// without a tool call.
func New(eng *engine.Engine, tenant, version string) *Server {
	s := &Server{
		engine:   eng,
		tenant:   tenant,
		counters: engine.NewCounters(),
	}

	s.mcp = server.NewMCPServer(
		ServerName,
		version,
		server.WithInstructions(s.buildInstructions(context.Background())),
		server.WithToolCapabilities(false),
	)

	for _, def := range ToolDefs() {
		s.mcp.AddTool(def, s.handle(def.Name))
	}
	return s
}

// handle routes every registered tool through the dispatcher so that alias
// resolution and error trapping live in one place.
func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := s.Dispatch(ctx, name, req.GetArguments())
		return mcp.NewToolResultText(result), nil
	}
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// ToolDefs returns the advertised tool surface: exactly four tools.
func ToolDefs() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool("save",
			mcp.WithDescription(
				"Save a memory. The write gate is picked automatically from the text "+
					"(behavioral, relational, epistemic, promissory, correction) unless "+
					"given explicitly. Person and project tags are auto-detected. "+
					"Write in first person."),
			mcp.WithString("text", mcp.Required(),
				mcp.Description("The memory content, written in first person")),
			mcp.WithString("gate",
				mcp.Description("Write gate override: behavioral, relational, epistemic, promissory, or correction")),
			mcp.WithString("person",
				mcp.Description("Person this memory is about (optional)")),
			mcp.WithString("project",
				mcp.Description("Project context (optional)")),
		),
		mcp.NewTool("search",
			mcp.WithDescription(
				"Search memories. Fan-out across vector similarity, keyword fallback, "+
					"and graph expansion. Returns ranked results with IDs."),
			mcp.WithString("query", mcp.Required(),
				mcp.Description("Search query: keywords, question, or concept")),
		),
		mcp.NewTool("forget",
			mcp.WithDescription(
				"Forget a memory. Requires the memory ID (from search results) and a "+
					"reason. Memory is archived, not deleted."),
			mcp.WithString("id", mcp.Required(),
				mcp.Description("ID of the memory to forget")),
			mcp.WithString("reason", mcp.Required(),
				mcp.Description("Why this memory should be forgotten")),
		),
		mcp.NewTool("checkpoint",
			mcp.WithDescription(
				"Save a session checkpoint, loaded at the start of the next session. "+
					engine.CheckpointGuidance),
			mcp.WithString("summary", mcp.Required(),
				mcp.Description("The checkpoint content")),
		),
	}
}
