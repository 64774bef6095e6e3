// Package mcpserver exposes the research agent over the Model Context
// Protocol: a single research_ask tool that runs GetResponse to
// completion and returns its answer, plus a diagnostics tool reporting
// the server's version.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/deepresearch/agent"
	"github.com/hazyhaar/deepresearch/kit"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wires an *agent.Agent onto an MCP server instance.
type Server struct {
	researcher *agent.Agent
	version    string
}

// New creates a Server that dispatches research_ask to researcher.
func New(researcher *agent.Agent, version string) *Server {
	return &Server{researcher: researcher, version: version}
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// Register adds every tool this server exposes onto srv.
func (s *Server) Register(srv *mcp.Server) {
	s.registerResearchAsk(srv)
	s.registerDiagnostics(srv)
}

func (s *Server) registerResearchAsk(srv *mcp.Server) {
	type req struct {
		Question       string `json:"question"`
		MaxBadAttempts int    `json:"maxBadAttempts,omitempty"`
	}
	type resp struct {
		Answer string `json:"answer"`
	}

	tool := &mcp.Tool{
		Name:        "research_ask",
		Description: "Run deep research on a question: search, read, and synthesize a cited answer",
		InputSchema: inputSchema(map[string]any{
			"question":       map[string]any{"type": "string", "description": "The question to research"},
			"maxBadAttempts": map[string]any{"type": "integer", "description": "Optional override for the bad-attempt budget before this call falls back to a best-effort answer"},
		}, []string{"question"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		answer, err := s.researcher.GetResponse(ctx, p.Question, p.MaxBadAttempts)
		if err != nil {
			return nil, fmt.Errorf("research_ask: %w", err)
		}
		return resp{Answer: answer}, nil
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (s *Server) registerDiagnostics(srv *mcp.Server) {
	type resp struct {
		Version string `json:"version"`
	}

	tool := &mcp.Tool{
		Name:        "research_diagnostics",
		Description: "Report the research server's version",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		return resp{Version: s.version}, nil
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: struct{}{}}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
