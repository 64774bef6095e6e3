package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hazyhaar/deepresearch/agent"
	"github.com/hazyhaar/deepresearch/llm"
	"github.com/hazyhaar/deepresearch/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "mcpserver-test", Version: "0.1.0"}

type stubSearch struct{}

func (stubSearch) Search(ctx context.Context, query string) ([]search.Result, error) {
	return []search.Result{{Title: "A", URL: "https://example.com/a"}}, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, url string) (string, error) {
	return "some page content", nil
}

const wellFormedAnswer = `Summary: a short test answer, thoroughly described for this test.

Background: background details go here for padding purposes only, nothing more.

Analysis: first point noted, and additionally a second point noted as well.

In conclusion, this concludes the canned response used by the test harness.`

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()

	provider := llm.NewMockProvider("", `{"action":"answer","answer":"`+strings.ReplaceAll(wellFormedAnswer, "\n", "\\n")+`"}`)
	researcher := agent.New(stubSearch{}, stubExtractor{}, provider, agent.Config{Definitiveness: agent.DefinitivenessLenient}, nil)
	s := New(researcher, "test-version")

	srv := mcp.NewServer(testMCPImpl, nil)
	s.Register(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCP_ResearchAsk(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "research_ask", map[string]any{"question": "what happened"})

	var resp struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Answer == "" {
		t.Error("expected non-empty answer")
	}
}

func TestMCP_Diagnostics(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "research_diagnostics", map[string]any{})

	var resp struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Version != "test-version" {
		t.Errorf("version = %q, want %q", resp.Version, "test-version")
	}
}
