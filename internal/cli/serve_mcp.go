package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/deepresearch/internal/config"
	"github.com/hazyhaar/deepresearch/mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

// version is stamped into the MCP implementation info and the
// research_diagnostics tool; overridden via -ldflags at release build time.
var version = "dev"

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Expose the research agent as an MCP server over stdio",
	Long: `Serve-mcp starts an MCP server exposing research_ask and
research_diagnostics over stdio, for use by an MCP-aware client.`,
	RunE: runServeMCP,
}

func init() {
	rootCmd.AddCommand(serveMCPCmd)
}

func runServeMCP(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("research serve-mcp: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	a, err := buildAgent(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := mcp.NewServer(&mcp.Implementation{Name: "research", Version: version}, nil)
	mcpserver.New(a, version).Register(srv)

	logger.Info("research: serving MCP over stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}
