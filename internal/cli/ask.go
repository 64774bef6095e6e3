package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/deepresearch/internal/config"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Run one research question to completion and print the answer",
	Long: `Ask runs the full search-read-reason loop for a single question and
prints the resulting answer, with its sources, to stdout.

Example:
  research ask "what changed in the latest Go release?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("research ask: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.RequestTimeout)
	defer cancel()

	a, err := buildAgent(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}

	answer, err := a.GetResponse(ctx, question)
	if err != nil {
		return fmt.Errorf("research ask: %w", err)
	}

	fmt.Println(answer)
	return nil
}
