// Package cli implements the research command's subcommands: ask for a
// one-shot question/answer, and serve-mcp to expose the agent over MCP.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "research",
	Short: "Research is a deep-research agent: search, read, and synthesize cited answers",
	Long: `Research runs an iterative search-read-reason loop over the open web to
answer a question with a definitive, citation-bearing answer.

Example:
  research ask "what changed in the latest Go release?"
  research serve-mcp`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .research.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose logging")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, "research: getwd:", err)
			os.Exit(1)
		}
		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".research")
	}

	viper.SetEnvPrefix("RESEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "research: using config file:", viper.ConfigFileUsed())
	}

	lvl := slog.LevelInfo
	if viper.GetBool("verbose") {
		lvl = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
