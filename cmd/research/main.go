// Command research runs the deep-research agent: ask a single question, or
// serve it continuously over MCP.
package main

import (
	"fmt"
	"os"

	"github.com/hazyhaar/deepresearch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
