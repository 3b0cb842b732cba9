// Package main provides the bootstrapper CLI: scan a repository, draft a plan
// with Gemini, execute plans locally, or serve the HTTP gateway.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bootstrapper",
		Short: "Generate and apply deployment artifacts for a repository",
		Long: `bootstrapper turns a repository scan into an execution plan and runs it.

Usage modes:
  bootstrapper scan <dir>              Summarize a local checkout (or --repo to clone)
  bootstrapper plan <summary.json>     Draft a plan from a scan summary (needs GEMINI_API_KEY)
  bootstrapper execute <plan> --root   Write the plan's artifacts into a directory
  bootstrapper serve                   Run the HTTP gateway`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("json", false, "Always print JSON, even on a terminal")

	root.AddCommand(serveCmd(), scanCmd(), planCmd(), executeCmd())
	return root
}
