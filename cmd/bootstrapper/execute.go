package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"bootstrapper/internal/executor"
	"bootstrapper/internal/plan"
	"bootstrapper/internal/safeio"
)

func executeCmd() *cobra.Command {
	var root string
	var verbose, strict bool
	cmd := &cobra.Command{
		Use:   "execute <plan.json|plan.yaml>",
		Short: "Execute a plan, writing its artifacts under --root",
		Long: `Execute a plan file (JSON or YAML) step by step.

Every step runs even if an earlier one fails; the report lists each outcome.

Examples:
  bootstrapper execute plan.json --root ./out
  bootstrapper execute plan.yaml --root . --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := plan.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(root, 0o755); err != nil {
				return fmt.Errorf("create root: %w", err)
			}
			ws, err := safeio.NewWorkspace(root)
			if err != nil {
				return err
			}

			logOut := io.Discard
			if verbose {
				logOut = cmd.ErrOrStderr()
			}
			ex, err := executor.New(ws, executor.WithLogger(log.New(logOut, "", log.LstdFlags)))
			if err != nil {
				return err
			}
			res := ex.Execute(cmd.Context(), steps)

			if humanOutput(cmd) {
				printResult(cmd.OutOrStdout(), ws.Root(), res)
			} else if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if strict {
				counts := res.Counts()
				if n := counts[plan.StatusFailed] + counts[plan.StatusSkipped]; n > 0 {
					return fmt.Errorf("%d step(s) did not succeed", n)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", ".", "Directory the plan's paths are resolved against")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log each step to stderr")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any step fails or is skipped")
	return cmd
}
