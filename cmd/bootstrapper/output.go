package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bootstrapper/internal/plan"
	"bootstrapper/internal/util/jsonutil"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// humanOutput reports whether the command should print for a person rather
// than a pipe.
func humanOutput(cmd *cobra.Command) bool {
	forceJSON, _ := cmd.Flags().GetBool("json")
	return !forceJSON && isTerminal(cmd.OutOrStdout())
}

// printJSON writes v indented on a terminal and compact otherwise.
func printJSON(w io.Writer, v any) error {
	indent := ""
	if isTerminal(w) {
		indent = "  "
	}
	return jsonutil.Encode(w, v, indent)
}

func printResult(w io.Writer, runRoot string, res plan.Result) {
	counts := res.Counts()
	fmt.Fprintf(w, "EXECUTED %d step(s) in %s\n", len(res.ExecutionResults), runRoot)
	for i, r := range res.ExecutionResults {
		fmt.Fprintf(w, "  %d. [%s] %s: %s\n", i+1, statusLabel(r.Status), r.Tool, truncateStr(r.Details, 120))
	}
	if len(res.Files) > 0 {
		fmt.Fprintf(w, "  Files:\n")
		for _, f := range res.Files {
			fmt.Fprintf(w, "    %s (%d bytes)\n", f.FilePath, len(f.Content))
		}
	}
	fmt.Fprintf(w, "  success=%d failed=%d skipped=%d\n",
		counts[plan.StatusSuccess], counts[plan.StatusFailed], counts[plan.StatusSkipped])
}

func statusLabel(s plan.Status) string {
	switch s {
	case plan.StatusSuccess:
		return "OK"
	case plan.StatusFailed:
		return "FAIL"
	default:
		return strings.ToUpper(string(s))
	}
}

func truncateStr(s string, n int) string {
	if n < 4 {
		n = 4
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
