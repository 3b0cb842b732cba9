package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bootstrapper/internal/gitclone"
	"bootstrapper/internal/scan"
)

func scanCmd() *cobra.Command {
	var repo, branch string
	var keep bool
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Summarize a repository for planning",
		Long: `Summarize a local directory, or clone --repo first.

Examples:
  bootstrapper scan .
  bootstrapper scan --repo https://github.com/acme/shop.git --branch main > summary.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			var note string
			if repo != "" {
				res, err := gitclone.Clone(cmd.Context(), gitclone.Options{
					RepoURL: repo,
					Branch:  branch,
					Token:   os.Getenv("GITHUB_TOKEN"),
				})
				if err != nil {
					return err
				}
				if keep {
					fmt.Fprintf(cmd.ErrOrStderr(), "clone kept at %s\n", res.Path)
				} else {
					defer os.RemoveAll(res.Path)
				}
				dir, note = res.Path, res.Note
			}

			summary, err := scan.SummarizeDir(dir)
			if err != nil {
				return err
			}
			if repo != "" {
				if name := gitclone.RepoName(repo); name != "" {
					summary.ProjectName = name
				}
				summary.RepoURL = repo
				summary.Branch = branch
				summary.Note = note
			}
			if humanOutput(cmd) {
				printSummary(cmd, summary)
				return nil
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Clone this repository instead of scanning a local dir (GITHUB_TOKEN is used for https)")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch to check out with --repo")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the temporary clone")
	return cmd
}

func printSummary(cmd *cobra.Command, s scan.Summary) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "PROJECT: %s\n", s.ProjectName)
	fmt.Fprintf(w, "  Languages:   %s\n", strings.Join(s.Languages, ", "))
	fmt.Fprintf(w, "  Frameworks:  %s\n", strings.Join(s.Frameworks, ", "))
	if s.Database != "" {
		fmt.Fprintf(w, "  Database:    %s\n", s.Database)
	}
	fmt.Fprintf(w, "  Tests:       %v\n", s.HasTests)
	fmt.Fprintf(w, "  Entrypoints: %s\n", strings.Join(s.Entrypoints, ", "))
	fmt.Fprintf(w, "  Infra:       dockerfile=%v compose=%v k8s=%v ci=%v\n",
		s.Infrastructure.Dockerfile, s.Infrastructure.DockerCompose, s.Infrastructure.K8sManifests, s.Infrastructure.CI)
	fmt.Fprintf(w, "  Files:       %d\n", len(s.DiscoveredFiles))
}
