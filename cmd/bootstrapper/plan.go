package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"bootstrapper/internal/executor"
	"bootstrapper/internal/gateway/config"
	"bootstrapper/internal/llm"
	"bootstrapper/internal/planner"
	"bootstrapper/internal/scan"
)

func planCmd() *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "plan <summary.json|->",
		Short: "Draft an execution plan from a scan summary with Gemini",
		Long: `Draft an execution plan from a scan summary.

Examples:
  bootstrapper scan . | bootstrapper plan - > plan.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var summary scan.Summary
			if err := json.Unmarshal(raw, &summary); err != nil {
				return fmt.Errorf("decode summary: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.LLM.APIKey == "" {
				return errors.New("GEMINI_API_KEY (or GOOGLE_API_KEY) is not set")
			}
			if model != "" {
				cfg.LLM.Model = model
			}
			client, err := llm.NewGeminiClient(cmd.Context(), llm.GeminiConfig{
				APIKey: cfg.LLM.APIKey,
				Model:  cfg.LLM.Model,
				RPS:    cfg.LLM.RPS,
				Burst:  cfg.LLM.Burst,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
			p := planner.New(client, executor.DefaultRegistry().Specs(), logger)
			draft, err := p.Plan(cmd.Context(), summary)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), draft.Steps)
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Gemini model (overrides GEMINI_MODEL)")
	return cmd
}

// readInput reads a file argument, with "-" meaning stdin.
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
