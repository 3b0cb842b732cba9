// Package planner drafts an execution plan for a scanned repository by
// prompting a language model with the scan summary and the available tools.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"bootstrapper/internal/executor"
	"bootstrapper/internal/llm"
	"bootstrapper/internal/plan"
	"bootstrapper/internal/scan"
)

// ErrEmptyResponse is returned when the model answer holds no JSON at all.
var ErrEmptyResponse = errors.New("planner: empty response from model")

// Draft is a decoded plan together with the JSON it came from.
type Draft struct {
	Steps []plan.Step     `json:"plan"`
	Raw   json.RawMessage `json:"raw"`
}

type Planner struct {
	client llm.Client
	specs  []executor.ToolSpec
	log    *log.Logger
}

// New returns a planner that offers the given tools to the model. A nil
// logger falls back to the standard logger.
func New(client llm.Client, specs []executor.ToolSpec, logger *log.Logger) *Planner {
	if logger == nil {
		logger = log.Default()
	}
	return &Planner{client: client, specs: specs, log: logger}
}

// Plan prompts the model and decodes its answer into steps.
func (p *Planner) Plan(ctx context.Context, summary scan.Summary) (Draft, error) {
	if p == nil || p.client == nil {
		return Draft{}, errors.New("planner: no model client configured")
	}
	prompt, err := BuildPrompt(summary, p.specs)
	if err != nil {
		return Draft{}, err
	}
	out, err := p.client.GenerateJSON(llm.WithPhase(ctx, "plan"), prompt, nil)
	if err != nil {
		return Draft{}, fmt.Errorf("planner: %s: %w", p.client.Name(), err)
	}
	raw, err := ExtractJSON(string(out))
	if err != nil {
		p.log.Printf("planner: undecodable response: %q", truncate(string(out), 500))
		return Draft{}, err
	}
	steps, err := plan.Decode(raw)
	if err != nil {
		return Draft{}, err
	}
	p.log.Printf("planner: %s drafted %d step(s) for %s", p.client.Name(), len(steps), summary.ProjectName)
	return Draft{Steps: steps, Raw: raw}, nil
}

// ExtractJSON strips Markdown code fences and returns the first JSON value in
// text. Trailing prose after that value is ignored.
func ExtractJSON(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "```json"):
		text = strings.TrimSpace(text[len("```json"):])
	case strings.HasPrefix(text, "```"):
		text = strings.TrimSpace(text[3:])
	}
	text = strings.TrimSpace(strings.TrimSuffix(text, "```"))
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var raw json.RawMessage
	if err := json.NewDecoder(strings.NewReader(text)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("planner: failed to decode JSON: %w", err)
	}
	return raw, nil
}

// BuildPrompt renders the planning prompt for summary and tools.
func BuildPrompt(summary scan.Summary, tools []executor.ToolSpec) (string, error) {
	var details bytes.Buffer
	enc := json.NewEncoder(&details)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return "", fmt.Errorf("planner: encode summary: %w", err)
	}

	names := make([]string, 0, len(tools))
	var toolLines strings.Builder
	for _, t := range tools {
		names = append(names, fmt.Sprintf("%q", t.Name))
		fmt.Fprintf(&toolLines, "  - %s: %s", t.Name, t.Description)
		if t.DefaultPath != "" {
			fmt.Fprintf(&toolLines, " (default path %s)", t.DefaultPath)
		}
		toolLines.WriteByte('\n')
	}

	var b strings.Builder
	b.WriteString("You are an expert DevOps engineer. Analyze the following repository details:\n")
	b.Write(details.Bytes())
	b.WriteString("\nBased on the information above, generate a step-by-step execution plan to build and deploy this project.\n")
	b.WriteString("Available tools:\n")
	b.WriteString(toolLines.String())
	b.WriteString("For each step, output a JSON object with:\n")
	fmt.Fprintf(&b, "  - \"tool\": one of %s.\n", strings.Join(names, ", "))
	b.WriteString("  - \"args\": an object containing:\n")
	b.WriteString("      * \"file_path\": the file path where the tailored configuration should be written.\n")
	b.WriteString("      * \"content\": the complete, project-specific content of the file. For generate_k8s_manifests it may be an object mapping file names to manifest text.\n")
	b.WriteString("      (Additional keys may be included only if needed by deployment steps.)\n")
	b.WriteString("  - \"success_check\": a short message confirming the file was generated.\n")
	b.WriteString("  - Optionally, \"on_fail\": an error message if the step fails.\n\n")
	b.WriteString("Respond with ONLY valid JSON: an array of steps.\n")
	return b.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
