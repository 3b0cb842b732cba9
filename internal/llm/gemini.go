package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

var ErrEmptyResponse = errors.New("llm: empty response from model")

// GeminiConfig configures NewGeminiClient. RPS <= 0 disables throttling.
type GeminiConfig struct {
	APIKey string
	Model  string
	RPS    float64
	Burst  int
}

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
	rl    *rpsLimiter
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: gemini api key is not set")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{cli: cli, model: model, rl: newRPSLimiter(cfg.RPS, cfg.Burst)}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }

func (g *GeminiClient) Close() error {
	g.rl.Stop()
	return nil
}

// GenerateJSON sends the prompt followed by the indented input and returns the
// first candidate's text. Transient failures are retried three times.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	phase := PhaseFrom(ctx)
	if hook := HookFrom(ctx); hook != nil {
		hook.Before(ctx, phase, prompt, input)
	}

	full := prompt
	if input != nil {
		in, _ := json.MarshalIndent(input, "", "  ")
		full = prompt + "\n\n[INPUT JSON]\n" + string(in)
	}
	log.Printf("LLM request (%s): %d bytes", phase, len(full))

	var lastErr error
retry:
	for attempt := 0; attempt < 3; attempt++ {
		if err := g.rl.Acquire(ctx); err != nil {
			lastErr = err
			break retry
		}
		resp, err := g.cli.Models.GenerateContent(ctx, g.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
			&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
		)
		if err != nil {
			lastErr = err
		} else if txt := firstText(resp); txt == "" {
			lastErr = ErrEmptyResponse
		} else {
			raw := json.RawMessage(txt)
			if hook := HookFrom(ctx); hook != nil {
				hook.After(ctx, phase, raw, nil)
			}
			return raw, nil
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retry
		case <-time.After(time.Duration(300*(1<<attempt)) * time.Millisecond):
		}
	}
	if hook := HookFrom(ctx); hook != nil {
		hook.After(ctx, phase, nil, lastErr)
	}
	return nil, lastErr
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
