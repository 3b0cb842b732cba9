package llm

import (
	"context"
	"encoding/json"
	"log"
)

type PromptHook interface {
	Before(ctx context.Context, phase, prompt string, input any)
	After(ctx context.Context, phase string, raw json.RawMessage, err error)
}

type ctxKeyHook struct{}
type ctxKeyPhase struct{}

// WithHook wraps base so every GenerateJSON call sees hook in its context.
func WithHook(base Client, hook PromptHook) Client {
	return &hooked{base: base, hook: hook}
}

type hooked struct {
	base Client
	hook PromptHook
}

func (h *hooked) Name() string { return h.base.Name() }
func (h *hooked) Close() error { return h.base.Close() }

func (h *hooked) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	ctx = context.WithValue(ctx, ctxKeyHook{}, h.hook)
	return h.base.GenerateJSON(ctx, prompt, input)
}

func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if h, ok := ctx.Value(ctxKeyHook{}).(PromptHook); ok {
		return h
	}
	return nil
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyPhase{}).(string); ok {
		return s
	}
	return "unknown"
}

// LogHook logs prompt sizes and raw responses.
type LogHook struct {
	Logger *log.Logger
}

func (h LogHook) logf(format string, args ...any) {
	if h.Logger != nil {
		h.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (h LogHook) Before(_ context.Context, phase, prompt string, _ any) {
	h.logf("llm[%s]: prompt %d bytes", phase, len(prompt))
}

func (h LogHook) After(_ context.Context, phase string, raw json.RawMessage, err error) {
	if err != nil {
		h.logf("llm[%s]: error: %v", phase, err)
		return
	}
	h.logf("llm[%s]: response %d bytes", phase, len(raw))
}
