package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// FakeClient returns canned responses for offline use and tests.
type FakeClient struct {
	// Response is returned verbatim when Err is nil.
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

func NewFakeClient(response string) *FakeClient {
	return &FakeClient{Response: response}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	phase := PhaseFrom(ctx)
	hook := HookFrom(ctx)
	if hook != nil {
		hook.Before(ctx, phase, prompt, input)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		if hook != nil {
			hook.After(ctx, phase, nil, f.Err)
		}
		return nil, f.Err
	}
	raw := json.RawMessage(f.Response)
	if hook != nil {
		hook.After(ctx, phase, raw, nil)
	}
	return raw, nil
}

// Prompts returns every prompt received so far.
func (f *FakeClient) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
