// Package llm holds the model clients used to draft execution plans.
package llm

import (
	"context"
	"encoding/json"
)

// Client generates a JSON document from a prompt and a structured input.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}
