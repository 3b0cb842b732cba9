package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPlan is returned when the plan structure itself violates the
// input contract. It is reported once for the whole call, never per step.
var ErrMalformedPlan = errors.New("plan: malformed plan")

// Decode parses raw JSON into steps. The top level may be an array of steps or
// an object wrapping the array under "steps" or "plan".
func Decode(raw []byte) ([]Step, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	return FromValue(v)
}

// FromValue converts an already decoded JSON-like value into steps.
func FromValue(v any) ([]Step, error) {
	items, err := stepList(v)
	if err != nil {
		return nil, err
	}
	steps := make([]Step, 0, len(items))
	for i, item := range items {
		step, err := stepFromValue(item)
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %s", ErrMalformedPlan, i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func stepList(v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case map[string]any:
		for _, key := range []string{"steps", "plan"} {
			if inner, ok := x[key].([]any); ok {
				return inner, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: expected a list of steps, got %s", ErrMalformedPlan, describe(v))
}

func stepFromValue(v any) (Step, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Step{}, fmt.Errorf("expected an object, got %s", describe(v))
	}
	rawTool, ok := obj["tool"]
	if !ok || rawTool == nil {
		return Step{}, errors.New(`missing "tool"`)
	}
	tool, ok := rawTool.(string)
	if !ok {
		return Step{}, fmt.Errorf(`"tool" must be a string, got %s`, describe(rawTool))
	}
	if strings.TrimSpace(tool) == "" {
		return Step{}, errors.New(`"tool" is empty`)
	}

	step := Step{Tool: ToolKind(tool), Args: map[string]any{}}
	switch args := obj["args"].(type) {
	case nil:
	case map[string]any:
		for k, val := range args {
			step.Args[k] = val
		}
	default:
		return Step{}, fmt.Errorf(`"args" must be an object, got %s`, describe(args))
	}

	var err error
	if step.SuccessCheck, err = optionalString(obj, "success_check"); err != nil {
		return Step{}, err
	}
	if step.OnFail, err = optionalString(obj, "on_fail"); err != nil {
		return Step{}, err
	}
	return step, nil
}

func optionalString(obj map[string]any, key string) (string, error) {
	switch v := obj[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%q must be a string, got %s", key, describe(v))
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64, json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
