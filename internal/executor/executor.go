// Package executor runs declarative infrastructure plans against a workspace:
// it normalizes each step's arguments, dispatches to the matching tool and
// reports per-step results without letting one failure abort the rest.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bootstrapper/internal/plan"
	"bootstrapper/internal/safeio"
)

// StepObserver is notified after each step completes, in plan order.
type StepObserver func(index int, res plan.StepResult, files []plan.GeneratedFile)

type Option func(*Executor)

// WithRegistry replaces the built-in tool registry.
func WithRegistry(r *Registry) Option {
	return func(e *Executor) {
		if r != nil {
			e.tools = r
		}
	}
}

// WithLogger sets the logger used for per-step lines. nil means log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// WithObserver registers a callback invoked after every step.
func WithObserver(fn StepObserver) Option {
	return func(e *Executor) { e.observe = fn }
}

// Executor runs plans sequentially inside one workspace. It does not own the
// workspace directory; creating and removing it is the caller's job.
type Executor struct {
	ws      *safeio.Workspace
	tools   *Registry
	log     *log.Logger
	observe StepObserver
}

func New(ws *safeio.Workspace, opts ...Option) (*Executor, error) {
	if ws == nil {
		return nil, errors.New("executor: workspace is required")
	}
	e := &Executor{ws: ws, tools: DefaultRegistry()}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = log.Default()
	}
	return e, nil
}

// Execute runs every step in order and returns one result per step plus the
// files they wrote. Steps not yet started when ctx is cancelled are reported
// as skipped.
func (e *Executor) Execute(ctx context.Context, steps []plan.Step) plan.Result {
	out := plan.Result{
		ExecutionResults: make([]plan.StepResult, 0, len(steps)),
		Files:            []plan.GeneratedFile{},
	}
	for i, step := range steps {
		var (
			res   plan.StepResult
			files []plan.GeneratedFile
		)
		if err := ctx.Err(); err != nil {
			res = plan.StepResult{Tool: step.Tool, Status: plan.StatusSkipped, Details: fmt.Sprintf("Not executed: %v", err)}
		} else {
			res, files = e.RunStep(ctx, step)
		}
		e.log.Printf("executor: step %d/%d %s -> %s", i+1, len(steps), step.Tool, res.Status)

		out.ExecutionResults = append(out.ExecutionResults, res)
		out.Files = append(out.Files, files...)
		if e.observe != nil {
			e.observe(i, res, files)
		}
	}
	return out
}

// ExecuteJSON decodes a raw plan and executes it. A malformed plan is reported
// once as plan.ErrMalformedPlan and nothing runs.
func (e *Executor) ExecuteJSON(ctx context.Context, raw []byte) (plan.Result, error) {
	steps, err := plan.Decode(raw)
	if err != nil {
		return plan.Result{}, err
	}
	return e.Execute(ctx, steps), nil
}
