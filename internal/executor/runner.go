package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"bootstrapper/internal/plan"
)

const defaultOnFail = "Step failed."

// RunStep executes a single step. Every failure is folded into the returned
// result; nothing a tool does can escape this boundary.
func (e *Executor) RunStep(ctx context.Context, step plan.Step) (plan.StepResult, []plan.GeneratedFile) {
	res := plan.StepResult{Tool: step.Tool}

	tool, ok := e.tools.Lookup(step.Tool)
	if !step.Tool.Known() || !ok {
		res.Status = plan.StatusSkipped
		res.Details = fmt.Sprintf("Unknown tool: %s", step.Tool)
		return res, nil
	}

	args := Normalize(step.Tool, step.Args)
	out, err := e.invoke(ctx, tool, args)
	var files []plan.GeneratedFile
	if err == nil {
		files, err = e.readBack(step.Tool, out.Written)
	}
	if err != nil {
		onFail := step.OnFail
		if onFail == "" {
			onFail = defaultOnFail
		}
		res.Status = plan.StatusFailed
		res.Details = fmt.Sprintf("%s | Error: %v", onFail, err)
		return res, nil
	}

	res.Status = plan.StatusSuccess
	res.Details = out.Message
	if step.SuccessCheck != "" {
		res.Details = step.SuccessCheck
	}
	return res, files
}

func (e *Executor) invoke(ctx context.Context, tool Tool, args Args) (out Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", tool.Spec().Name, r)
		}
	}()
	return tool.Run(ctx, e.ws, args)
}

// readBack loads each written path from disk so the report reflects what
// actually landed there. Paths that no longer exist are logged and left out.
func (e *Executor) readBack(kind plan.ToolKind, paths []string) ([]plan.GeneratedFile, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(paths))
	files := make([]plan.GeneratedFile, 0, len(paths))
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		data, err := e.ws.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			e.log.Printf("executor: %s reported %s but it is not on disk", kind, p)
			continue
		}
		if err != nil {
			return nil, &FilesystemError{Op: "read", Path: p, Err: err}
		}
		files = append(files, plan.GeneratedFile{Tool: kind, FilePath: p, Content: string(data)})
	}
	return files, nil
}
