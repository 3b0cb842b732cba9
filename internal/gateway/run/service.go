// Package run owns plan runs: each run gets a fresh workspace directory, is
// executed there, and leaves its generated files in the artifact store.
package run

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"bootstrapper/internal/artifact"
	"bootstrapper/internal/executor"
	"bootstrapper/internal/plan"
	"bootstrapper/internal/safeio"
)

// Outcome is what a finished run reports back to callers.
type Outcome struct {
	RunID string `json:"run_id"`
	plan.Result
}

type Options struct {
	// WorkspaceDir is the parent of per-run workspaces.
	WorkspaceDir string
	// Persist keeps each run's workspace on disk after it finishes.
	Persist  bool
	Store    artifact.Store
	Registry *executor.Registry
	Logger   *log.Logger
}

// Service implements plan runs for the HTTP, WebSocket and RPC surfaces.
type Service struct {
	dir     string
	persist bool
	store   artifact.Store
	tools   *executor.Registry
	log     *log.Logger
	newID   func() string
}

func New(opts Options) (*Service, error) {
	dir := strings.TrimSpace(opts.WorkspaceDir)
	if dir == "" {
		return nil, errors.New("run: workspace dir is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("run: create workspace dir: %w", err)
	}
	s := &Service{
		dir:     abs,
		persist: opts.Persist,
		store:   opts.Store,
		tools:   opts.Registry,
		log:     opts.Logger,
		newID:   uuid.NewString,
	}
	if s.store == nil {
		s.store = artifact.NewMemoryStore()
	}
	if s.tools == nil {
		s.tools = executor.DefaultRegistry()
	}
	if s.log == nil {
		s.log = log.Default()
	}
	return s, nil
}

// Tools returns the registry runs dispatch through.
func (s *Service) Tools() *executor.Registry { return s.tools }

// Execute runs steps in a new workspace. observe, when non-nil, sees every
// step result as it completes. Failing to persist artifacts is logged and
// does not fail the run.
func (s *Service) Execute(ctx context.Context, steps []plan.Step, observe executor.StepObserver) (Outcome, error) {
	runID := s.newID()
	root := filepath.Join(s.dir, runID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("run %s: create workspace: %w", runID, err)
	}
	if !s.persist {
		defer func() {
			if err := os.RemoveAll(root); err != nil {
				s.log.Printf("run %s: cleanup failed: %v", runID, err)
			}
		}()
	}

	ws, err := safeio.NewWorkspace(root)
	if err != nil {
		return Outcome{}, fmt.Errorf("run %s: %w", runID, err)
	}
	opts := []executor.Option{executor.WithRegistry(s.tools), executor.WithLogger(s.log)}
	if observe != nil {
		opts = append(opts, executor.WithObserver(observe))
	}
	ex, err := executor.New(ws, opts...)
	if err != nil {
		return Outcome{}, err
	}

	s.log.Printf("run %s: executing %d step(s) in %s", runID, len(steps), root)
	res := ex.Execute(ctx, steps)
	counts := res.Counts()
	s.log.Printf("run %s: done success=%d failed=%d skipped=%d files=%d",
		runID, counts[plan.StatusSuccess], counts[plan.StatusFailed], counts[plan.StatusSkipped], len(res.Files))

	if err := artifact.SaveRun(context.WithoutCancel(ctx), s.store, runID, res, ws.Rel); err != nil {
		s.log.Printf("run %s: storing artifacts failed: %v", runID, err)
	}
	return Outcome{RunID: runID, Result: res}, nil
}

// Files lists the generated file paths stored for a run, relative to its
// workspace.
func (s *Service) Files(ctx context.Context, runID string) ([]string, error) {
	return artifact.ListRunFiles(ctx, s.store, runID)
}

// File returns one stored generated file.
func (s *Service) File(ctx context.Context, runID, path string) ([]byte, error) {
	return artifact.LoadRunFile(ctx, s.store, runID, path)
}

// Result returns the stored result of a finished run.
func (s *Service) Result(ctx context.Context, runID string) (plan.Result, error) {
	return artifact.LoadResult(ctx, s.store, runID)
}
