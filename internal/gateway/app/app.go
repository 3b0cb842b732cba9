package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"bootstrapper/internal/executor"
	"bootstrapper/internal/gateway/config"
	"bootstrapper/internal/gateway/handler"
	"bootstrapper/internal/gateway/run"
	"bootstrapper/internal/gateway/server"
	"bootstrapper/internal/llm"
	"bootstrapper/internal/planner"
)

type App struct {
	server *server.Server
	client llm.Client
	db     *sql.DB
}

// New wires stores, services and routes from cfg. A missing model key only
// disables planning; everything else still works.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	logger := log.Default()

	store, db, err := initArtifactStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	runs, err := run.New(run.Options{
		WorkspaceDir: filepath.Join(cfg.WorkspaceDir, "runs"),
		Persist:      cfg.PersistWorkspace,
		Store:        store,
		Registry:     executor.DefaultRegistry(),
		Logger:       logger,
	})
	if err != nil {
		closeDB(db)
		return nil, err
	}

	a := &App{db: db}
	deps := handler.Deps{
		Runs:             runs,
		CloneDir:         filepath.Join(cfg.WorkspaceDir, "clones"),
		PersistWorkspace: cfg.PersistWorkspace,
		Logger:           logger,
	}
	if cfg.LLM.APIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey: cfg.LLM.APIKey,
			Model:  cfg.LLM.Model,
			RPS:    cfg.LLM.RPS,
			Burst:  cfg.LLM.Burst,
		})
		if err != nil {
			closeDB(db)
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		a.client = llm.WithHook(gemini, llm.LogHook{Logger: logger})
		deps.Planner = planner.New(a.client, runs.Tools().Specs(), logger)
	} else {
		log.Printf("planner: disabled (GEMINI_API_KEY not set)")
	}
	if err := os.MkdirAll(deps.CloneDir, 0o755); err != nil {
		a.Close()
		return nil, fmt.Errorf("create clone dir: %w", err)
	}

	mux := server.NewMux(handler.New(deps), logger)
	a.server = server.New(cfg.Port, mux)
	return a, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.Close()
	return err
}

// Close releases the model client and database handle.
func (a *App) Close() {
	if a.client != nil {
		_ = a.client.Close()
		a.client = nil
	}
	closeDB(a.db)
	a.db = nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

// Serve starts the server and blocks until ctx is done, then shuts down with
// a five second grace period.
func (a *App) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Start() }()

	select {
	case err := <-errCh:
		a.Close()
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("Server exiting")
	return nil
}
