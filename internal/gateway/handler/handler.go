// Package handler implements the gateway's HTTP, WebSocket and Connect
// endpoints on top of the clone, scan, planner and run services.
package handler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"bootstrapper/internal/gateway/run"
	"bootstrapper/internal/gitclone"
	"bootstrapper/internal/planner"
	"bootstrapper/internal/scan"
	"bootstrapper/internal/util/jsonutil"
)

// maxBodyBytes bounds request bodies and WebSocket plan messages.
const maxBodyBytes = 8 << 20

// discoveredFilesCap bounds the file list returned by /scan.
const discoveredFilesCap = 1000

// Planner drafts a plan from a scan summary.
type Planner interface {
	Plan(ctx context.Context, summary scan.Summary) (planner.Draft, error)
}

type Deps struct {
	Runs *run.Service
	// Planner may be nil when no model is configured; /plan then answers 503.
	Planner Planner
	// Clone defaults to gitclone.Clone.
	Clone func(ctx context.Context, opts gitclone.Options) (gitclone.Result, error)
	// Summarize defaults to scan.SummarizeDir.
	Summarize func(root string) (scan.Summary, error)
	// CloneDir is the parent of temporary clones; empty uses the OS temp dir.
	CloneDir string
	// PersistWorkspace keeps clones after /scan.
	PersistWorkspace bool
	Logger           *log.Logger
}

type Handler struct {
	runs      *run.Service
	planner   Planner
	clone     func(ctx context.Context, opts gitclone.Options) (gitclone.Result, error)
	summarize func(root string) (scan.Summary, error)
	cloneDir  string
	persist   bool
	log       *log.Logger
}

func New(d Deps) *Handler {
	h := &Handler{
		runs:      d.Runs,
		planner:   d.Planner,
		clone:     d.Clone,
		summarize: d.Summarize,
		cloneDir:  d.CloneDir,
		persist:   d.PersistWorkspace,
		log:       d.Logger,
	}
	if h.clone == nil {
		h.clone = gitclone.Clone
	}
	if h.summarize == nil {
		h.summarize = scan.SummarizeDir
	}
	if h.log == nil {
		h.log = log.Default()
	}
	return h
}

// errorBody mirrors the {"detail": "..."} shape clients already parse.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonutil.Encode(w, v, "")
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, errors.New("request body too large")
		}
		return nil, err
	}
	return raw, nil
}
