package handler

import (
	"errors"
	"net/http"
	"strings"

	"bootstrapper/internal/artifact"
	"bootstrapper/internal/plan"
)

// HandleExecute runs the posted plan in a fresh workspace.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	steps, err := plan.Decode(raw)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := h.runs.Execute(r.Context(), steps, nil)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRunResult returns the stored result of a run.
func (h *Handler) HandleRunResult(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))
	res, err := h.runs.Result(r.Context(), runID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":            runID,
		"execution_results": res.ExecutionResults,
		"files":             res.Files,
	})
}

// HandleRunFiles lists the artifacts stored for a run.
func (h *Handler) HandleRunFiles(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))
	files, err := h.runs.Files(r.Context(), runID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": runID, "files": files})
}

// HandleRunFile serves one artifact as plain text.
func (h *Handler) HandleRunFile(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(r.PathValue("run_id"))
	raw, err := h.runs.File(r.Context(), runID, r.PathValue("path"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(raw)
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, artifact.ErrNotFound):
		writeDetail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, artifact.ErrInvalidKey):
		writeDetail(w, http.StatusBadRequest, err.Error())
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}
