package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"bootstrapper/internal/scan"
)

// HandlePlan turns a scan summary into a plan. The response body is the plan
// JSON as decoded from the model.
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	if h.planner == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Planner failed: no model configured (set GEMINI_API_KEY)")
		return
	}
	raw, err := readBody(w, r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	var summary scan.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json body")
		return
	}
	draft, err := h.planner.Plan(r.Context(), summary)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Planner failed: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(draft.Raw)
}
