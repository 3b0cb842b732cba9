package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"bootstrapper/internal/gitclone"
)

type scanRequest struct {
	RepoURL     string  `json:"repo_url"`
	Branch      *string `json:"branch"`
	GithubToken string  `json:"github_token"`
}

// HandleScan clones the requested repository, summarizes it and removes the
// clone again unless workspaces are persisted.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	var req scanRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.RepoURL = strings.TrimSpace(req.RepoURL)
	if req.RepoURL == "" {
		writeDetail(w, http.StatusBadRequest, "repo_url is required")
		return
	}
	branch := ""
	if req.Branch != nil {
		branch = strings.TrimSpace(*req.Branch)
	}

	cloned, err := h.clone(r.Context(), gitclone.Options{
		RepoURL:   req.RepoURL,
		Branch:    branch,
		Token:     req.GithubToken,
		ParentDir: h.cloneDir,
	})
	if err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Failed to clone repo: %v", err))
		return
	}
	defer func() {
		if h.persist {
			h.log.Printf("scan: keeping clone of %s at %s", req.RepoURL, cloned.Path)
			return
		}
		if err := os.RemoveAll(cloned.Path); err != nil {
			h.log.Printf("scan: cleanup %s: %v", cloned.Path, err)
		}
	}()

	summary, err := h.summarize(cloned.Path)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Scan failed: %v", err))
		return
	}
	if name := gitclone.RepoName(req.RepoURL); name != "" {
		summary.ProjectName = name
	}
	summary.RepoURL = req.RepoURL
	summary.Branch = branch
	summary.Note = cloned.Note
	h.log.Printf("scan: %s languages=%v frameworks=%v files=%d", req.RepoURL, summary.Languages, summary.Frameworks, len(summary.DiscoveredFiles))
	writeJSON(w, http.StatusOK, summary.Capped(discoveredFilesCap))
}
