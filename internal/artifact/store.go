// Package artifact persists the files produced by plan runs, keyed by run id
// and relative path.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Store defines operations for persisting run artifacts.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	List(ctx context.Context, runID string) ([]string, error)
}

var (
	ErrNotFound   = errors.New("artifact not found")
	ErrInvalidKey = errors.New("invalid artifact key")
)

// ResultFile is the path under which the JSON execution result of a run is
// stored. Generated files are kept apart from it under their own prefix.
const ResultFile = "result.json"

func normalizeKey(runID, p string) (string, string, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", "", fmt.Errorf("%w: run_id is required", ErrInvalidKey)
	}
	if strings.Contains(runID, "/") {
		return "", "", fmt.Errorf("%w: run_id %q", ErrInvalidKey, runID)
	}
	p = strings.TrimLeft(strings.TrimSpace(strings.ReplaceAll(p, `\`, "/")), "/")
	if p == "" {
		return "", "", fmt.Errorf("%w: path is required", ErrInvalidKey)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", "", fmt.Errorf("%w: path %q", ErrInvalidKey, p)
	}
	return runID, clean, nil
}

func normalizeRunID(runID string) (string, error) {
	id, _, err := normalizeKey(runID, "x")
	return id, err
}

func objectKey(runID, p string) string { return runID + "/" + p }
