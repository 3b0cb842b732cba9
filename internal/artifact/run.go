package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"bootstrapper/internal/plan"
	"bootstrapper/internal/util/jsonutil"
)

// filesDir holds the generated files of a run. ResultFile lives beside it, so
// no plan path can overwrite the stored result.
const filesDir = "files"

// KeyFunc maps a reported file path to the path it is stored under.
type KeyFunc func(filePath string) (string, error)

// SaveRun stores every generated file of res under runID, followed by the
// whole result as ResultFile. A later file with the same path replaces an
// earlier one, matching the workspace state after the run. keyOf may be nil.
func SaveRun(ctx context.Context, s Store, runID string, res plan.Result, keyOf KeyFunc) error {
	for _, f := range res.Files {
		p := f.FilePath
		if keyOf != nil {
			rel, err := keyOf(p)
			if err != nil {
				return fmt.Errorf("store %s: %w", f.FilePath, err)
			}
			p = rel
		}
		key, err := fileKey(p)
		if err != nil {
			return fmt.Errorf("store %s: %w", f.FilePath, err)
		}
		if err := s.Put(ctx, runID, key, []byte(f.Content)); err != nil {
			return fmt.Errorf("store %s: %w", f.FilePath, err)
		}
	}
	raw, err := jsonutil.MarshalNoEscapeIndent(res, "  ")
	if err != nil {
		return err
	}
	return s.Put(ctx, runID, ResultFile, raw)
}

// LoadResult reads back the result stored by SaveRun.
func LoadResult(ctx context.Context, s Store, runID string) (plan.Result, error) {
	raw, err := s.Get(ctx, runID, ResultFile)
	if err != nil {
		return plan.Result{}, err
	}
	var res plan.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return plan.Result{}, fmt.Errorf("decode %s: %w", ResultFile, err)
	}
	return res, nil
}

// ListRunFiles returns the generated file paths stored for runID. A run with
// nothing stored at all is ErrNotFound; a run that wrote no files lists empty.
func ListRunFiles(ctx context.Context, s Store, runID string) ([]string, error) {
	keys, err := s.List(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	files := []string{}
	for _, k := range keys {
		if rel, ok := strings.CutPrefix(k, filesDir+"/"); ok {
			files = append(files, rel)
		}
	}
	return files, nil
}

// LoadRunFile returns one generated file stored by SaveRun.
func LoadRunFile(ctx context.Context, s Store, runID, p string) ([]byte, error) {
	key, err := fileKey(p)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, runID, key)
}

func fileKey(p string) (string, error) {
	p = strings.TrimLeft(strings.TrimSpace(strings.ReplaceAll(p, `\`, "/")), "/")
	if p == "" {
		return "", fmt.Errorf("%w: path is required", ErrInvalidKey)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: path %q", ErrInvalidKey, p)
	}
	return filesDir + "/" + clean, nil
}
