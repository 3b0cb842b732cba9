// Package scan produces a repository scan summary: detected languages,
// frameworks, database, entrypoints and existing infrastructure files. The
// summary is the input a planner turns into an execution plan.
package scan

import (
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"bootstrapper/internal/safeio"
)

// headBytes bounds how much of each file is inspected for keywords.
const headBytes = 2000

// Infrastructure flags which deployment artifacts already exist.
type Infrastructure struct {
	Dockerfile    bool `json:"dockerfile"`
	DockerCompose bool `json:"docker_compose"`
	K8sManifests  bool `json:"k8s_manifests"`
	CI            bool `json:"ci"`
}

// Summary is the structured metadata handed to the planner.
type Summary struct {
	ProjectName     string         `json:"project_name"`
	RepoURL         string         `json:"repo_url,omitempty"`
	Branch          string         `json:"branch,omitempty"`
	Languages       []string       `json:"languages"`
	Frameworks      []string       `json:"frameworks"`
	Database        string         `json:"database,omitempty"`
	HasTests        bool           `json:"has_tests"`
	Entrypoints     []string       `json:"entrypoints"`
	Infrastructure  Infrastructure `json:"infrastructure"`
	DiscoveredFiles []string       `json:"discovered_files"`
	Note            string         `json:"note,omitempty"`
}

// Capped returns a copy whose DiscoveredFiles list holds at most n entries.
func (s Summary) Capped(n int) Summary {
	if n >= 0 && len(s.DiscoveredFiles) > n {
		s.DiscoveredFiles = append([]string(nil), s.DiscoveredFiles[:n]...)
	}
	return s
}

var skipDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true, "node_modules": true,
	"vendor": true, "__pycache__": true, ".venv": true, ".cache": true,
}

// SummarizeDir scans the directory at root. The project name is the base
// name of root.
func SummarizeDir(root string) (Summary, error) {
	ws, err := safeio.NewWorkspace(root)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(ws, filepath.Base(strings.TrimRight(root, `/\`)))
}

// Summarize scans fsys from its root.
func Summarize(fsys fs.FS, projectName string) (Summary, error) {
	files, err := ListFiles(fsys)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		ProjectName:     projectName,
		Languages:       DetectLanguages(files),
		Frameworks:      DetectFrameworks(fsys, files),
		Database:        DetectDatabase(fsys, files),
		HasTests:        hasTests(files),
		Entrypoints:     FindEntrypoints(fsys, files),
		Infrastructure:  DetectInfrastructure(files),
		DiscoveredFiles: files,
	}, nil
}

// ListFiles returns every regular file under fsys as a slash-separated
// relative path, skipping VCS and dependency directories.
func ListFiles(fsys fs.FS) ([]string, error) {
	files := []string{}
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if p != "." && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func readHead(fsys fs.FS, name string) string {
	f, err := fsys.Open(name)
	if err != nil {
		return ""
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, headBytes))
	if err != nil {
		return ""
	}
	return string(b)
}

func hasTests(files []string) bool {
	for _, f := range files {
		if strings.HasPrefix(f, "tests/") || strings.HasSuffix(f, "_test.py") || strings.HasSuffix(f, "test.py") {
			return true
		}
	}
	return false
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
