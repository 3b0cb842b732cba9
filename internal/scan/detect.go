package scan

import (
	"io/fs"
	"sort"
	"strings"
)

var languageByExt = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "javascript",
	".html": "html",
	".css":  "css",
	".go":   "go",
}

// DetectLanguages maps file extensions to language names (sorted, unique).
func DetectLanguages(files []string) []string {
	set := map[string]struct{}{}
	for _, f := range files {
		for ext, lang := range languageByExt {
			if strings.HasSuffix(f, ext) {
				set[lang] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for lang := range set {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// frameworkMarkers is checked in order; a framework is reported when any of
// its markers appears in the inspected text.
var frameworkMarkers = []struct {
	name    string
	markers []string
}{
	{"fastapi", []string{"fastapi"}},
	{"flask", []string{"flask"}},
	{"django", []string{"django"}},
	{"sqlalchemy", []string{"sqlalchemy"}},
	{"alembic", []string{"alembic"}},
	{"react", []string{"react", "create-react-app"}},
	{"vue", []string{"vue"}},
}

// DetectFrameworks looks for framework names in the heads of Python sources,
// docs and dependency manifests.
func DetectFrameworks(fsys fs.FS, files []string) []string {
	var sb strings.Builder
	for _, f := range files {
		if hasAnySuffix(f, ".py", ".txt", ".md", "pyproject.toml", "Pipfile") {
			sb.WriteString(readHead(fsys, f))
			sb.WriteByte('\n')
		}
	}
	text := strings.ToLower(sb.String())
	out := []string{}
	for _, fw := range frameworkMarkers {
		for _, m := range fw.markers {
			if strings.Contains(text, m) {
				out = append(out, fw.name)
				break
			}
		}
	}
	return out
}

// DetectDatabase returns "postgres", "mysql", "sqlite" or "" based on driver
// names in Python sources and dependency manifests.
func DetectDatabase(fsys fs.FS, files []string) string {
	var sb strings.Builder
	for _, f := range files {
		if hasAnySuffix(f, ".py", "requirements.txt", "pyproject.toml", "Pipfile") {
			sb.WriteString(readHead(fsys, f))
		}
	}
	text := strings.ToLower(sb.String())
	switch {
	case strings.Contains(text, "psycopg2"), strings.Contains(text, "postgresql"):
		return "postgres"
	case strings.Contains(text, "mysqlclient"), strings.Contains(text, "pymysql"):
		return "mysql"
	case strings.Contains(text, "sqlite"):
		return "sqlite"
	}
	return ""
}

// FindEntrypoints returns conventional entry files plus any Python module
// that mentions an ASGI/WSGI server, sorted and de-duplicated.
func FindEntrypoints(fsys fs.FS, files []string) []string {
	set := map[string]struct{}{}
	for _, f := range files {
		if hasAnySuffix(f, "main.py", "app.py", "wsgi.py") {
			set[f] = struct{}{}
		}
	}
	for _, f := range files {
		if !strings.HasSuffix(f, ".py") {
			continue
		}
		head := readHead(fsys, f)
		if strings.Contains(head, "uvicorn") || strings.Contains(head, "gunicorn") {
			set[f] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// DetectInfrastructure reports which deployment artifacts already exist.
func DetectInfrastructure(files []string) Infrastructure {
	var infra Infrastructure
	for _, f := range files {
		lower := strings.ToLower(f)
		if strings.HasSuffix(lower, "dockerfile") || strings.HasSuffix(lower, "dockerfile.j2") {
			infra.Dockerfile = true
		}
		if strings.Contains(lower, "docker-compose") || strings.HasSuffix(lower, "compose.yaml") {
			infra.DockerCompose = true
		}
		if hasAnySuffix(f, ".yaml", ".yml") &&
			(strings.Contains(lower, "k8s") || strings.Contains(lower, "deployment") || strings.Contains(lower, "service")) {
			infra.K8sManifests = true
		}
		if strings.HasPrefix(lower, ".github/") || strings.Contains(lower, "gitlab-ci") || strings.Contains(lower, ".circleci") {
			infra.CI = true
		}
	}
	return infra
}
