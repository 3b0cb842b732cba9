package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSummarizeDirPythonService(t *testing.T) {
	root := filepath.Join(t.TempDir(), "shop-api")
	write(t, root, "app/main.py", "from fastapi import FastAPI\napp = FastAPI()\n")
	write(t, root, "app/server.py", "import uvicorn\nuvicorn.run('app.main:app')\n")
	write(t, root, "requirements.txt", "fastapi\nSQLAlchemy\npsycopg2-binary\n")
	write(t, root, "tests/test_api.py", "def test_ok(): pass\n")
	write(t, root, "static/index.html", "<html></html>")
	write(t, root, "static/app.ts", "console.log(1)")
	write(t, root, ".git/HEAD", "ref: refs/heads/main")
	write(t, root, "node_modules/react/index.js", "module.exports = {}")
	write(t, root, "Dockerfile", "FROM python:3.11")
	write(t, root, ".github/workflows/ci.yml", "on: push")

	s, err := SummarizeDir(root)
	require.NoError(t, err)

	assert.Equal(t, "shop-api", s.ProjectName)
	assert.Equal(t, []string{"html", "javascript", "python"}, s.Languages)
	assert.Equal(t, []string{"fastapi", "sqlalchemy"}, s.Frameworks)
	assert.Equal(t, "postgres", s.Database)
	assert.True(t, s.HasTests)
	assert.Equal(t, []string{"app/main.py", "app/server.py"}, s.Entrypoints)
	assert.Equal(t, Infrastructure{Dockerfile: true, CI: true}, s.Infrastructure)
	assert.NotContains(t, s.DiscoveredFiles, ".git/HEAD")
	assert.NotContains(t, s.DiscoveredFiles, "node_modules/react/index.js")
	assert.Contains(t, s.DiscoveredFiles, ".github/workflows/ci.yml")
}

func TestDetectDatabaseOrder(t *testing.T) {
	cases := map[string]string{
		"pymysql\n":                 "mysql",
		"import sqlite3\n":          "sqlite",
		"postgresql://x\nsqlite\n": "postgres",
		"requests\n":                "",
	}
	for body, want := range cases {
		root := t.TempDir()
		write(t, root, "requirements.txt", body)
		s, err := SummarizeDir(root)
		if err != nil {
			t.Fatalf("SummarizeDir: %v", err)
		}
		if s.Database != want {
			t.Fatalf("body %q: database=%q want %q", body, s.Database, want)
		}
	}
}

func TestDetectInfrastructure(t *testing.T) {
	got := DetectInfrastructure([]string{
		"deploy/docker-compose.prod.yml",
		"k8s/app.yaml",
		".gitlab-ci.yml",
		"docker/Dockerfile.j2",
	})
	want := Infrastructure{Dockerfile: true, DockerCompose: true, K8sManifests: true, CI: true}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if (DetectInfrastructure([]string{"README.md", "main.go"}) != Infrastructure{}) {
		t.Fatalf("expected no infrastructure")
	}
}

func TestDetectFrameworksReact(t *testing.T) {
	root := t.TempDir()
	write(t, root, "README.md", "Bootstrapped with Create-React-App")
	s, err := SummarizeDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"react"}, s.Frameworks)
	assert.False(t, s.HasTests)
	assert.Empty(t, s.Entrypoints)
}

func TestSummaryCapped(t *testing.T) {
	s := Summary{DiscoveredFiles: []string{"a", "b", "c"}}
	c := s.Capped(2)
	if len(c.DiscoveredFiles) != 2 || len(s.DiscoveredFiles) != 3 {
		t.Fatalf("cap misbehaved: %v / %v", c.DiscoveredFiles, s.DiscoveredFiles)
	}
	if len(s.Capped(10).DiscoveredFiles) != 3 {
		t.Fatalf("cap larger than list should keep everything")
	}
}

func TestSummarizeDirMissingRoot(t *testing.T) {
	if _, err := SummarizeDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing root")
	}
}
