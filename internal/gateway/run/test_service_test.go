package run

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootstrapper/internal/artifact"
	"bootstrapper/internal/plan"
)

func newTestService(t *testing.T, persist bool) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(Options{
		WorkspaceDir: dir,
		Persist:      persist,
		Store:        artifact.NewMemoryStore(),
		Logger:       log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)
	s.newID = func() string { return "run-1" }
	return s, dir
}

var samplePlan = []plan.Step{
	{Tool: plan.ToolCreateDockerfile, Args: map[string]any{"content": "FROM python:3.11"}, SuccessCheck: "Dockerfile created"},
	{Tool: plan.ToolGenerateK8sManifests, Args: map[string]any{"content": map[string]any{"svc.yml": "kind: Service"}}},
	{Tool: "helm_install", Args: map[string]any{}},
}

func TestExecuteStoresArtifactsAndCleansUp(t *testing.T) {
	s, dir := newTestService(t, false)
	var seen []int
	out, err := s.Execute(context.Background(), samplePlan, func(i int, _ plan.StepResult, _ []plan.GeneratedFile) {
		seen = append(seen, i)
	})
	require.NoError(t, err)

	assert.Equal(t, "run-1", out.RunID)
	require.Len(t, out.ExecutionResults, 3)
	assert.Equal(t, plan.StatusSuccess, out.ExecutionResults[0].Status)
	assert.Equal(t, plan.StatusSuccess, out.ExecutionResults[1].Status)
	assert.Equal(t, plan.StatusSkipped, out.ExecutionResults[2].Status)
	assert.Equal(t, []int{0, 1, 2}, seen)

	files, err := s.Files(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dockerfile", "k8s/svc.yml"}, files)

	raw, err := s.File(context.Background(), "run-1", "k8s/svc.yml")
	require.NoError(t, err)
	assert.Equal(t, "kind: Service", string(raw))

	res, err := s.Result(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, out.Result, res)

	_, err = os.Stat(filepath.Join(dir, "run-1"))
	assert.True(t, os.IsNotExist(err), "workspace should be removed")
}

func TestExecutePersistKeepsWorkspace(t *testing.T) {
	s, dir := newTestService(t, true)
	_, err := s.Execute(context.Background(), samplePlan[:1], nil)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "run-1", "Dockerfile"))
	require.NoError(t, err)
	assert.Equal(t, "FROM python:3.11", string(raw))
}

func TestGeneratedResultJSONIsNotOverwritten(t *testing.T) {
	s, _ := newTestService(t, false)
	out, err := s.Execute(context.Background(), []plan.Step{{
		Tool: plan.ToolGenerateK8sManifests,
		Args: map[string]any{"file_path": "result.json", "content": "kind: Deployment"},
	}}, nil)
	require.NoError(t, err)
	require.Len(t, out.Files, 1)
	assert.Equal(t, "kind: Deployment", out.Files[0].Content)

	raw, err := s.File(context.Background(), "run-1", "result.json")
	require.NoError(t, err)
	assert.Equal(t, "kind: Deployment", string(raw))

	res, err := s.Result(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, out.Result, res)
}

func TestAbsolutePathsStoredRelativeToWorkspace(t *testing.T) {
	s, dir := newTestService(t, false)
	abs := filepath.Join(dir, "run-1", "docker", "Dockerfile")
	out, err := s.Execute(context.Background(), []plan.Step{{
		Tool: plan.ToolCreateDockerfile,
		Args: map[string]any{"file_path": abs, "content": "FROM alpine"},
	}}, nil)
	require.NoError(t, err)
	require.Equal(t, plan.StatusSuccess, out.ExecutionResults[0].Status, out.ExecutionResults[0].Details)
	assert.Equal(t, abs, out.Files[0].FilePath)

	files, err := s.Files(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"docker/Dockerfile"}, files)

	raw, err := s.File(context.Background(), "run-1", "docker/Dockerfile")
	require.NoError(t, err)
	assert.Equal(t, "FROM alpine", string(raw))
}

func TestFilesOfUnknownRun(t *testing.T) {
	s, _ := newTestService(t, false)
	_, err := s.Files(context.Background(), "nope")
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New(Options{WorkspaceDir: " "})
	require.Error(t, err)
}
