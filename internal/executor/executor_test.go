package executor

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootstrapper/internal/plan"
	"bootstrapper/internal/safeio"
)

func newTestExecutor(t *testing.T, opts ...Option) (*Executor, string) {
	t.Helper()
	root := t.TempDir()
	ws, err := safeio.NewWorkspace(root)
	require.NoError(t, err)
	opts = append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)
	e, err := New(ws, opts...)
	require.NoError(t, err)
	return e, ws.Root()
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func TestNewRequiresWorkspace(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for nil workspace")
	}
}

func TestDockerfileRoundTrip(t *testing.T) {
	e, root := newTestExecutor(t)
	res := e.Execute(context.Background(), []plan.Step{{
		Tool:         plan.ToolCreateDockerfile,
		Args:         map[string]any{"file_path": "Dockerfile", "content": "FROM python:3.9"},
		SuccessCheck: "Dockerfile generated",
	}})

	require.Len(t, res.ExecutionResults, 1)
	assert.Equal(t, plan.StepResult{Tool: plan.ToolCreateDockerfile, Status: plan.StatusSuccess, Details: "Dockerfile generated"}, res.ExecutionResults[0])
	require.Len(t, res.Files, 1)
	assert.Equal(t, plan.GeneratedFile{Tool: plan.ToolCreateDockerfile, FilePath: "Dockerfile", Content: "FROM python:3.9"}, res.Files[0])
	assert.Equal(t, "FROM python:3.9", readFile(t, root, "Dockerfile"))
}

func TestSuccessDetailsFallBackToToolMessage(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := e.Execute(context.Background(), []plan.Step{{
		Tool: plan.ToolWriteDockerCompose,
		Args: map[string]any{"content": "services: {}"},
	}})
	r := res.ExecutionResults[0]
	assert.Equal(t, plan.StatusSuccess, r.Status)
	assert.Contains(t, r.Details, "docker-compose.yml created successfully at docker-compose.yml")
	require.Len(t, res.Files, 1)
	assert.Equal(t, DefaultComposePath, res.Files[0].FilePath)
}

func TestMissingContentFails(t *testing.T) {
	e, root := newTestExecutor(t)
	res := e.Execute(context.Background(), []plan.Step{{
		Tool:   plan.ToolWriteDockerCompose,
		Args:   map[string]any{"file_path": "docker-compose.yml"},
		OnFail: "compose generation failed",
	}})
	r := res.ExecutionResults[0]
	assert.Equal(t, plan.StatusFailed, r.Status)
	assert.Contains(t, r.Details, "compose generation failed")
	assert.Contains(t, r.Details, "missing content")
	assert.Empty(t, res.Files)
	_, err := os.Stat(filepath.Join(root, "docker-compose.yml"))
	assert.True(t, os.IsNotExist(err))
}

func TestDefaultOnFailMessage(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := e.Execute(context.Background(), []plan.Step{{Tool: plan.ToolCreateDockerfile}})
	if got := res.ExecutionResults[0].Details; !strings.HasPrefix(got, "Step failed. | Error: ") {
		t.Fatalf("unexpected details %q", got)
	}
}

func TestCIPipelineCreatesParents(t *testing.T) {
	e, root := newTestExecutor(t)
	res := e.Execute(context.Background(), []plan.Step{{
		Tool: plan.ToolSetupCIPipeline,
		Args: map[string]any{"content": "name: ci\n"},
	}})
	require.Equal(t, plan.StatusSuccess, res.ExecutionResults[0].Status, res.ExecutionResults[0].Details)
	assert.Equal(t, "name: ci\n", readFile(t, root, ".github/workflows/ci.yml"))
	require.Len(t, res.Files, 1)
	assert.Equal(t, ".github/workflows/ci.yml", res.Files[0].FilePath)
}

func TestK8sMultiFileExpansion(t *testing.T) {
	e, root := newTestExecutor(t)
	res := e.Execute(context.Background(), []plan.Step{{
		Tool: plan.ToolGenerateK8sManifests,
		Args: map[string]any{
			"file_path": "k8s/",
			"content": map[string]any{
				"service.yml":    "kind: Service\n",
				"deployment.yml": "kind: Deployment\n",
			},
		},
	}})
	require.Equal(t, plan.StatusSuccess, res.ExecutionResults[0].Status, res.ExecutionResults[0].Details)
	require.Len(t, res.Files, 2)
	assert.Equal(t, "k8s/deployment.yml", res.Files[0].FilePath)
	assert.Equal(t, "kind: Deployment\n", res.Files[0].Content)
	assert.Equal(t, "k8s/service.yml", res.Files[1].FilePath)
	assert.Equal(t, "kind: Service\n", res.Files[1].Content)
	assert.Equal(t, "kind: Service\n", readFile(t, root, "k8s/service.yml"))
}

func TestK8sNestedEntriesCreateSubdirectories(t *testing.T) {
	e, root := newTestExecutor(t)
	res := e.Execute(context.Background(), []plan.Step{{
		Tool: plan.ToolGenerateK8sManifests,
		Args: map[string]any{
			"file_path": "deploy/",
			"content":   map[string]any{"base/app.yml": "a", "overlays/prod.yml": "b"},
		},
	}})
	require.Equal(t, plan.StatusSuccess, res.ExecutionResults[0].Status, res.ExecutionResults[0].Details)
	assert.Equal(t, "a", readFile(t, root, "deploy/base/app.yml"))
	assert.Equal(t, "b", readFile(t, root, "deploy/overlays/prod.yml"))
}

func TestK8sSingleManifestPlacement(t *testing.T) {
	tests := []struct {
		name     string
		filePath any
		mkdir    string
		wantPath string
	}{
		{name: "trailing slash", filePath: "k8s/", wantPath: "k8s/deployment.yml"},
		{name: "existing directory", filePath: "manifests", mkdir: "manifests", wantPath: "manifests/deployment.yml"},
		{name: "plain file", filePath: "k8s/app.yaml", wantPath: "k8s/app.yaml"},
		{name: "default path", filePath: nil, wantPath: "k8s/deployment.yml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, root := newTestExecutor(t)
			if tt.mkdir != "" {
				require.NoError(t, os.MkdirAll(filepath.Join(root, tt.mkdir), 0o755))
			}
			args := map[string]any{"content": "kind: Deployment"}
			if tt.filePath != nil {
				args["file_path"] = tt.filePath
			}
			res := e.Execute(context.Background(), []plan.Step{{Tool: plan.ToolGenerateK8sManifests, Args: args}})
			require.Equal(t, plan.StatusSuccess, res.ExecutionResults[0].Status, res.ExecutionResults[0].Details)
			require.Len(t, res.Files, 1)
			assert.Equal(t, tt.wantPath, res.Files[0].FilePath)
			assert.Equal(t, "kind: Deployment", readFile(t, root, tt.wantPath))
		})
	}
}

func TestUnsupportedContentShapes(t *testing.T) {
	e, _ := newTestExecutor(t)
	steps := []plan.Step{
		{Tool: plan.ToolCreateDockerfile, Args: map[string]any{"content": map[string]any{"a": "b"}}},
		{Tool: plan.ToolGenerateK8sManifests, Args: map[string]any{"content": []any{"kind: Pod"}}},
		{Tool: plan.ToolGenerateK8sManifests, Args: map[string]any{"file_path": "k8s/", "content": map[string]any{"a.yml": 12.0}}},
		{Tool: plan.ToolGenerateK8sManifests, Args: map[string]any{"file_path": "k8s/", "content": map[string]any{"/etc/passwd": "x"}}},
	}
	res := e.Execute(context.Background(), steps)
	for i, r := range res.ExecutionResults {
		assert.Equal(t, plan.StatusFailed, r.Status, "step %d", i)
		assert.Contains(t, r.Details, "unsupported content", "step %d", i)
	}
	assert.Empty(t, res.Files)
}

func TestPathEscapeIsFilesystemFailure(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := e.Execute(context.Background(), []plan.Step{{
		Tool: plan.ToolCreateDockerfile,
		Args: map[string]any{"file_path": "../Dockerfile", "content": "FROM scratch"},
	}})
	r := res.ExecutionResults[0]
	assert.Equal(t, plan.StatusFailed, r.Status)
	assert.Contains(t, r.Details, "write ../Dockerfile")
}

func TestUnknownToolSkippedAndDoesNotBlock(t *testing.T) {
	e, _ := newTestExecutor(t)
	res := e.Execute(context.Background(), []plan.Step{
		{Tool: "frobnicate", Args: map[string]any{"file_path": "x", "content": "y"}},
		{Tool: plan.ToolCreateDockerfile, Args: map[string]any{"content": "FROM scratch"}},
	})
	require.Len(t, res.ExecutionResults, 2)
	assert.Equal(t, plan.StepResult{Tool: "frobnicate", Status: plan.StatusSkipped, Details: "Unknown tool: frobnicate"}, res.ExecutionResults[0])
	assert.Equal(t, plan.StatusSuccess, res.ExecutionResults[1].Status)
	require.Len(t, res.Files, 1)
	assert.Equal(t, plan.ToolCreateDockerfile, res.Files[0].Tool)
}

func TestDeployIsNoOp(t *testing.T) {
	e, root := newTestExecutor(t)
	for _, args := range []map[string]any{
		nil,
		{"manifest_path": "k8s/deployment.yml", "cluster_context": "prod"},
		{"file_path": "should-not-exist.txt", "content": "nope"},
	} {
		res := e.Execute(context.Background(), []plan.Step{{Tool: plan.ToolDeployToCluster, Args: args}})
		r := res.ExecutionResults[0]
		assert.Equal(t, plan.StatusSuccess, r.Status)
		assert.Contains(t, r.Details, "(simulated)")
		assert.Empty(t, res.Files)
	}
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "deploy must not touch the workspace")
}

func TestOrderAndIsolation(t *testing.T) {
	e, _ := newTestExecutor(t)
	steps := []plan.Step{
		{Tool: plan.ToolCreateDockerfile, Args: map[string]any{"content": "FROM a"}},
		{Tool: plan.ToolWriteDockerCompose, Args: map[string]any{"content": "services: {}"}},
		{Tool: plan.ToolSetupCIPipeline, Args: map[string]any{}, OnFail: "ci failed"},
		{Tool: plan.ToolGenerateK8sManifests, Args: map[string]any{"file_path": "k8s/", "content": "kind: Deployment"}},
		{Tool: plan.ToolDeployToCluster, Args: map[string]any{"manifest_path": "k8s/deployment.yml"}},
	}
	res := e.Execute(context.Background(), steps)
	require.Len(t, res.ExecutionResults, len(steps))
	for i := range steps {
		assert.Equal(t, steps[i].Tool, res.ExecutionResults[i].Tool, "index %d", i)
	}
	want := []plan.Status{plan.StatusSuccess, plan.StatusSuccess, plan.StatusFailed, plan.StatusSuccess, plan.StatusSuccess}
	for i, st := range want {
		assert.Equal(t, st, res.ExecutionResults[i].Status, "index %d: %s", i, res.ExecutionResults[i].Details)
	}
	paths := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		paths = append(paths, f.FilePath)
	}
	assert.Equal(t, []string{"Dockerfile", "docker-compose.yml", "k8s/deployment.yml"}, paths)
}

// rewritingTool writes something other than the planned content, standing in
// for tools that post-process what they were given.
type rewritingTool struct{}

func (rewritingTool) Spec() ToolSpec {
	return ToolSpec{Name: plan.ToolCreateDockerfile}
}

func (rewritingTool) Run(_ context.Context, ws *safeio.Workspace, args Args) (Output, error) {
	text, _ := args.Content.Text()
	body := "# generated\n" + text
	if err := ws.WriteFile("Dockerfile", []byte(body)); err != nil {
		return Output{}, err
	}
	return Output{Message: "rewritten", Written: []string{"Dockerfile", "Dockerfile"}}, nil
}

type panickingTool struct{ kind plan.ToolKind }

func (p panickingTool) Spec() ToolSpec { return ToolSpec{Name: p.kind} }
func (panickingTool) Run(context.Context, *safeio.Workspace, Args) (Output, error) {
	panic("boom")
}

type phantomTool struct{}

func (phantomTool) Spec() ToolSpec { return ToolSpec{Name: plan.ToolWriteDockerCompose} }
func (phantomTool) Run(_ context.Context, ws *safeio.Workspace, _ Args) (Output, error) {
	if err := ws.WriteFile("docker-compose.yml", []byte("services: {}")); err != nil {
		return Output{}, err
	}
	return Output{Message: "claims a write", Written: []string{"never-written.yml", "docker-compose.yml"}}, nil
}

// dirTool reports a directory as a written file.
type dirTool struct{}

func (dirTool) Spec() ToolSpec { return ToolSpec{Name: plan.ToolSetupCIPipeline} }
func (dirTool) Run(_ context.Context, ws *safeio.Workspace, _ Args) (Output, error) {
	if err := ws.MkdirAll(".github"); err != nil {
		return Output{}, err
	}
	return Output{Message: "made a dir", Written: []string{".github"}}, nil
}

func TestReportedContentComesFromDisk(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, reg.Register(rewritingTool{}))
	e, _ := newTestExecutor(t, WithRegistry(reg))

	res := e.Execute(context.Background(), []plan.Step{{Tool: plan.ToolCreateDockerfile, Args: map[string]any{"content": "FROM a"}}})
	require.Len(t, res.Files, 1, "duplicate written paths are reported once")
	assert.Equal(t, "# generated\nFROM a", res.Files[0].Content)
	assert.Equal(t, "rewritten", res.ExecutionResults[0].Details)
}

func TestToolPanicIsContained(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, reg.Register(panickingTool{kind: plan.ToolSetupCIPipeline}))
	e, _ := newTestExecutor(t, WithRegistry(reg))

	res := e.Execute(context.Background(), []plan.Step{
		{Tool: plan.ToolSetupCIPipeline, Args: map[string]any{"content": "x"}},
		{Tool: plan.ToolDeployToCluster},
	})
	assert.Equal(t, plan.StatusFailed, res.ExecutionResults[0].Status)
	assert.Contains(t, res.ExecutionResults[0].Details, "panicked: boom")
	assert.Equal(t, plan.StatusSuccess, res.ExecutionResults[1].Status)
}

func TestMissingReadBackIsSkipped(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, reg.Register(phantomTool{}))
	e, _ := newTestExecutor(t, WithRegistry(reg))

	res := e.Execute(context.Background(), []plan.Step{{Tool: plan.ToolWriteDockerCompose}})
	assert.Equal(t, plan.StatusSuccess, res.ExecutionResults[0].Status)
	assert.Equal(t, []plan.GeneratedFile{
		{Tool: plan.ToolWriteDockerCompose, FilePath: "docker-compose.yml", Content: "services: {}"},
	}, res.Files)
}

func TestUnreadableReadBackFailsStep(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, reg.Register(dirTool{}))
	e, _ := newTestExecutor(t, WithRegistry(reg))

	res := e.Execute(context.Background(), []plan.Step{{Tool: plan.ToolSetupCIPipeline}})
	assert.Equal(t, plan.StatusFailed, res.ExecutionResults[0].Status)
	assert.Contains(t, res.ExecutionResults[0].Details, "read .github")
	assert.Empty(t, res.Files)
}

func TestRegistryRejectsUnknownKinds(t *testing.T) {
	reg := DefaultRegistry()
	err := reg.Register(panickingTool{kind: "frobnicate"})
	require.Error(t, err)

	specs := reg.Specs()
	require.Len(t, specs, len(plan.KnownTools))
	for i, s := range specs {
		assert.Equal(t, plan.KnownTools[i], s.Name)
		assert.NotEmpty(t, s.Description)
	}
}

func TestCancelledContextSkipsRemainingSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var seen int
	e, _ := newTestExecutor(t, WithObserver(func(i int, res plan.StepResult, files []plan.GeneratedFile) {
		seen++
		if i == 0 {
			cancel()
		}
	}))
	res := e.Execute(ctx, []plan.Step{
		{Tool: plan.ToolCreateDockerfile, Args: map[string]any{"content": "FROM a"}},
		{Tool: plan.ToolWriteDockerCompose, Args: map[string]any{"content": "x"}},
		{Tool: plan.ToolDeployToCluster},
	})
	require.Len(t, res.ExecutionResults, 3)
	assert.Equal(t, 3, seen)
	assert.Equal(t, plan.StatusSuccess, res.ExecutionResults[0].Status)
	for _, r := range res.ExecutionResults[1:] {
		assert.Equal(t, plan.StatusSkipped, r.Status)
		assert.Contains(t, r.Details, context.Canceled.Error())
	}
}

func TestExecuteJSON(t *testing.T) {
	e, _ := newTestExecutor(t)
	res, err := e.ExecuteJSON(context.Background(), []byte(`[{"tool":"create_dockerfile","args":{"content":"FROM a"}}]`))
	require.NoError(t, err)
	assert.Len(t, res.ExecutionResults, 1)

	_, err = e.ExecuteJSON(context.Background(), []byte(`{"tool":"create_dockerfile"}`))
	assert.True(t, errors.Is(err, plan.ErrMalformedPlan))
}

func TestLaterStepSeesEarlierFiles(t *testing.T) {
	e, root := newTestExecutor(t)
	res := e.Execute(context.Background(), []plan.Step{
		{Tool: plan.ToolCreateDockerfile, Args: map[string]any{"content": "FROM a"}},
		{Tool: plan.ToolCreateDockerfile, Args: map[string]any{"content": "FROM b"}},
	})
	require.Len(t, res.Files, 2)
	assert.Equal(t, "FROM a", res.Files[0].Content)
	assert.Equal(t, "FROM b", res.Files[1].Content)
	assert.Equal(t, "FROM b", readFile(t, root, "Dockerfile"))
}
