package executor

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"bootstrapper/internal/plan"
	"bootstrapper/internal/safeio"
)

// Default target paths, relative to the workspace root.
const (
	DefaultDockerfilePath = "Dockerfile"
	DefaultComposePath    = "docker-compose.yml"
	DefaultCIPath         = ".github/workflows/ci.yml"
	DefaultK8sPath        = "k8s/"
	DefaultManifestName   = "deployment.yml"
)

// ToolSpec documents a tool for planners and listings.
type ToolSpec struct {
	Name        plan.ToolKind `json:"name"`
	Description string        `json:"description"`
	DefaultPath string        `json:"default_path,omitempty"`
}

// Output is what a tool reports back. Written lists every path the tool wrote,
// as slash-separated paths relative to the workspace; the runner reads exactly
// these back.
type Output struct {
	Message string
	Written []string
}

// Tool is one of the fixed plan tool implementations.
type Tool interface {
	Spec() ToolSpec
	Run(ctx context.Context, ws *safeio.Workspace, args Args) (Output, error)
}

// ---------------- create_dockerfile ----------------

type dockerfileTool struct{}

func (dockerfileTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        plan.ToolCreateDockerfile,
		Description: "Write a project-specific Dockerfile.",
		DefaultPath: DefaultDockerfilePath,
	}
}

func (dockerfileTool) Run(_ context.Context, ws *safeio.Workspace, args Args) (Output, error) {
	p := pathOr(args.FilePath, DefaultDockerfilePath)
	if err := writeText(ws, p, args.Content, "Dockerfile"); err != nil {
		return Output{}, err
	}
	return Output{
		Message: fmt.Sprintf("Dockerfile created successfully at %s.", p),
		Written: []string{p},
	}, nil
}

// ---------------- write_docker_compose ----------------

type composeTool struct{}

func (composeTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        plan.ToolWriteDockerCompose,
		Description: "Write a docker-compose file describing the services.",
		DefaultPath: DefaultComposePath,
	}
}

func (composeTool) Run(_ context.Context, ws *safeio.Workspace, args Args) (Output, error) {
	p := pathOr(args.FilePath, DefaultComposePath)
	if err := writeText(ws, p, args.Content, "docker-compose"); err != nil {
		return Output{}, err
	}
	return Output{
		Message: fmt.Sprintf("docker-compose.yml created successfully at %s.", p),
		Written: []string{p},
	}, nil
}

// ---------------- setup_ci_pipeline ----------------

type ciTool struct{}

func (ciTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        plan.ToolSetupCIPipeline,
		Description: "Write a CI/CD pipeline configuration.",
		DefaultPath: DefaultCIPath,
	}
}

func (ciTool) Run(_ context.Context, ws *safeio.Workspace, args Args) (Output, error) {
	p := pathOr(args.FilePath, DefaultCIPath)
	if err := writeText(ws, p, args.Content, "CI pipeline"); err != nil {
		return Output{}, err
	}
	return Output{
		Message: fmt.Sprintf("CI pipeline configuration created successfully at %s.", p),
		Written: []string{p},
	}, nil
}

// ---------------- generate_k8s_manifests ----------------

type k8sTool struct{}

func (k8sTool) Spec() ToolSpec {
	return ToolSpec{
		Name: plan.ToolGenerateK8sManifests,
		Description: "Write Kubernetes manifests. content is either one manifest string, " +
			"or an object mapping relative file names to manifest bodies when file_path is a directory.",
		DefaultPath: DefaultK8sPath,
	}
}

func (k8sTool) Run(_ context.Context, ws *safeio.Workspace, args Args) (Output, error) {
	p := pathOr(args.FilePath, DefaultK8sPath)
	if args.Content.Empty() {
		return Output{}, fmt.Errorf("%w: no Kubernetes manifest content provided in plan", ErrMissingContent)
	}
	dirLike := isDirLike(p) || ws.IsDir(p)

	if files, ok := args.Content.Files(); ok {
		// A mapping always treats file_path as the target directory.
		names, err := manifestNames(files)
		if err != nil {
			return Output{}, err
		}
		written := make([]string, 0, len(names))
		for _, name := range names {
			full := joinReported(p, name)
			if err := ws.WriteFile(full, []byte(files[name].(string))); err != nil {
				return Output{}, &FilesystemError{Op: "write", Path: full, Err: err}
			}
			written = append(written, full)
		}
		return Output{
			Message: "Kubernetes manifests created successfully: " + strings.Join(written, ", "),
			Written: written,
		}, nil
	}

	text, ok := args.Content.Text()
	if !ok {
		return Output{}, fmt.Errorf("%w: Kubernetes manifest content must be a string or an object of file contents", ErrUnsupportedContent)
	}
	full := p
	if dirLike {
		full = joinReported(p, DefaultManifestName)
	}
	if err := ws.WriteFile(full, []byte(text)); err != nil {
		return Output{}, &FilesystemError{Op: "write", Path: full, Err: err}
	}
	return Output{
		Message: fmt.Sprintf("Kubernetes manifest created successfully at %s", full),
		Written: []string{full},
	}, nil
}

// manifestNames validates a multi-manifest mapping and returns its file names
// in sorted order.
func manifestNames(files map[string]any) ([]string, error) {
	names := make([]string, 0, len(files))
	for name, body := range files {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty manifest file name", ErrUnsupportedContent)
		}
		if filepath.IsAbs(name) || path.IsAbs(filepath.ToSlash(name)) {
			return nil, fmt.Errorf("%w: manifest file name %q must be relative", ErrUnsupportedContent, name)
		}
		if _, ok := body.(string); !ok {
			return nil, fmt.Errorf("%w: manifest %q content must be a string", ErrUnsupportedContent, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ---------------- deploy_to_cluster ----------------

type deployTool struct{}

func (deployTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        plan.ToolDeployToCluster,
		Description: "Simulate deploying the generated manifests to a cluster. Writes nothing.",
	}
}

func (deployTool) Run(_ context.Context, _ *safeio.Workspace, args Args) (Output, error) {
	manifest, clusterCtx := "", DefaultClusterContext
	if args.Deploy != nil {
		manifest, clusterCtx = args.Deploy.ManifestPath, args.Deploy.ClusterContext
	}
	if manifest == "" {
		manifest = "(unspecified)"
	}
	return Output{
		Message: fmt.Sprintf("Application deployed to Kubernetes cluster %q (simulated) using manifest at %s", clusterCtx, manifest),
	}, nil
}

// ---------------- helpers ----------------

func writeText(ws *safeio.Workspace, p string, content Content, what string) error {
	if content.Empty() {
		return fmt.Errorf("%w: no %s content provided in plan", ErrMissingContent, what)
	}
	text, ok := content.Text()
	if !ok {
		return fmt.Errorf("%w: %s content must be a string", ErrUnsupportedContent, what)
	}
	if err := ws.WriteFile(p, []byte(text)); err != nil {
		return &FilesystemError{Op: "write", Path: p, Err: err}
	}
	return nil
}

func pathOr(p, def string) string {
	if strings.TrimSpace(p) == "" {
		return def
	}
	return p
}

func isDirLike(p string) bool {
	return strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator))
}

func joinReported(dir, name string) string {
	return path.Join(filepath.ToSlash(dir), filepath.ToSlash(name))
}
