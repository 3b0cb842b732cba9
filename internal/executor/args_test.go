package executor

import (
	"encoding/json"
	"reflect"
	"testing"

	"bootstrapper/internal/plan"
)

func TestNormalizeAlwaysCarriesPathAndContent(t *testing.T) {
	raw := map[string]any{"file_path": "x/y", "content": "body", "language": "rust"}
	for _, kind := range append(plan.KnownTools, "frobnicate") {
		args := Normalize(kind, raw)
		if args.FilePath != "x/y" {
			t.Fatalf("%s: file_path = %q", kind, args.FilePath)
		}
		if s, ok := args.Content.Text(); !ok || s != "body" {
			t.Fatalf("%s: content = %#v", kind, args.Content.Value())
		}
	}

	empty := Normalize(plan.ToolDeployToCluster, nil)
	if empty.FilePath != "" || !empty.Content.Empty() {
		t.Fatalf("absent fields should normalize to empty, got %+v", empty)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	tests := []struct {
		name string
		kind plan.ToolKind
		raw  map[string]any
		want Args
	}{
		{
			name: "dockerfile defaults",
			kind: plan.ToolCreateDockerfile,
			raw:  map[string]any{"python_version": "python:3.12"},
			want: Args{Dockerfile: &DockerfileOptions{
				PythonVersion:    DefaultPythonImage,
				RequirementsFile: "requirements.txt",
				Port:             8000,
				EntrypointFile:   "main.py",
				RunCommand:       "python main.py",
			}},
		},
		{
			name: "dockerfile run command derived from entrypoint",
			kind: plan.ToolCreateDockerfile,
			raw:  map[string]any{"entrypoint_file": "app.py", "port": float64(5000)},
			want: Args{Dockerfile: &DockerfileOptions{
				PythonVersion:    DefaultPythonImage,
				RequirementsFile: "requirements.txt",
				Port:             5000,
				EntrypointFile:   "app.py",
				RunCommand:       "python app.py",
			}},
		},
		{
			name: "dockerfile explicit run command wins",
			kind: plan.ToolCreateDockerfile,
			raw:  map[string]any{"entrypoint_file": "app.py", "run_command": "uvicorn app:app", "port": "9000"},
			want: Args{Dockerfile: &DockerfileOptions{
				PythonVersion:    DefaultPythonImage,
				RequirementsFile: "requirements.txt",
				Port:             9000,
				EntrypointFile:   "app.py",
				RunCommand:       "uvicorn app:app",
			}},
		},
		{
			name: "compose pass-through and defaults",
			kind: plan.ToolWriteDockerCompose,
			raw:  map[string]any{"service_name": "web", "port_mapping": "8000:8000"},
			want: Args{Compose: &ComposeOptions{
				ServiceName: "web",
				PortMapping: "8000:8000",
				Volumes:     []string{},
				Environment: map[string]string{},
			}},
		},
		{
			name: "compose volumes and environment",
			kind: plan.ToolWriteDockerCompose,
			raw: map[string]any{
				"volumes":     []any{"./data:/data"},
				"environment": map[string]any{"DEBUG": true, "PORT": float64(80)},
			},
			want: Args{Compose: &ComposeOptions{
				Volumes:     []string{"./data:/data"},
				Environment: map[string]string{"DEBUG": "true", "PORT": "80"},
			}},
		},
		{
			name: "ci defaults",
			kind: plan.ToolSetupCIPipeline,
			raw:  map[string]any{},
			want: Args{CI: &CIOptions{Language: "python", TestCommand: "pytest"}},
		},
		{
			name: "k8s defaults",
			kind: plan.ToolGenerateK8sManifests,
			raw:  map[string]any{"app_name": "api", "image_name": "api:latest"},
			want: Args{K8s: &K8sOptions{
				AppName:      "api",
				ImageName:    "api:latest",
				Port:         8000,
				Replicas:     1,
				EnvVariables: map[string]string{},
			}},
		},
		{
			name: "k8s non-integer replicas falls back",
			kind: plan.ToolGenerateK8sManifests,
			raw:  map[string]any{"replicas": 2.5},
			want: Args{K8s: &K8sOptions{Port: 8000, Replicas: 1, EnvVariables: map[string]string{}}},
		},
		{
			name: "deploy defaults",
			kind: plan.ToolDeployToCluster,
			raw:  map[string]any{"manifest_path": "k8s/deployment.yml"},
			want: Args{Deploy: &DeployOptions{ManifestPath: "k8s/deployment.yml", ClusterContext: "default"}},
		},
		{
			name: "unknown tool keeps only common fields",
			kind: "frobnicate",
			raw:  map[string]any{"anything": 1},
			want: Args{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.kind, tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				gb, _ := json.Marshal(got)
				wb, _ := json.Marshal(tt.want)
				t.Fatalf("got  %s\nwant %s", gb, wb)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := map[string]any{
		"file_path":     "k8s/",
		"content":       map[string]any{"a.yml": "a"},
		"port":          float64(80),
		"env_variables": map[string]any{"A": "1"},
		"volumes":       []any{"v"},
	}
	for _, kind := range plan.KnownTools {
		a := Normalize(kind, raw)
		b := Normalize(kind, raw)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("%s: normalization is not deterministic: %+v vs %+v", kind, a, b)
		}
	}
}

func TestContentShapes(t *testing.T) {
	cases := []struct {
		v     any
		empty bool
	}{
		{nil, true},
		{"", true},
		{map[string]any{}, true},
		{[]any{}, true},
		{"x", false},
		{map[string]any{"a": "b"}, false},
		{[]any{"a"}, false},
		{float64(3), false},
	}
	for _, c := range cases {
		if got := NewContent(c.v).Empty(); got != c.empty {
			t.Fatalf("Empty(%#v) = %v, want %v", c.v, got, c.empty)
		}
	}
}

func TestIntArgRejectsOutOfRangeNumbers(t *testing.T) {
	tests := []struct {
		val  any
		want int
	}{
		{float64(5000), 5000},
		{float64(1e300), 8000},
		{float64(-1e19), 8000},
		{float64(80.5), 8000},
		{int64(1) << 40, 8000},
		{json.Number("99999999999"), 8000},
		{json.Number("443"), 443},
		{" 9000 ", 9000},
		{"12345678901234567890", 8000},
		{true, 8000},
	}
	for _, tt := range tests {
		if got := intArg(map[string]any{"port": tt.val}, "port", 8000); got != tt.want {
			t.Fatalf("intArg(%#v) = %d, want %d", tt.val, got, tt.want)
		}
	}

	k8s := Normalize(plan.ToolGenerateK8sManifests, map[string]any{"replicas": float64(1e300)})
	if k8s.K8s.Replicas != DefaultReplicas {
		t.Fatalf("replicas = %d, want default", k8s.K8s.Replicas)
	}
}
