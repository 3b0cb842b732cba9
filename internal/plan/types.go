// Package plan defines the declarative plan consumed by the executor and the
// per-step results it produces.
package plan

// ToolKind names the tool a step asks for. Values outside the known set are
// kept verbatim so results can echo them back.
type ToolKind string

const (
	ToolCreateDockerfile     ToolKind = "create_dockerfile"
	ToolWriteDockerCompose   ToolKind = "write_docker_compose"
	ToolSetupCIPipeline      ToolKind = "setup_ci_pipeline"
	ToolGenerateK8sManifests ToolKind = "generate_k8s_manifests"
	ToolDeployToCluster      ToolKind = "deploy_to_cluster"
)

// KnownTools lists every tool kind the executor can dispatch, in the order
// they are usually planned.
var KnownTools = []ToolKind{
	ToolCreateDockerfile,
	ToolWriteDockerCompose,
	ToolSetupCIPipeline,
	ToolGenerateK8sManifests,
	ToolDeployToCluster,
}

// Known reports whether k is one of KnownTools.
func (k ToolKind) Known() bool {
	switch k {
	case ToolCreateDockerfile, ToolWriteDockerCompose, ToolSetupCIPipeline,
		ToolGenerateK8sManifests, ToolDeployToCluster:
		return true
	}
	return false
}

func (k ToolKind) String() string { return string(k) }

// Step is one entry of an externally produced plan.
type Step struct {
	Tool         ToolKind       `json:"tool"`
	Args         map[string]any `json:"args"`
	SuccessCheck string         `json:"success_check,omitempty"`
	OnFail       string         `json:"on_fail,omitempty"`
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StepResult reports the outcome of one step. Results are emitted in step order.
type StepResult struct {
	Tool    ToolKind `json:"tool"`
	Status  Status   `json:"status"`
	Details string   `json:"details"`
}

// GeneratedFile is a file written by a step, with the content read back from disk.
type GeneratedFile struct {
	Tool     ToolKind `json:"tool"`
	FilePath string   `json:"file_path"`
	Content  string   `json:"content"`
}

// Result aggregates a whole plan execution.
type Result struct {
	ExecutionResults []StepResult    `json:"execution_results"`
	Files            []GeneratedFile `json:"files"`
}

// Counts tallies results by status.
func (r Result) Counts() map[Status]int {
	out := map[Status]int{}
	for _, res := range r.ExecutionResults {
		out[res.Status]++
	}
	return out
}
