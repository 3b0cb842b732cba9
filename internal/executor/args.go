package executor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bootstrapper/internal/plan"
)

// Defaults applied by Normalize.
const (
	DefaultPythonImage      = "python:3.9"
	DefaultRequirementsFile = "requirements.txt"
	DefaultEntrypointFile   = "main.py"
	DefaultPort             = 8000
	DefaultCILanguage       = "python"
	DefaultTestCommand      = "pytest"
	DefaultReplicas         = 1
	DefaultClusterContext   = "default"
)

// Args is the normalized argument set handed to a tool. FilePath and Content
// are always carried over verbatim; exactly one of the option blocks is set,
// matching the tool kind that was normalized for.
type Args struct {
	FilePath string  `json:"file_path,omitempty"`
	Content  Content `json:"content"`

	Dockerfile *DockerfileOptions `json:"dockerfile,omitempty"`
	Compose    *ComposeOptions    `json:"compose,omitempty"`
	CI         *CIOptions         `json:"ci,omitempty"`
	K8s        *K8sOptions        `json:"k8s,omitempty"`
	Deploy     *DeployOptions     `json:"deploy,omitempty"`
}

type DockerfileOptions struct {
	PythonVersion    string `json:"python_version"`
	RequirementsFile string `json:"requirements_file"`
	Port             int    `json:"port"`
	EntrypointFile   string `json:"entrypoint_file"`
	RunCommand       string `json:"run_command"`
}

type ComposeOptions struct {
	ServiceName  string            `json:"service_name,omitempty"`
	BuildContext string            `json:"build_context,omitempty"`
	PortMapping  any               `json:"port_mapping,omitempty"` // passed through untouched
	Volumes      []string          `json:"volumes"`
	Environment  map[string]string `json:"environment"`
}

type CIOptions struct {
	Language    string `json:"language"`
	TestCommand string `json:"test_command"`
}

type K8sOptions struct {
	AppName      string            `json:"app_name,omitempty"`
	ImageName    string            `json:"image_name,omitempty"`
	Port         int               `json:"port"`
	Replicas     int               `json:"replicas"`
	EnvVariables map[string]string `json:"env_variables"`
}

type DeployOptions struct {
	ManifestPath   string `json:"manifest_path,omitempty"`
	ClusterContext string `json:"cluster_context"`
}

// Normalize completes a raw, possibly partial argument mapping into the full
// set a tool expects. It never fails and has no hidden state: unrecognized
// keys are dropped and missing ones take their defaults.
func Normalize(kind plan.ToolKind, raw map[string]any) Args {
	args := Args{
		FilePath: stringArg(raw, "file_path"),
		Content:  NewContent(raw["content"]),
	}

	switch kind {
	case plan.ToolCreateDockerfile:
		entry := stringArgOr(raw, "entrypoint_file", DefaultEntrypointFile)
		runCmd, ok := raw["run_command"].(string)
		if !ok {
			runCmd = "python " + entry
		}
		// The base image is pinned; a planner-supplied "language" or version is ignored.
		args.Dockerfile = &DockerfileOptions{
			PythonVersion:    DefaultPythonImage,
			RequirementsFile: stringArgOr(raw, "requirements_file", DefaultRequirementsFile),
			Port:             intArg(raw, "port", DefaultPort),
			EntrypointFile:   entry,
			RunCommand:       runCmd,
		}
	case plan.ToolWriteDockerCompose:
		args.Compose = &ComposeOptions{
			ServiceName:  stringArg(raw, "service_name"),
			BuildContext: stringArg(raw, "build_context"),
			PortMapping:  raw["port_mapping"],
			Volumes:      stringSliceArg(raw, "volumes"),
			Environment:  stringMapArg(raw, "environment"),
		}
	case plan.ToolSetupCIPipeline:
		args.CI = &CIOptions{
			Language:    stringArgOr(raw, "language", DefaultCILanguage),
			TestCommand: stringArgOr(raw, "test_command", DefaultTestCommand),
		}
	case plan.ToolGenerateK8sManifests:
		args.K8s = &K8sOptions{
			AppName:      stringArg(raw, "app_name"),
			ImageName:    stringArg(raw, "image_name"),
			Port:         intArg(raw, "port", DefaultPort),
			Replicas:     intArg(raw, "replicas", DefaultReplicas),
			EnvVariables: stringMapArg(raw, "env_variables"),
		}
	case plan.ToolDeployToCluster:
		args.Deploy = &DeployOptions{
			ManifestPath:   stringArg(raw, "manifest_path"),
			ClusterContext: stringArgOr(raw, "cluster_context", DefaultClusterContext),
		}
	}
	return args
}

// Content is the verbatim "content" argument. Tools decide which shapes they
// accept: a single string, or a mapping of relative filename to file body.
type Content struct {
	value any
}

func NewContent(v any) Content { return Content{value: v} }

// Empty reports whether no usable content was supplied.
func (c Content) Empty() bool {
	switch v := c.value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}

// Text returns the content when it is a single string.
func (c Content) Text() (string, bool) {
	s, ok := c.value.(string)
	return s, ok
}

// Files returns the content when it is a filename-to-body mapping.
func (c Content) Files() (map[string]any, bool) {
	m, ok := c.value.(map[string]any)
	return m, ok
}

func (c Content) Value() any { return c.value }

func (c Content) MarshalJSON() ([]byte, error) { return json.Marshal(c.value) }

func stringArg(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

func stringArgOr(raw map[string]any, key, def string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}
	return def
}

// intArg reads an integral number or numeric string. Values outside the
// int32 range fall back to def.
func intArg(raw map[string]any, key string, def int) int {
	var n int64
	switch v := raw[key].(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return def
		}
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return def
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return def
		}
		n = i
	default:
		return def
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return def
	}
	return int(n)
}

func stringSliceArg(raw map[string]any, key string) []string {
	out := []string{}
	switch v := raw[key].(type) {
	case []any:
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
	case []string:
		out = append(out, v...)
	}
	return out
}

func stringMapArg(raw map[string]any, key string) map[string]string {
	out := map[string]string{}
	switch v := raw[key].(type) {
	case map[string]any:
		for k, val := range v {
			if val == nil {
				out[k] = ""
				continue
			}
			out[k] = fmt.Sprint(val)
		}
	case map[string]string:
		for k, val := range v {
			out[k] = val
		}
	}
	return out
}
