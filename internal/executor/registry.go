package executor

import (
	"fmt"
	"sync"

	"bootstrapper/internal/plan"
)

// Registry maps tool kinds to their implementation. Only kinds from
// plan.KnownTools can be registered; anything else a planner emits is skipped
// by the runner.
type Registry struct {
	mu    sync.RWMutex
	tools map[plan.ToolKind]Tool
}

// NewRegistry creates a registry holding the given tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: map[plan.ToolKind]Tool{}}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry with the five built-in tools.
func DefaultRegistry() *Registry {
	return &Registry{tools: map[plan.ToolKind]Tool{
		plan.ToolCreateDockerfile:     dockerfileTool{},
		plan.ToolWriteDockerCompose:   composeTool{},
		plan.ToolSetupCIPipeline:      ciTool{},
		plan.ToolGenerateK8sManifests: k8sTool{},
		plan.ToolDeployToCluster:      deployTool{},
	}}
}

// Register adds or replaces the implementation for a known tool kind.
func (r *Registry) Register(t Tool) error {
	if r == nil || t == nil {
		return fmt.Errorf("executor: nil registry or tool")
	}
	kind := t.Spec().Name
	if !kind.Known() {
		return fmt.Errorf("executor: cannot register unknown tool %q", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tools == nil {
		r.tools = map[plan.ToolKind]Tool{}
	}
	r.tools[kind] = t
	return nil
}

// Lookup returns the implementation for kind.
func (r *Registry) Lookup(kind plan.ToolKind) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[kind]
	return t, ok
}

// Specs returns the registered tool specs in plan.KnownTools order.
func (r *Registry) Specs() []ToolSpec {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolSpec, 0, len(r.tools))
	for _, kind := range plan.KnownTools {
		if t, ok := r.tools[kind]; ok {
			out = append(out, t.Spec())
		}
	}
	return out
}
