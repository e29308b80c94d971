package prompt

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps template IDs to templates. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]Template)}
}

// NewDefaultRegistry returns a registry holding the built-in templates.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, t := range builtins {
		r.templates[t.ID] = t
	}
	return r
}

// Register adds t, replacing any template with the same ID.
func (r *Registry) Register(t Template) error {
	if t.ID == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}
	r.mu.Lock()
	r.templates[t.ID] = t
	r.mu.Unlock()
	return nil
}

func (r *Registry) Lookup(id string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	return t, ok
}

// Render returns the system prompt of id and its user prompt executed with vars.
func (r *Registry) Render(id string, vars Vars) (system, user string, err error) {
	t, ok := r.Lookup(id)
	if !ok {
		return "", "", fmt.Errorf("prompt not found: %s", id)
	}
	user, err = t.execute(vars)
	if err != nil {
		return "", "", fmt.Errorf("failed to render %s: %w", id, err)
	}
	return t.System, user, nil
}

// IDs returns the registered template IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
