package tools

import (
	"fmt"
)

// Registry stores the catalog in declaration order.
type Registry struct {
	order []string
	tools map[string]*Tool
}

// NewRegistry pairs each definition with its handler and resolves its input
// schema. Every definition needs a handler and names must be unique.
func NewRegistry(defs []Definition, handlers map[string]Handler) (*Registry, error) {
	reg := &Registry{tools: make(map[string]*Tool, len(defs))}
	for _, def := range defs {
		if _, dup := reg.tools[def.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", def.Name)
		}
		handler, ok := handlers[def.Name]
		if !ok {
			return nil, fmt.Errorf("tool %q has no handler", def.Name)
		}
		resolved, err := def.InputSchema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("resolve schema for %q: %w", def.Name, err)
		}
		reg.tools[def.Name] = &Tool{Definition: def, schema: resolved, handler: handler}
		reg.order = append(reg.order, def.Name)
	}
	return reg, nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns tool names in catalog order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions returns the catalog in declaration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition)
	}
	return defs
}
