// Package stdlib provides the Weather builtin function and constant tables.
package stdlib

import (
	"sort"

	"github.com/zanderlewis/weather/pkg/evaluator"
)

// Registry holds registered builtins and named constants.
type Registry struct {
	fns    map[string]*evaluator.Builtin
	consts map[string]evaluator.WValue
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns:    make(map[string]*evaluator.Builtin),
		consts: make(map[string]evaluator.WValue),
	}
}

// Register adds a builtin to the registry.
func (r *Registry) Register(fn evaluator.Builtin) {
	r.fns[fn.Name] = &fn
}

// RegisterConst adds a named constant to the registry.
func (r *Registry) RegisterConst(name string, v evaluator.WValue) {
	r.consts[name] = v
}

// Get retrieves a builtin by name.
func (r *Registry) Get(name string) *evaluator.Builtin {
	return r.fns[name]
}

// All returns all registered builtins.
func (r *Registry) All() map[string]*evaluator.Builtin {
	return r.fns
}

// Constants returns all registered constants.
func (r *Registry) Constants() map[string]evaluator.WValue {
	return r.consts
}

// Names returns the builtin names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConstantNames returns the constant names in sorted order.
func (r *Registry) ConstantNames() []string {
	names := make([]string, 0, len(r.consts))
	for name := range r.consts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns a registry populated by RegisterDefaults.
func Default() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
