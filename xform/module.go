package xform

import "fmt"

// Module is a pluggable handler for domain-specific compatible strings.
// Implementations carve the tree into a per-domain view when a domain
// transform targets a node they understand.
type Module interface {
	// Name is the registry key a load-module fragment refers to.
	Name() string

	// IsCompat reports whether the module handles the given compatible
	// string of a domain node.
	IsCompat(compat string) bool

	// ProcessDomain applies the module's partitioning for the domain node
	// at path. The engine provides tree access, refcounts and filtering.
	ProcessDomain(path string, e *Engine) error
}

// Registry is the startup-time table of available domain modules. Fragments
// activate modules by name; nothing is resolved from disk at run time.
type Registry struct {
	names []string
	mods  map[string]Module
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{mods: make(map[string]Module)}
}

// Register adds a module under its name.
func (r *Registry) Register(m Module) error {
	name := m.Name()
	if _, ok := r.mods[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, name)
	}
	r.mods[name] = m
	r.names = append(r.names, name)
	return nil
}

// Lookup returns the module registered under name.
func (r *Registry) Lookup(name string) (Module, bool) {
	m, ok := r.mods[name]
	return m, ok
}

// Names returns the registered module names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
