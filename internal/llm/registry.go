package llm

import (
	"context"
	"fmt"
)

// Registry holds registered generation providers.
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

// NewRegistry creates an empty Registry. defaultName selects the provider
// used when an analysis does not name one.
func NewRegistry(defaultName string) *Registry {
	return &Registry{providers: make(map[string]Provider), defaultName: defaultName}
}

// Register adds a provider. Nil providers (disabled by config) are ignored.
func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	r.providers[p.Name()] = p
}

// Get returns a Provider by name. An empty name selects the default.
func (r *Registry) Get(name string) (Provider, bool) {
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.providers[name]
	return p, ok
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	return names
}

// HealthCheck runs the named provider's health check.
func (r *Registry) HealthCheck(ctx context.Context, name string) error {
	p, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("llm.Registry.HealthCheck: unknown provider %q", name)
	}
	return p.HealthCheck(ctx)
}
