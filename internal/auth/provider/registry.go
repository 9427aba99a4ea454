package provider

import (
	"fmt"
	"sort"
)

// Registry is the lookup table of configured OIDC providers. Which
// providers exist is a deployment decision; handlers only ever ask by
// name.
type Registry struct {
	providers map[string]OAuthProvider
}

func NewRegistry(list ...OAuthProvider) *Registry {
	m := make(map[string]OAuthProvider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

func (r *Registry) Get(name string) (OAuthProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %s", name)
	}
	return p, nil
}

// Names lists the registered providers in stable order, for startup
// logging.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
