// Package schema declares the expected upload shape per module and
// validates raw tables against it.
package schema

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"factuboard/internal/domain"
)

//go:embed schemas.yaml
var schemasYAML []byte

// Registry holds the declared schema for every known module.
type Registry struct {
	byModule map[string]*domain.ModuleSchema
}

type registryDoc struct {
	Modules []*domain.ModuleSchema `yaml:"modules"`
}

// NewRegistry parses the embedded schema document.
func NewRegistry() (*Registry, error) {
	var doc registryDoc
	if err := yaml.Unmarshal(schemasYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse embedded schemas: %w", err)
	}

	r := &Registry{byModule: make(map[string]*domain.ModuleSchema, len(doc.Modules))}
	for _, ms := range doc.Modules {
		if !domain.KnownModule(ms.Module) {
			return nil, fmt.Errorf("embedded schema declares unknown module %q", ms.Module)
		}
		if ms.HeaderMarker == "" || len(ms.UserVariants) == 0 || len(ms.DateVariants) == 0 {
			return nil, fmt.Errorf("embedded schema for %q is incomplete", ms.Module)
		}
		r.byModule[ms.Module] = ms
	}
	for _, name := range domain.ModuleNames {
		if _, ok := r.byModule[name]; !ok {
			return nil, fmt.Errorf("embedded schemas missing module %q", name)
		}
	}
	return r, nil
}

// Get returns the schema for a module.
func (r *Registry) Get(module string) (*domain.ModuleSchema, error) {
	ms, ok := r.byModule[module]
	if !ok {
		return nil, domain.ErrNotFound("unknown module %q", module)
	}
	return ms, nil
}

// All returns the schemas for every module in presentation order.
func (r *Registry) All() []*domain.ModuleSchema {
	out := make([]*domain.ModuleSchema, 0, len(r.byModule))
	for _, name := range domain.ModuleNames {
		out = append(out, r.byModule[name])
	}
	return out
}
