// Package memory provides an in-memory protocol repository, used by tests
// and by callers that assemble protocols programmatically.
package memory

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/optolab/ivctl/pkg/domain"
)

// Repository implements ports.ProtocolRepository over a map.
type Repository struct {
	docs map[string][]byte
}

// NewRepository creates a Repository from raw YAML documents keyed by name.
func NewRepository(docs map[string]string) *Repository {
	m := make(map[string][]byte, len(docs))
	for k, v := range docs {
		m[k] = []byte(v)
	}
	return &Repository{docs: m}
}

// NewFromDefinitions creates a Repository from domain objects, serializing
// them on the way in. Convenient for tests.
func NewFromDefinitions(defs ...domain.ProtocolDefinition) (*Repository, error) {
	m := make(map[string][]byte, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("protocol definition missing name")
		}
		raw, err := yaml.Marshal(def)
		if err != nil {
			return nil, fmt.Errorf("marshal protocol %s: %w", def.Name, err)
		}
		m[def.Name] = raw
	}
	return &Repository{docs: m}, nil
}

// Put stores or replaces the raw document for name.
func (r *Repository) Put(name, doc string) {
	r.docs[name] = []byte(doc)
}

// Load returns the raw document for name.
func (r *Repository) Load(name string) ([]byte, error) {
	raw, ok := r.docs[name]
	if !ok {
		return nil, &domain.NotFoundError{Name: name}
	}
	return raw, nil
}

// List returns all protocol names in deterministic order.
func (r *Repository) List() ([]string, error) {
	names := make([]string, 0, len(r.docs))
	for name := range r.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
