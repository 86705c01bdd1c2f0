// Package registry catalogs the modules known to modrun.
//
// A Registry is populated once at startup (from a module directory, a YAML
// manifest, or explicit Register calls) and is read-only afterwards.
package registry

import (
	"sort"

	"github.com/AndreyAkinshin/modrun/internal/errors"
	"github.com/AndreyAkinshin/modrun/internal/task"
)

// Registry manages a collection of module descriptors keyed by id.
type Registry struct {
	modules map[string]task.Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{modules: make(map[string]task.Descriptor)}
}

// FromDescriptors creates a registry holding the given descriptors.
// Returns a DuplicateID error if two descriptors share an id.
func FromDescriptors(descriptors []task.Descriptor) (*Registry, error) {
	r := New()
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a descriptor. Ids are unique within a registry.
func (r *Registry) Register(d task.Descriptor) error {
	if d.ID == "" {
		return errors.Config("module id is required")
	}
	if d.Location == "" {
		return errors.Configf("module %q: path is required", d.ID)
	}
	if _, exists := r.modules[d.ID]; exists {
		return errors.DuplicateID(d.ID)
	}
	r.modules[d.ID] = d
	return nil
}

// Resolve retrieves a descriptor by id.
func (r *Registry) Resolve(id string) (task.Descriptor, bool) {
	d, ok := r.modules[id]
	return d, ok
}

// List returns descriptors sorted by id. Disabled descriptors are
// included only when includeDisabled is set.
func (r *Registry) List(includeDisabled bool) []task.Descriptor {
	list := make([]task.Descriptor, 0, len(r.modules))
	for _, d := range r.modules {
		if d.Enabled || includeDisabled {
			list = append(list, d)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// Names returns all module ids sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return len(r.modules)
}
