// Package defs holds the static object and item definitions. A Registry is
// built once by a loader and then only read.
package defs

import (
	"fmt"
	"sort"
)

// MaxObjectDefinitions bounds object ids to [0, MaxObjectDefinitions).
const MaxObjectDefinitions = 9399

// ObjectDefinition describes a placeable map object.
type ObjectDefinition struct {
	ID          int
	Name        string
	Description string
	SizeX       int
	SizeY       int
	Solid       bool
	Walkable    bool
	HasActions  bool
}

// ItemDefinition describes an inventory item.
type ItemDefinition struct {
	ID        int
	Name      string
	Stackable bool
}

// DefinitionError reports a definition that cannot be registered.
type DefinitionError struct {
	Kind   string
	ID     int
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s definition %d: %s", e.Kind, e.ID, e.Reason)
}

// Registry is an immutable set of definitions.
type Registry struct {
	objects map[int]ObjectDefinition
	items   map[int]ItemDefinition
}

// NewRegistry validates and indexes the given definitions. Duplicate ids
// and object ids outside [0, MaxObjectDefinitions) are errors.
func NewRegistry(objects []ObjectDefinition, items []ItemDefinition) (*Registry, error) {
	r := &Registry{
		objects: make(map[int]ObjectDefinition, len(objects)),
		items:   make(map[int]ItemDefinition, len(items)),
	}
	for _, def := range objects {
		if def.ID < 0 || def.ID >= MaxObjectDefinitions {
			return nil, &DefinitionError{Kind: "object", ID: def.ID, Reason: fmt.Sprintf("id outside [0, %d)", MaxObjectDefinitions)}
		}
		if def.SizeX <= 0 || def.SizeY <= 0 {
			return nil, &DefinitionError{Kind: "object", ID: def.ID, Reason: "size must be positive"}
		}
		if _, dup := r.objects[def.ID]; dup {
			return nil, &DefinitionError{Kind: "object", ID: def.ID, Reason: "duplicate id"}
		}
		r.objects[def.ID] = def
	}
	for _, def := range items {
		if def.ID < 0 {
			return nil, &DefinitionError{Kind: "item", ID: def.ID, Reason: "negative id"}
		}
		if _, dup := r.items[def.ID]; dup {
			return nil, &DefinitionError{Kind: "item", ID: def.ID, Reason: "duplicate id"}
		}
		r.items[def.ID] = def
	}
	return r, nil
}

// Empty returns a registry with no definitions.
func Empty() *Registry {
	r, _ := NewRegistry(nil, nil)
	return r
}

// Object looks up an object definition.
func (r *Registry) Object(id int) (ObjectDefinition, bool) {
	if r == nil {
		return ObjectDefinition{}, false
	}
	def, ok := r.objects[id]
	return def, ok
}

// Item looks up an item definition.
func (r *Registry) Item(id int) (ItemDefinition, bool) {
	if r == nil {
		return ItemDefinition{}, false
	}
	def, ok := r.items[id]
	return def, ok
}

// Stackable reports whether an item id merges into a single slot. Unknown
// items do not stack.
func (r *Registry) Stackable(id int) bool {
	def, ok := r.Item(id)
	return ok && def.Stackable
}

// Objects returns every object definition ordered by id.
func (r *Registry) Objects() []ObjectDefinition {
	if r == nil {
		return nil
	}
	out := make([]ObjectDefinition, 0, len(r.objects))
	for _, def := range r.objects {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) ObjectCount() int {
	if r == nil {
		return 0
	}
	return len(r.objects)
}

func (r *Registry) ItemCount() int {
	if r == nil {
		return 0
	}
	return len(r.items)
}
