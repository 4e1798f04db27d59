package metacache

import (
	"context"

	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// Binding connects one object kind to its owning cache. The closures are
// built by the container against its typed ChildCache instances, so lookups
// never need runtime type inspection.
type Binding struct {
	// Refresh re-reads the object's single row and merges it into the
	// owning cache in place, returning the surviving object.
	Refresh func(ctx context.Context, obj core.Object) (core.Object, error)

	// ClearDependents drops caches derived from the object that are queried
	// independently of its own listing (a table's constraints and indexes).
	// Nil when the kind has no derived caches.
	ClearDependents func(obj core.Object)

	// Clear drops the cached listing that contains the object, forcing the
	// next read to reload.
	Clear func(obj core.Object)
}

// Registry maps object kinds to the cache Binding that owns them. One
// Registry exists per container object (a schema, a database); it is built
// once in the container's constructor and read-only afterwards.
type Registry struct {
	bindings map[core.Kind]Binding
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[core.Kind]Binding)}
}

// Bind registers the binding for the given kinds. Several kinds may share a
// binding when one cache holds all of them (tables, views and materialized
// views live in the same relation cache).
func (r *Registry) Bind(b Binding, kinds ...core.Kind) {
	for _, k := range kinds {
		r.bindings[k] = b
	}
}

// Binding returns the binding for a kind.
func (r *Registry) Binding(kind core.Kind) (Binding, bool) {
	b, ok := r.bindings[kind]
	return b, ok
}

// Kinds returns the number of bound kinds. Used by container teardown
// checks and tests.
func (r *Registry) Kinds() int {
	return len(r.bindings)
}
