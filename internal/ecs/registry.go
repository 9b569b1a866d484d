// Package ecs is a small entity store: stable entity identifiers, one generic
// sparse-set store per component type, multi-store queries and a command buffer
// that defers structural changes until no query is running.
package ecs

import "fmt"

// Entity is an opaque identifier. Identifiers are never reused so a stale
// reference simply stops resolving once its entity is destroyed.
type Entity uint64

// Nil is the zero entity; it never refers to a live entity.
const Nil Entity = 0

// String renders the identifier for logs and panics.
func (e Entity) String() string {
	return fmt.Sprintf("entity#%d", uint64(e))
}

// Queryable is the type-erased view of a component store used by the registry and queries.
type Queryable interface {
	Has(e Entity) bool
	Len() int
	order() []Entity
	registry() *Registry
	drop(e Entity)
}

// Registry allocates entities and tracks which stores must forget them on destroy.
type Registry struct {
	next    Entity
	alive   map[Entity]struct{}
	stores  []Queryable
	queries int
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{alive: make(map[Entity]struct{})}
}

// reserve hands out the next identifier without making it alive.
func (r *Registry) reserve() Entity {
	r.next++
	return r.next
}

// Create allocates a live entity immediately. It is a structural change.
func (r *Registry) Create() Entity {
	r.mustBeIdle("create entity")
	e := r.reserve()
	r.alive[e] = struct{}{}
	return e
}

// Alive reports whether the entity exists in the store.
func (r *Registry) Alive(e Entity) bool {
	if r == nil || e == Nil {
		return false
	}
	_, ok := r.alive[e]
	return ok
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.alive)
}

// Destroy removes the entity and every component attached to it.
// Destroying an unknown or already destroyed entity is a no-op.
func (r *Registry) Destroy(e Entity) {
	r.mustBeIdle("destroy entity")
	if _, ok := r.alive[e]; !ok {
		return
	}
	//1.- Strip the components first so no store keeps a dangling key.
	for _, store := range r.stores {
		store.drop(e)
	}
	delete(r.alive, e)
}

// Querying reports whether a query iteration is currently in progress.
func (r *Registry) Querying() bool {
	return r != nil && r.queries > 0
}

func (r *Registry) register(store Queryable) {
	r.stores = append(r.stores, store)
}

func (r *Registry) mustBeIdle(op string) {
	if r.queries > 0 {
		panic(fmt.Sprintf("ecs: %s during query iteration; buffer it with Commands", op))
	}
}
