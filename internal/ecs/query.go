package ecs

import "iter"

// Query matches entities holding a component in every listed store.
// The first store drives iteration order; the rest filter.
type Query struct {
	reg    *Registry
	stores []Queryable
}

// NewQuery builds a query over the intersection of the provided stores.
//
// Example:
//
//	for e := range ecs.NewQuery(w.Vehicles, w.Pos).Each() {
//	    pos := w.Pos.Must(e)
//	}
func NewQuery(stores ...Queryable) *Query {
	if len(stores) == 0 {
		panic("ecs: query needs at least one store")
	}
	reg := stores[0].registry()
	for _, store := range stores[1:] {
		if store.registry() != reg {
			panic("ecs: query mixes stores from different registries")
		}
	}
	return &Query{reg: reg, stores: stores}
}

// Each yields every matching entity. While the iteration runs the registry
// refuses structural changes, which must go through Commands instead.
func (q *Query) Each() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		q.reg.queries++
		defer func() { q.reg.queries-- }()
		for _, e := range q.stores[0].order() {
			if !q.matches(e) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Collect returns the matching entities as a slice snapshot.
func (q *Query) Collect() []Entity {
	result := make([]Entity, 0, q.stores[0].Len())
	for e := range q.Each() {
		result = append(result, e)
	}
	return result
}

// Count returns the number of matching entities.
func (q *Query) Count() int {
	count := 0
	for range q.Each() {
		count++
	}
	return count
}

func (q *Query) matches(e Entity) bool {
	for _, store := range q.stores[1:] {
		if !store.Has(e) {
			return false
		}
	}
	return true
}
