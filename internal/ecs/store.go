package ecs

import "fmt"

// Store is a container for a single component type T.
// Components are held by pointer so systems can mutate them in place while
// iterating; entity order follows insertion to keep iteration deterministic.
type Store[T any] struct {
	reg        *Registry
	components map[Entity]*T
	entities   []Entity
}

// NewStore creates a store for T and registers it with the registry so that
// destroyed entities are removed from it.
func NewStore[T any](reg *Registry) *Store[T] {
	if reg == nil {
		panic("ecs: store requires a registry")
	}
	s := &Store[T]{
		reg:        reg,
		components: make(map[Entity]*T),
		entities:   make([]Entity, 0, 64),
	}
	reg.register(s)
	return s
}

// Insert attaches or replaces the component for an entity. Attaching a new
// component is a structural change and is refused while a query is running.
func (s *Store[T]) Insert(e Entity, val T) {
	if existing, ok := s.components[e]; ok {
		*existing = val
		return
	}
	s.reg.mustBeIdle("attach component")
	if !s.reg.Alive(e) {
		panic(fmt.Sprintf("ecs: attach component to dead %s", e))
	}
	clone := val
	s.components[e] = &clone
	s.entities = append(s.entities, e)
}

// Get returns the component of an entity if present.
func (s *Store[T]) Get(e Entity) (*T, bool) {
	val, ok := s.components[e]
	return val, ok
}

// Must returns the component or panics: use it only on entities a query has
// just yielded, where a missing component means the store is corrupted.
func (s *Store[T]) Must(e Entity) *T {
	val, ok := s.components[e]
	if !ok {
		var zero T
		panic(fmt.Sprintf("ecs: %s has no %T component", e, zero))
	}
	return val
}

// Has checks if the entity has this component.
func (s *Store[T]) Has(e Entity) bool {
	_, ok := s.components[e]
	return ok
}

// Len returns the number of entities with this component.
func (s *Store[T]) Len() int {
	return len(s.entities)
}

// Entities returns a copy of the entities holding this component in insertion order.
func (s *Store[T]) Entities() []Entity {
	result := make([]Entity, len(s.entities))
	copy(result, s.entities)
	return result
}

// Remove detaches the component from an entity. It is a structural change.
func (s *Store[T]) Remove(e Entity) {
	s.reg.mustBeIdle("detach component")
	s.drop(e)
}

func (s *Store[T]) order() []Entity { return s.entities }

func (s *Store[T]) registry() *Registry { return s.reg }

func (s *Store[T]) drop(e Entity) {
	if _, exists := s.components[e]; !exists {
		return
	}
	delete(s.components, e)
	//1.- Shift instead of swap so the remaining iteration order is preserved.
	for i, entity := range s.entities {
		if entity == e {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			break
		}
	}
}
