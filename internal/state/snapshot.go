package state

import (
	"slices"

	"github.com/urdwyrd/urd/internal/world"
)

// EntitySnapshot is the frozen state of one entity.
type EntitySnapshot struct {
	Container  string                 `json:"container"`
	Properties map[string]world.Value `json:"properties"`
	Revealed   []string               `json:"revealed,omitempty"`
	Destroyed  bool                   `json:"destroyed,omitempty"`
}

// Snapshot is a deep copy of the store's mutable state. Mutating a
// snapshot never affects the live store.
type Snapshot struct {
	Location string                    `json:"location"`
	Entities map[string]EntitySnapshot `json:"entities"`
}

// Snapshot deep-copies the store.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Location: s.location,
		Entities: make(map[string]EntitySnapshot, len(s.containers)),
	}
	for id, container := range s.containers {
		props := make(map[string]world.Value, len(s.props[id]))
		for name, v := range s.props[id] {
			props[name] = v
		}
		var revealed []string
		for name, on := range s.revealed[id] {
			if on {
				revealed = append(revealed, name)
			}
		}
		slices.Sort(revealed)
		snap.Entities[id] = EntitySnapshot{
			Container:  container,
			Properties: props,
			Revealed:   revealed,
			Destroyed:  s.destroyed[id],
		}
	}
	return snap
}

// ToMap renders a snapshot for canonical hashing.
func (snap Snapshot) ToMap() map[string]any {
	entities := make(map[string]any, len(snap.Entities))
	for id, e := range snap.Entities {
		props := make(map[string]any, len(e.Properties))
		for name, v := range e.Properties {
			props[name] = v
		}
		revealed := make([]any, len(e.Revealed))
		for i, name := range e.Revealed {
			revealed[i] = name
		}
		entities[id] = map[string]any{
			"container":  e.Container,
			"properties": props,
			"revealed":   revealed,
			"destroyed":  e.Destroyed,
		}
	}
	return map[string]any{
		"location": snap.Location,
		"entities": entities,
	}
}
