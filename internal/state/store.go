// Package state implements the per-session state store.
//
// The store owns every mutable value of one loaded world instance: the
// player's location, entity containment, property values, reveal marks,
// and the destroyed set. The world definition stays immutable; the
// store is created from it at load and discarded on reset.
//
// The store is deliberately passive: it mutates and reports, but emits
// no events and schedules no rule sweeps. Those belong to the engine
// facade, which is the only caller.
//
// Absence is uniform: reads against an unknown or destroyed entity
// never raise. They report "not ok", which makes the enclosing
// condition evaluate false and keeps failure handling in one place.
package state

import (
	"slices"

	"github.com/urdwyrd/urd/internal/world"
)

// ContainerNone is the container of an entity that is nowhere: not held
// by the player and not in any location.
const ContainerNone = ""

// Store holds all mutable state for one session.
type Store struct {
	def *world.Definition

	location   string // player's current location id
	containers map[string]string
	props      map[string]map[string]world.Value
	revealed   map[string]map[string]bool
	destroyed  map[string]bool
}

// New builds a store from the definition: type-schema defaults overlaid
// with per-instance overrides, containment as declared, and the player
// at the start location.
func New(def *world.Definition) *Store {
	s := &Store{
		def:        def,
		location:   def.Meta.Start,
		containers: make(map[string]string, len(def.Entities)),
		props:      make(map[string]map[string]world.Value, len(def.Entities)),
		revealed:   make(map[string]map[string]bool),
		destroyed:  make(map[string]bool),
	}

	for _, e := range def.Entities {
		s.containers[e.ID] = e.Container

		values := make(map[string]world.Value)
		if t, ok := def.Type(e.Type); ok {
			for _, name := range t.PropertyNames() {
				values[name] = t.Properties[name].Default
			}
		}
		for name, v := range e.Properties {
			values[name] = v
		}
		s.props[e.ID] = values
	}

	return s
}

// PlayerLocation returns the player's current location id.
func (s *Store) PlayerLocation() string {
	return s.location
}

// SetPlayerLocation moves the player. The destination must be a
// declared location; the engine validates before calling.
func (s *Store) SetPlayerLocation(loc string) {
	s.location = loc
}

// Exists reports whether the entity is declared and not destroyed.
func (s *Store) Exists(id string) bool {
	if s.destroyed[id] {
		return false
	}
	_, ok := s.containers[id]
	return ok
}

// GetProperty reads an entity property. Not ok if the entity is absent
// or the property is not declared by its type schema.
func (s *Store) GetProperty(entity, name string) (world.Value, bool) {
	if !s.Exists(entity) {
		return nil, false
	}
	v, ok := s.props[entity][name]
	return v, ok
}

// SetProperty writes an entity property, clamping integer values to the
// type's declared bounds. Returns the old and (possibly clamped) new
// value, whether the write changed anything, and whether it applied at
// all. A write against an absent entity or undeclared property is a
// silent no-op (not ok).
func (s *Store) SetProperty(entity, name string, v world.Value) (old, applied world.Value, changed, ok bool) {
	if !s.Exists(entity) {
		return nil, nil, false, false
	}
	old, ok = s.props[entity][name]
	if !ok {
		return nil, nil, false, false
	}

	applied = s.clamp(entity, name, v)
	if world.Equal(old, applied) {
		return old, applied, false, true
	}
	s.props[entity][name] = applied
	return old, applied, true, true
}

func (s *Store) clamp(entity, name string, v world.Value) world.Value {
	n, isInt := v.(world.Int)
	if !isInt {
		return v
	}
	schema, ok := s.def.Schema(entity, name)
	if !ok {
		return v
	}
	if schema.Min != nil && int64(n) < *schema.Min {
		n = world.Int(*schema.Min)
	}
	if schema.Max != nil && int64(n) > *schema.Max {
		n = world.Int(*schema.Max)
	}
	return n
}

// ContainerOf returns an entity's container: ContainerNone, the player
// token, or a location id. Not ok for absent entities.
func (s *Store) ContainerOf(entity string) (string, bool) {
	if !s.Exists(entity) {
		return "", false
	}
	return s.containers[entity], true
}

// MoveEntity updates an entity's container. The engine resolves the
// "here" alias before calling, so destination is ContainerNone, the
// player token, or a location id. Returns the previous container.
func (s *Store) MoveEntity(entity, destination string) (from string, ok bool) {
	if !s.Exists(entity) {
		return "", false
	}
	from = s.containers[entity]
	s.containers[entity] = destination
	return from, true
}

// DestroyEntity marks an entity permanently inert and removes it from
// any container, inventory included. Destroying an absent entity is a
// no-op (not ok).
func (s *Store) DestroyEntity(entity string) bool {
	if !s.Exists(entity) {
		return false
	}
	s.destroyed[entity] = true
	s.containers[entity] = ContainerNone
	return true
}

// Reveal marks a property visible. It never alters the value. Not ok
// for absent entities or undeclared properties.
func (s *Store) Reveal(entity, name string) bool {
	if !s.Exists(entity) {
		return false
	}
	if _, ok := s.props[entity][name]; !ok {
		return false
	}
	if s.revealed[entity] == nil {
		s.revealed[entity] = make(map[string]bool)
	}
	s.revealed[entity][name] = true
	return true
}

// IsRevealed reports whether a property is visible: either the schema
// never hid it, or a reveal effect has marked it.
func (s *Store) IsRevealed(entity, name string) bool {
	schema, ok := s.def.Schema(entity, name)
	if !ok {
		return false
	}
	if !schema.Hidden {
		return true
	}
	return s.revealed[entity][name]
}

// Inventory returns the ids of player-contained entities, sorted.
func (s *Store) Inventory() []string {
	return s.entitiesIn(world.TokenPlayer)
}

// EntitiesAt returns the ids of entities contained in a location,
// sorted.
func (s *Store) EntitiesAt(loc string) []string {
	return s.entitiesIn(loc)
}

func (s *Store) entitiesIn(container string) []string {
	var out []string
	for id, c := range s.containers {
		if c == container && !s.destroyed[id] {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// IsType reports whether an existing entity is of the given type.
func (s *Store) IsType(entity, typeName string) bool {
	if !s.Exists(entity) {
		return false
	}
	e, ok := s.def.Entity(entity)
	return ok && e.Type == typeName
}
