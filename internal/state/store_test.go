package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urdwyrd/urd/internal/world"
)

func testDefinition() *world.Definition {
	zero, ten := int64(0), int64(10)
	return &world.Definition{
		Meta: world.Meta{Name: "pantry", Start: "kitchen", Seed: 5},
		Types: []world.TypeSchema{
			{Name: "jar", Properties: map[string]world.PropertySchema{
				"filled":  {Default: world.Int(3), Min: &zero, Max: &ten},
				"label":   {Default: world.Str("plum")},
				"cracked": {Default: world.Bool(false), Hidden: true},
			}},
		},
		Entities: []world.Entity{
			{ID: "jam", Type: "jar", Container: "kitchen"},
			{ID: "honey", Type: "jar", Container: world.TokenPlayer,
				Properties: world.PropertyMap{"filled": world.Int(9)}},
			{ID: "empty_jar", Type: "jar"},
		},
		Locations: []world.Location{{ID: "kitchen"}, {ID: "larder"}},
	}
}

func TestNewAppliesDefaultsAndOverrides(t *testing.T) {
	s := New(testDefinition())

	v, ok := s.GetProperty("jam", "filled")
	require.True(t, ok)
	assert.Equal(t, world.Int(3), v)

	v, ok = s.GetProperty("honey", "filled")
	require.True(t, ok)
	assert.Equal(t, world.Int(9), v)

	v, ok = s.GetProperty("jam", "label")
	require.True(t, ok)
	assert.Equal(t, world.Str("plum"), v)

	assert.Equal(t, "kitchen", s.PlayerLocation())
}

func TestContainment(t *testing.T) {
	s := New(testDefinition())

	c, ok := s.ContainerOf("jam")
	require.True(t, ok)
	assert.Equal(t, "kitchen", c)

	c, ok = s.ContainerOf("empty_jar")
	require.True(t, ok)
	assert.Equal(t, ContainerNone, c)

	_, ok = s.ContainerOf("ghost")
	assert.False(t, ok)

	from, ok := s.MoveEntity("jam", world.TokenPlayer)
	require.True(t, ok)
	assert.Equal(t, "kitchen", from)
	assert.Equal(t, []string{"honey", "jam"}, s.Inventory())
	assert.Empty(t, s.EntitiesAt("kitchen"))

	_, ok = s.MoveEntity("ghost", "larder")
	assert.False(t, ok)
}

func TestSetPropertyClampsToBounds(t *testing.T) {
	s := New(testDefinition())

	old, applied, changed, ok := s.SetProperty("jam", "filled", world.Int(99))
	require.True(t, ok)
	assert.True(t, changed)
	assert.Equal(t, world.Int(3), old)
	assert.Equal(t, world.Int(10), applied)

	_, applied, _, ok = s.SetProperty("jam", "filled", world.Int(-4))
	require.True(t, ok)
	assert.Equal(t, world.Int(0), applied)
}

func TestSetPropertyReportsUnchangedWrites(t *testing.T) {
	s := New(testDefinition())

	old, applied, changed, ok := s.SetProperty("jam", "label", world.Str("plum"))
	require.True(t, ok)
	assert.False(t, changed)
	assert.Equal(t, old, applied)

	// A clamped write that lands on the current value changes nothing.
	s.SetProperty("jam", "filled", world.Int(10))
	_, _, changed, ok = s.SetProperty("jam", "filled", world.Int(50))
	require.True(t, ok)
	assert.False(t, changed)
}

func TestSetPropertyRefusesAbsentTargets(t *testing.T) {
	s := New(testDefinition())

	_, _, _, ok := s.SetProperty("ghost", "filled", world.Int(1))
	assert.False(t, ok)

	_, _, _, ok = s.SetProperty("jam", "undeclared", world.Int(1))
	assert.False(t, ok)
}

func TestDestroyEntity(t *testing.T) {
	s := New(testDefinition())

	require.True(t, s.DestroyEntity("honey"))
	assert.False(t, s.Exists("honey"))
	assert.Empty(t, s.Inventory())

	_, ok := s.GetProperty("honey", "filled")
	assert.False(t, ok)
	_, ok = s.ContainerOf("honey")
	assert.False(t, ok)

	// Destruction is permanent; a second destroy is a no-op.
	assert.False(t, s.DestroyEntity("honey"))
	assert.False(t, s.DestroyEntity("ghost"))
}

func TestRevealAndIsRevealed(t *testing.T) {
	s := New(testDefinition())

	// Never-hidden properties are visible from the start.
	assert.True(t, s.IsRevealed("jam", "filled"))

	assert.False(t, s.IsRevealed("jam", "cracked"))
	require.True(t, s.Reveal("jam", "cracked"))
	assert.True(t, s.IsRevealed("jam", "cracked"))

	// Reveal never alters the value.
	v, ok := s.GetProperty("jam", "cracked")
	require.True(t, ok)
	assert.Equal(t, world.Bool(false), v)

	assert.False(t, s.Reveal("ghost", "cracked"))
	assert.False(t, s.Reveal("jam", "undeclared"))
	assert.False(t, s.IsRevealed("jam", "undeclared"))
}

func TestEntitiesAtSorted(t *testing.T) {
	s := New(testDefinition())
	s.MoveEntity("honey", "kitchen")
	s.MoveEntity("empty_jar", "kitchen")

	assert.Equal(t, []string{"empty_jar", "honey", "jam"}, s.EntitiesAt("kitchen"))
}

func TestIsType(t *testing.T) {
	s := New(testDefinition())

	assert.True(t, s.IsType("jam", "jar"))
	assert.False(t, s.IsType("jam", "crate"))
	assert.False(t, s.IsType("ghost", "jar"))

	s.DestroyEntity("jam")
	assert.False(t, s.IsType("jam", "jar"))
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := New(testDefinition())
	s.Reveal("jam", "cracked")
	snap := s.Snapshot()

	// Mutating the snapshot leaves the store untouched.
	snap.Entities["jam"].Properties["filled"] = world.Int(7)
	v, _ := s.GetProperty("jam", "filled")
	assert.Equal(t, world.Int(3), v)

	// Mutating the store leaves the snapshot untouched: it still holds
	// the value written into it above, not the store's new one.
	s.SetProperty("jam", "filled", world.Int(8))
	assert.Equal(t, world.Int(7), snap.Entities["jam"].Properties["filled"])

	assert.Equal(t, "kitchen", snap.Location)
	assert.Equal(t, []string{"cracked"}, snap.Entities["jam"].Revealed)
	assert.True(t, snap.Entities["honey"].Properties["filled"] == world.Int(9))
}

func TestSnapshotHashReflectsState(t *testing.T) {
	a := New(testDefinition())
	b := New(testDefinition())

	ha, err := world.HashCanonical(world.DomainSnapshot, a.Snapshot().ToMap())
	require.NoError(t, err)
	hb, err := world.HashCanonical(world.DomainSnapshot, b.Snapshot().ToMap())
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	b.SetProperty("jam", "filled", world.Int(4))
	hb, err = world.HashCanonical(world.DomainSnapshot, b.Snapshot().ToMap())
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestSnapshotMarksDestroyed(t *testing.T) {
	s := New(testDefinition())
	s.DestroyEntity("empty_jar")
	snap := s.Snapshot()

	e, ok := snap.Entities["empty_jar"]
	require.True(t, ok)
	assert.True(t, e.Destroyed)
	assert.Equal(t, ContainerNone, e.Container)
}
