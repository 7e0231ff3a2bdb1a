package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urdwyrd/urd/internal/world"
)

func TestCompareOperators(t *testing.T) {
	tests := []struct {
		name string
		a    world.Value
		op   world.CompareOp
		b    world.Value
		want bool
	}{
		{"int eq", world.Int(3), world.OpEq, world.Int(3), true},
		{"int ne", world.Int(3), world.OpNe, world.Int(4), true},
		{"int ge equal", world.Int(3), world.OpGe, world.Int(3), true},
		{"int ge below", world.Int(2), world.OpGe, world.Int(3), false},
		{"int le", world.Int(2), world.OpLe, world.Int(3), true},
		{"int gt", world.Int(4), world.OpGt, world.Int(3), true},
		{"int lt", world.Int(4), world.OpLt, world.Int(3), false},
		{"str eq", world.Str("goat"), world.OpEq, world.Str("goat"), true},
		{"bool eq", world.Bool(true), world.OpEq, world.Bool(true), true},
		{"null eq", world.Null{}, world.OpEq, world.Null{}, true},

		// Mismatched variants never compare true, whatever the operator.
		{"int vs str eq", world.Int(1), world.OpEq, world.Str("1"), false},
		{"int vs str ne", world.Int(1), world.OpNe, world.Str("1"), false},
		{"bool vs int ge", world.Bool(true), world.OpGe, world.Int(1), false},

		// Ordered operators are integer-only.
		{"str ge", world.Str("b"), world.OpGe, world.Str("a"), false},
		{"bool lt", world.Bool(false), world.OpLt, world.Bool(true), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compare(tt.a, tt.op, tt.b))
		})
	}
}

func TestEvalAgainstAbsentEntity(t *testing.T) {
	e := newTestEngine(t, keyPuzzleWorld(1))
	_, err := e.Perform("eat_key", nil)
	require.NoError(t, err)

	// Every read against the destroyed key is false, the negated
	// containment form included.
	assert.False(t, e.eval(world.Compare{
		Entity: "brass_key", Property: "anything", Op: world.OpEq, Value: world.Null{},
	}))
	assert.False(t, e.eval(world.Contain{Entity: "brass_key", Target: "hall", In: true}))
	assert.False(t, e.eval(world.Contain{Entity: "brass_key", Target: "hall", In: false}))
	assert.False(t, e.eval(world.Contain{Entity: "ghost", Target: "hall", In: false}))
}

func TestEvalGroups(t *testing.T) {
	e := newTestEngine(t, keyPuzzleWorld(1))

	locked := world.Compare{Entity: "vault_door", Property: "locked", Op: world.OpEq, Value: world.Bool(true)}
	unlocked := world.Compare{Entity: "vault_door", Property: "locked", Op: world.OpEq, Value: world.Bool(false)}

	assert.True(t, e.eval(world.AnyOf{Conditions: []world.Condition{unlocked, locked}}))
	assert.False(t, e.eval(world.AnyOf{Conditions: []world.Condition{unlocked}}))
	assert.False(t, e.eval(world.AnyOf{}), "empty any-group holds for no member")

	assert.True(t, e.eval(world.AllOf{Conditions: []world.Condition{locked}}))
	assert.False(t, e.eval(world.AllOf{Conditions: []world.Condition{locked, unlocked}}))
	assert.True(t, e.eval(world.AllOf{}), "empty all-group is vacuously true")
}

func TestEvalContainmentTokens(t *testing.T) {
	e := newTestEngine(t, keyPuzzleWorld(1))

	assert.True(t, e.eval(world.Contain{Entity: "brass_key", Target: world.TokenHere, In: true}))
	assert.False(t, e.eval(world.Contain{Entity: "brass_key", Target: world.TokenPlayer, In: true}))

	_, err := e.Perform("take_key", nil)
	require.NoError(t, err)

	assert.True(t, e.eval(world.Contain{Entity: "brass_key", Target: world.TokenPlayer, In: true}))
	assert.False(t, e.eval(world.Contain{Entity: "brass_key", Target: world.TokenHere, In: true}))
	assert.True(t, e.eval(world.Contain{Entity: "brass_key", Target: "hall", In: false}))
}

func TestEvalExhaustedCondition(t *testing.T) {
	e := newTestEngine(t, exhaustionWorld(nil))

	assert.False(t, e.eval(world.Exhausted{Section: "gossip"}))

	_, err := e.ChooseDialogue(0)
	require.NoError(t, err)
	_, err = e.ChooseDialogue(0)
	require.NoError(t, err)

	assert.True(t, e.eval(world.Exhausted{Section: "gossip"}))
	assert.False(t, e.eval(world.Exhausted{Section: "no_such_section"}))
}

func TestFirstFailingReportsDeclarationOrder(t *testing.T) {
	e := newTestEngine(t, keyPuzzleWorld(1))

	conds := []world.Condition{
		world.Contain{Entity: "brass_key", Target: world.TokenHere, In: true}, // holds
		world.Compare{Entity: "vault_door", Property: "locked", Op: world.OpEq, Value: world.Bool(false)}, // fails
		world.Contain{Entity: "brass_key", Target: world.TokenPlayer, In: true}, // also fails
	}
	failing, failed := e.firstFailing(conds)
	require.True(t, failed)
	assert.Equal(t, "vault_door.locked == false", failing.Ref())
}
