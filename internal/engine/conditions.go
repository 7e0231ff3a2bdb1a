package engine

import (
	"github.com/urdwyrd/urd/internal/world"
)

// Condition evaluation is pure with respect to the store: it reads
// state and returns a boolean, mutating nothing.
//
// Evaluation order is strictly left-to-right in declaration order.
// This is load-bearing: failure reporting must name the FIRST failing
// condition deterministically, never an arbitrary one.
//
// Absence is uniform: any read against an unknown or destroyed entity
// makes the enclosing condition false, negated containment included.

// evalAll reports whether every condition in the list holds (implicit
// AND). An empty list is vacuously true.
func (e *Engine) evalAll(conds []world.Condition) bool {
	for _, c := range conds {
		if !e.eval(c) {
			return false
		}
	}
	return true
}

// firstFailing returns the first condition in declaration order that
// does not hold. ok is false when every condition holds.
func (e *Engine) firstFailing(conds []world.Condition) (world.Condition, bool) {
	for _, c := range conds {
		if !e.eval(c) {
			return c, true
		}
	}
	return nil, false
}

// eval evaluates a single condition against current state.
func (e *Engine) eval(c world.Condition) bool {
	switch cond := c.(type) {
	case world.Compare:
		v, ok := e.store.GetProperty(cond.Entity, cond.Property)
		if !ok {
			return false
		}
		return compare(v, cond.Op, cond.Value)

	case world.Contain:
		container, ok := e.store.ContainerOf(cond.Entity)
		if !ok {
			return false
		}
		var in bool
		switch cond.Target {
		case world.TokenPlayer:
			in = container == world.TokenPlayer
		case world.TokenHere:
			in = container == e.store.PlayerLocation()
		default:
			in = container == cond.Target
		}
		if cond.In {
			return in
		}
		return !in

	case world.Exhausted:
		return e.sectionExhausted(cond.Section)

	case world.AnyOf:
		for _, inner := range cond.Conditions {
			if e.eval(inner) {
				return true
			}
		}
		return false

	case world.AllOf:
		return e.evalAll(cond.Conditions)

	default:
		// Unknown shapes are rejected at load; reaching here is a bug,
		// but evaluation stays total.
		return false
	}
}

// compare applies a comparison operator to two values. Values of
// different variants never compare true, whatever the operator; the
// ordered operators apply only to integers.
func compare(a world.Value, op world.CompareOp, b world.Value) bool {
	switch op {
	case world.OpEq:
		return world.Equal(a, b)
	case world.OpNe:
		if !sameVariant(a, b) {
			return false
		}
		return !world.Equal(a, b)
	}

	ai, aok := a.(world.Int)
	bi, bok := b.(world.Int)
	if !aok || !bok {
		return false
	}
	switch op {
	case world.OpGe:
		return ai >= bi
	case world.OpLe:
		return ai <= bi
	case world.OpGt:
		return ai > bi
	case world.OpLt:
		return ai < bi
	default:
		return false
	}
}

func sameVariant(a, b world.Value) bool {
	switch a.(type) {
	case world.Null:
		_, ok := b.(world.Null)
		return ok
	case world.Str:
		_, ok := b.(world.Str)
		return ok
	case world.Int:
		_, ok := b.(world.Int)
		return ok
	case world.Bool:
		_, ok := b.(world.Bool)
		return ok
	default:
		return false
	}
}
