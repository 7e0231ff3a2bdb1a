package engine

import (
	"github.com/urdwyrd/urd/internal/world"
)

// Effect application is the only code path that writes the store.
// Every observable mutation emits an event; silent no-ops (writes that
// leave state unchanged, operations against absent entities) emit
// nothing.

// applyEffects applies a list of effects in declaration order. If any
// applied effect changed a property, a property-change rule sweep runs
// after the whole list, so a rule observing the writes sees the final
// state of the batch, not an intermediate one.
func (e *Engine) applyEffects(effs []world.Effect) {
	changed := false
	for _, eff := range effs {
		if e.applyEffect(eff) {
			changed = true
		}
	}
	if changed {
		e.sweep(world.TriggerPropertyChange, "")
	}
}

// applyEffect applies one effect and reports whether it changed a
// property value (moves, destroys and reveals do not count; they have
// their own triggers and events).
func (e *Engine) applyEffect(eff world.Effect) bool {
	switch ef := eff.(type) {
	case world.Set:
		return e.applySet(ef)

	case world.Move:
		dest := ef.To
		if dest == world.TokenHere {
			dest = e.store.PlayerLocation()
		}
		from, ok := e.store.MoveEntity(ef.Entity, dest)
		if !ok || from == dest {
			return false
		}
		e.emit(Event{
			Kind:   EventEntityMoved,
			Entity: ef.Entity,
			From:   from,
			To:     dest,
		})
		return false

	case world.Destroy:
		if !e.store.DestroyEntity(ef.Entity) {
			return false
		}
		e.emit(Event{
			Kind:   EventEntityDestroyed,
			Entity: ef.Entity,
		})
		return false

	case world.Reveal:
		if e.store.IsRevealed(ef.Entity, ef.Property) {
			return false
		}
		if !e.store.Reveal(ef.Entity, ef.Property) {
			return false
		}
		e.emit(Event{
			Kind:     EventPropertyRevealed,
			Entity:   ef.Entity,
			Property: ef.Property,
		})
		return false

	default:
		return false
	}
}

// applySet resolves a set effect's value (literal or formula), writes
// it through bounds clamping, and emits property_changed when the
// stored value actually changed.
func (e *Engine) applySet(ef world.Set) bool {
	var v world.Value
	if ef.Formula != nil {
		base, ok := e.store.GetProperty(ef.Formula.From.Entity, ef.Formula.From.Property)
		if !ok {
			return false
		}
		bi, ok := base.(world.Int)
		if !ok {
			return false
		}
		switch ef.Formula.Op {
		case world.ArithAdd:
			v = bi + world.Int(ef.Formula.Amount)
		case world.ArithSub:
			v = bi - world.Int(ef.Formula.Amount)
		default:
			return false
		}
	} else {
		v = ef.Value
	}

	old, applied, changed, ok := e.store.SetProperty(ef.Entity, ef.Property, v)
	if !ok || !changed {
		return false
	}
	e.emit(Event{
		Kind:     EventPropertyChanged,
		Entity:   ef.Entity,
		Property: ef.Property,
		Old:      world.String(old),
		New:      world.String(applied),
	})
	return true
}
