package engine

import (
	"fmt"

	"github.com/urdwyrd/urd/internal/world"
)

// Rule sweeps walk the declaration-order rule list, fire every rule
// whose trigger and conditions match, and respect the per-turn
// fired-set: a rule fires at most once per turn, which bounds the
// cascades property-change sweeps can otherwise build.

// sweep evaluates every rule matching the given trigger kind. For
// action triggers, actionID narrows the match to rules declared for
// that action.
func (e *Engine) sweep(kind world.TriggerKind, actionID string) {
	for i := range e.def.Rules {
		r := &e.def.Rules[i]
		if r.Trigger.Kind != kind {
			continue
		}
		if kind == world.TriggerAction && r.Trigger.Action != actionID {
			continue
		}
		e.tryFire(r)
	}
}

// sweepAlways runs the end-of-turn pass over always-triggered rules.
func (e *Engine) sweepAlways() {
	for i := range e.def.Rules {
		r := &e.def.Rules[i]
		if r.Trigger.Kind != world.TriggerAlways {
			continue
		}
		e.tryFire(r)
	}
}

// tryFire fires one rule if it has not fired this turn and its
// conditions hold. Rules with a selection block resolve their candidate
// first; an empty candidate set means the rule does not fire.
func (e *Engine) tryFire(r *world.Rule) {
	if e.fired[r.ID] {
		return
	}

	if r.Select == nil {
		if !e.evalAll(r.Conditions) {
			return
		}
		e.fired[r.ID] = true
		e.emit(Event{Kind: EventRuleFired, Rule: r.ID})
		e.applyEffects(r.Effects)
		return
	}

	candidate, ok := e.selectCandidate(r)
	if !ok {
		return
	}
	conds := world.BindConditions(r.Conditions, r.Select.Bind, candidate)
	if !e.evalAll(conds) {
		return
	}
	e.fired[r.ID] = true
	e.emit(Event{Kind: EventRuleFired, Rule: r.ID, Candidate: candidate})
	e.applyEffects(world.BindEffects(r.Effects, r.Select.Bind, candidate))
}

// selectCandidate filters the rule's candidate list through its where
// clause in declaration order, then picks one survivor. A single
// survivor is returned directly; ties break by seeded hash over the
// rule id and turn number, so two engines with the same seed and
// history pick the same candidate, and different turns can pick
// differently.
func (e *Engine) selectCandidate(r *world.Rule) (string, bool) {
	var eligible []string
	for _, id := range r.Select.Candidates {
		conds := world.BindConditions(r.Select.Where, r.Select.Bind, id)
		if e.evalAll(conds) {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) == 0 {
		return "", false
	}
	discriminator := fmt.Sprintf("%s/%d", r.ID, e.turn)
	return eligible[world.Pick(e.seed, discriminator, len(eligible))], true
}
