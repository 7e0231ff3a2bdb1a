package engine

import (
	"github.com/urdwyrd/urd/internal/world"
)

// Sequence engine.
//
// At most one sequence is active at a time. Phases run strictly in
// declaration order; a phase whose entry conditions do not hold yet
// stays pending and is retried at the end of every turn. Entering a
// phase applies its effects exactly once.

// activateSequence starts a sequence from its first phase. No-op when
// the id is unknown or a sequence is already active.
func (e *Engine) activateSequence(id string) {
	if e.seqID != "" {
		return
	}
	if _, ok := e.def.Sequence(id); !ok {
		return
	}
	e.seqID = id
	e.phaseIdx = 0
	e.phaseEntered = false
	e.tryEnterPhase()
}

// tryEnterPhase enters the pending phase if its conditions hold,
// applying its effects and chaining through auto-advancing phases.
func (e *Engine) tryEnterPhase() {
	for e.seqID != "" && !e.phaseEntered {
		seq, ok := e.def.Sequence(e.seqID)
		if !ok || e.phaseIdx >= len(seq.Phases) {
			e.completeSequence()
			return
		}
		ph := &seq.Phases[e.phaseIdx]
		if !e.evalAll(ph.Conditions) {
			return
		}
		e.phaseEntered = true
		e.emit(Event{
			Kind:     EventPhaseEntered,
			Sequence: e.seqID,
			Phase:    ph.ID,
			Hint:     ph.Prompt,
		})
		e.applyEffects(ph.Effects)
		// An auto phase chains onward immediately, unless its policy is
		// manual: then it rests entered until an AdvanceSequence call.
		if ph.Auto && ph.Advance.Kind != world.AdvanceManual {
			e.advancePhase()
		}
	}
}

// advancePhase moves past the current phase, completing the sequence
// when it was the last one.
func (e *Engine) advancePhase() {
	seq, ok := e.def.Sequence(e.seqID)
	if !ok {
		e.completeSequence()
		return
	}
	e.phaseIdx++
	e.phaseEntered = false
	if e.phaseIdx >= len(seq.Phases) {
		e.completeSequence()
	}
}

func (e *Engine) completeSequence() {
	if e.seqID == "" {
		return
	}
	id := e.seqID
	e.seqID = ""
	e.phaseIdx = 0
	e.phaseEntered = false
	e.emit(Event{Kind: EventSequenceCompleted, Sequence: id})
}

// sequenceEndOfTurn runs the per-turn sequence pass: retry a pending
// phase, then apply the entered phase's advance policy.
func (e *Engine) sequenceEndOfTurn(firedThisTurn map[string]bool) {
	if e.seqID == "" {
		return
	}
	e.tryEnterPhase()
	if e.seqID == "" || !e.phaseEntered {
		return
	}
	seq, ok := e.def.Sequence(e.seqID)
	if !ok || e.phaseIdx >= len(seq.Phases) {
		return
	}
	ph := &seq.Phases[e.phaseIdx]

	advance := false
	switch ph.Advance.Kind {
	case world.AdvanceManual:
		// Advanced only by an explicit AdvanceSequence call.
	case world.AdvanceAfterAction:
		advance = true
	case world.AdvanceAfterCondition:
		advance = ph.Advance.Condition != nil && e.eval(ph.Advance.Condition)
	case world.AdvanceAfterRule:
		advance = firedThisTurn[ph.Advance.Rule]
	}
	if advance {
		e.advancePhase()
		e.tryEnterPhase()
	}
}
