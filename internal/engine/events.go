package engine

// EventKind classifies one entry of the event stream.
type EventKind string

const (
	// EventWorldLoaded opens every session's stream.
	EventWorldLoaded EventKind = "world_loaded"
	// EventPropertyChanged records a successful property write.
	EventPropertyChanged EventKind = "property_changed"
	// EventEntityMoved records a containment change, the player's own
	// movement included (Entity is the player token).
	EventEntityMoved EventKind = "entity_moved"
	// EventEntityDestroyed records an entity becoming permanently inert.
	EventEntityDestroyed EventKind = "entity_destroyed"
	// EventPropertyRevealed records a hidden property becoming visible.
	EventPropertyRevealed EventKind = "property_revealed"
	// EventDialogueOpened records entry into a dialogue section.
	EventDialogueOpened EventKind = "dialogue_opened"
	// EventChoiceTaken records a successful dialogue choice.
	EventChoiceTaken EventKind = "choice_taken"
	// EventDialogueClosed records dialogue closing, by exhaustion
	// fallback, the reserved "end" target, or a non-sticky unwind.
	EventDialogueClosed EventKind = "dialogue_closed"
	// EventSectionExhausted records a section running out of offerable
	// choices.
	EventSectionExhausted EventKind = "section_exhausted"
	// EventRuleFired records a rule committing its effects.
	EventRuleFired EventKind = "rule_fired"
	// EventPhaseEntered records a sequence phase activating.
	EventPhaseEntered EventKind = "phase_entered"
	// EventSequenceCompleted records a sequence advancing past its last
	// phase.
	EventSequenceCompleted EventKind = "sequence_completed"
)

// Event is one entry of the append-only event stream. The stream
// records only successful mutations and transitions; failures never
// appear in it. Field population depends on Kind; unused fields are
// empty and omitted from JSON.
//
// Old and New carry rendered values (the same rendering conditions use
// for literals), not raw scalars: the stream is a record, not a state
// transport. Snapshot carries exact state.
type Event struct {
	Kind EventKind `json:"kind"`
	Seq  int64     `json:"seq"`
	Turn int       `json:"turn"`

	World     string `json:"world,omitempty"`
	Entity    string `json:"entity,omitempty"`
	Property  string `json:"property,omitempty"`
	Old       string `json:"old,omitempty"`
	New       string `json:"new,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Location  string `json:"location,omitempty"`
	Section   string `json:"section,omitempty"`
	Choice    string `json:"choice,omitempty"`
	Rule      string `json:"rule,omitempty"`
	Candidate string `json:"candidate,omitempty"`
	Sequence  string `json:"sequence,omitempty"`
	Phase     string `json:"phase,omitempty"`

	// Hint is optional presentation text a host may ignore without
	// breaking correctness (prompts, responses, exit descriptions).
	Hint string `json:"hint,omitempty"`
}

// EventBatch is the slice of events produced by one successful facade
// call, in emission order.
type EventBatch []Event

// emit stamps and records an event, then notifies subscribers
// synchronously, in subscription order.
func (e *Engine) emit(ev Event) {
	ev.Seq = e.clock.Next()
	ev.Turn = e.turn
	e.events = append(e.events, ev)
	for _, fn := range e.subs {
		fn(ev)
	}
}

// batch returns the events emitted since the current turn began.
func (e *Engine) batch() EventBatch {
	out := make(EventBatch, len(e.events)-e.batchStart)
	copy(out, e.events[e.batchStart:])
	return out
}
