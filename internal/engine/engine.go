package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/urdwyrd/urd/internal/state"
	"github.com/urdwyrd/urd/internal/world"
)

// Engine executes one loaded world instance. It is the only writer of
// its store; hosts call the exported facade methods and consume the
// returned event batches.
//
// Thread-safety: all exported methods serialise on an internal mutex.
// A single engine is one session; concurrent sessions are concurrent
// engines.
type Engine struct {
	mu sync.Mutex

	def   *world.Definition
	store *state.Store
	clock *Clock
	log   *slog.Logger

	seed      int64
	session   string
	worldHash string
	turn      int

	// fired is the per-turn rule fired-set, reset by beginTurn.
	fired map[string]bool

	// Dialogue state.
	dlgSection    string
	scopes        []scopeFrame
	consumed      map[string]bool
	exhaustedSeen map[string]bool
	gotoTargets   map[string]bool

	// Sequence state.
	seqID        string
	phaseIdx     int
	phaseEntered bool

	events     []Event
	subs       []func(Event)
	batchStart int
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithTokenGenerator sets the session token source. Defaults to
// UUIDv7Generator; tests pass a FixedGenerator.
func WithTokenGenerator(g SessionTokenGenerator) Option {
	return func(e *Engine) { e.session = g.Generate() }
}

// New validates a definition wholesale and opens a session on it. A
// definition that fails validation is rejected as a unit; the returned
// error is a world.ValidationErrors listing every problem found.
//
// Loading emits world_loaded, opens any qualifying dialogue at the
// start location, and activates the entry sequence. It is not a turn:
// the turn counter stays at zero and no rule sweeps run.
func New(def *world.Definition, opts ...Option) (*Engine, error) {
	if errs := world.Validate(def); len(errs) > 0 {
		return nil, errs
	}
	hash, err := def.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash world definition: %w", err)
	}

	e := &Engine{
		def:           def,
		store:         state.New(def),
		clock:         NewClock(),
		log:           slog.Default(),
		seed:          def.Meta.Seed,
		worldHash:     hash,
		fired:         make(map[string]bool),
		consumed:      make(map[string]bool),
		exhaustedSeen: make(map[string]bool),
		gotoTargets:   def.GotoTargets(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.session == "" {
		e.session = UUIDv7Generator{}.Generate()
	}

	e.log.Info("world loaded",
		"world", def.Meta.Name,
		"hash", hash,
		"session", e.session,
		"seed", e.seed,
	)
	e.emit(Event{
		Kind:     EventWorldLoaded,
		World:    def.Meta.Name,
		Location: def.Meta.Start,
	})
	e.autoOpen()
	if def.Meta.EntrySequence != "" {
		e.activateSequence(def.Meta.EntrySequence)
	}
	return e, nil
}

// Session returns the session token.
func (e *Engine) Session() string { return e.session }

// WorldHash returns the canonical content hash of the loaded
// definition.
func (e *Engine) WorldHash() string { return e.worldHash }

// WorldName returns the loaded definition's declared name.
func (e *Engine) WorldName() string { return e.def.Meta.Name }

// Seed returns the definition's tie-break seed.
func (e *Engine) Seed() int64 { return e.seed }

// Turn returns the number of completed turns.
func (e *Engine) Turn() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turn
}

// Subscribe registers a callback invoked synchronously for every event
// emitted after registration, in emission order.
func (e *Engine) Subscribe(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// Events returns a copy of the full event stream so far.
func (e *Engine) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Event, len(e.events))
	copy(out, e.events)
	return out
}

// Snapshot returns a deep copy of current mutable state.
func (e *Engine) Snapshot() state.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot()
}

// Hash returns the canonical hash of current mutable state. Two
// engines on the same world that processed the same call sequence hash
// identically, whatever host they run on.
func (e *Engine) Hash() (string, error) {
	snap := e.Snapshot()
	return world.HashCanonical(world.DomainSnapshot, snap.ToMap())
}

// Perform executes a declared action. For type-targeted actions the
// chosen entity arrives in params under the "target" key and binds to
// "$target" in the action's conditions and effects.
func (e *Engine) Perform(actionID string, params map[string]string) (EventBatch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	act, ok := e.def.Action(actionID)
	if !ok {
		return nil, requestFailure(CodeUnknownAction, "unknown action %q", actionID)
	}

	conds := []world.Condition(act.Conditions)
	effs := []world.Effect(act.Effects)
	var candidate string
	if act.Target != nil {
		if act.Target.Entity != "" {
			candidate = act.Target.Entity
		} else {
			candidate = params["target"]
			if candidate == "" {
				return nil, requestFailure(CodeBadTarget,
					"action %q requires a target parameter", actionID)
			}
			if !e.store.Exists(candidate) || !e.store.IsType(candidate, act.Target.Type) {
				return nil, requestFailure(CodeBadTarget,
					"target %q is not an existing %q entity", candidate, act.Target.Type)
			}
		}
		conds = world.BindConditions(conds, "target", candidate)
		effs = world.BindEffects(effs, "target", candidate)
	}

	if failing, failed := e.firstFailing(conds); failed {
		return nil, worldFailure(CodeConditionsUnmet, failing.Ref(),
			"conditions for action %q not met", actionID)
	}

	e.log.Debug("perform", "action", actionID, "target", candidate, "turn", e.turn+1)
	e.beginTurn()
	e.applyEffects(effs)
	e.sweep(world.TriggerAction, actionID)
	return e.finishTurn(), nil
}

// MoveTo moves the player through a declared exit of the current
// location.
func (e *Engine) MoveTo(dest string) (EventBatch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	loc, ok := e.def.Location(dest)
	if !ok {
		return nil, requestFailure(CodeUnknownLocation, "unknown location %q", dest)
	}
	cur, _ := e.def.Location(e.store.PlayerLocation())
	exit, ok := cur.ExitTo(dest)
	if !ok {
		return nil, worldFailure(CodeNoExit, "",
			"no exit from %q to %q", cur.ID, dest)
	}
	if exit.Condition != nil && !e.eval(exit.Condition) {
		return nil, worldFailure(CodeExitBlocked, exit.Condition.Ref(),
			"exit from %q to %q is blocked", cur.ID, dest)
	}

	e.log.Debug("move", "from", cur.ID, "to", dest, "turn", e.turn+1)
	e.beginTurn()
	e.applyEffects(exit.Effects)
	from := e.store.PlayerLocation()
	e.store.SetPlayerLocation(dest)
	e.emit(Event{
		Kind:   EventEntityMoved,
		Entity: world.TokenPlayer,
		From:   from,
		To:     dest,
		Hint:   loc.Hint,
	})
	e.sweep(world.TriggerLocationEntry, "")
	e.autoOpen()
	return e.finishTurn(), nil
}

// ChooseDialogue takes a dialogue choice by its index into the visible
// choice list of the innermost open scope.
func (e *Engine) ChooseDialogue(index int) (EventBatch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chooseDialogue(index)
}

// AdvanceSequence advances a manually-advanced phase of the active
// sequence.
func (e *Engine) AdvanceSequence() (EventBatch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.seqID == "" || !e.phaseEntered {
		return nil, requestFailure(CodeNoSequence, "no advanceable sequence phase")
	}
	seq, _ := e.def.Sequence(e.seqID)
	ph := &seq.Phases[e.phaseIdx]
	if ph.Advance.Kind != world.AdvanceManual {
		return nil, requestFailure(CodeNoSequence,
			"phase %q of sequence %q does not advance manually", ph.ID, e.seqID)
	}

	e.beginTurn()
	e.advancePhase()
	e.tryEnterPhase()
	return e.finishTurn(), nil
}

// beginTurn opens a new turn: the fired-set resets and the event batch
// window starts.
func (e *Engine) beginTurn() {
	e.turn++
	e.fired = make(map[string]bool)
	e.batchStart = len(e.events)
}

// finishTurn runs the end-of-turn passes in fixed order: always-rules,
// dialogue exhaustion re-check, sequence phase entry and advancement.
func (e *Engine) finishTurn() EventBatch {
	e.sweepAlways()
	e.dialogueEndOfTurn()
	e.sequenceEndOfTurn(e.fired)
	return e.batch()
}
