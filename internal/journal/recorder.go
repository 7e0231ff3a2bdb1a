package journal

import (
	"fmt"
	"log/slog"

	"github.com/urdwyrd/urd/internal/engine"
)

// Recorder wraps an engine and journals every successful call and
// event as they happen. Failed calls are not journaled: they mutate
// nothing and replay has nothing to re-execute.
type Recorder struct {
	eng   *engine.Engine
	store *Store
	log   *slog.Logger
	next  int
}

// NewRecorder attaches a journal to an engine. The engine's events
// emitted from this point on are persisted; callers should attach
// before the first call so the stream is complete from world_loaded.
func NewRecorder(eng *engine.Engine, store *Store, log *slog.Logger) (*Recorder, error) {
	r := &Recorder{eng: eng, store: store, log: log}
	if log == nil {
		r.log = slog.Default()
	}

	session := eng.Session()
	if err := store.BeginSession(session, eng.WorldName(), eng.WorldHash(), eng.Seed()); err != nil {
		return nil, err
	}
	for _, ev := range eng.Events() {
		if err := store.AppendEvent(session, ev); err != nil {
			return nil, fmt.Errorf("journal load events: %w", err)
		}
	}
	eng.Subscribe(func(ev engine.Event) {
		if err := store.AppendEvent(session, ev); err != nil {
			r.log.Error("journal event write failed", "seq", ev.Seq, "error", err)
		}
	})
	return r, nil
}

// Engine returns the wrapped engine for read-only access.
func (r *Recorder) Engine() *engine.Engine {
	return r.eng
}

// Perform journals a successful Perform call.
func (r *Recorder) Perform(action string, params map[string]string) (engine.EventBatch, error) {
	batch, err := r.eng.Perform(action, params)
	if err != nil {
		return nil, err
	}
	r.record(Call{Kind: CallPerform, Action: action, Params: params})
	return batch, nil
}

// MoveTo journals a successful MoveTo call.
func (r *Recorder) MoveTo(dest string) (engine.EventBatch, error) {
	batch, err := r.eng.MoveTo(dest)
	if err != nil {
		return nil, err
	}
	r.record(Call{Kind: CallMove, Location: dest})
	return batch, nil
}

// ChooseDialogue journals a successful ChooseDialogue call.
func (r *Recorder) ChooseDialogue(index int) (engine.EventBatch, error) {
	batch, err := r.eng.ChooseDialogue(index)
	if err != nil {
		return nil, err
	}
	r.record(Call{Kind: CallChoose, Choice: index})
	return batch, nil
}

// AdvanceSequence journals a successful AdvanceSequence call.
func (r *Recorder) AdvanceSequence() (engine.EventBatch, error) {
	batch, err := r.eng.AdvanceSequence()
	if err != nil {
		return nil, err
	}
	r.record(Call{Kind: CallAdvance})
	return batch, nil
}

func (r *Recorder) record(c Call) {
	hash, err := r.eng.Hash()
	if err != nil {
		r.log.Error("journal state hash failed", "error", err)
		return
	}
	c.Index = r.next
	c.StateHash = hash
	r.next++
	if err := r.store.AppendCall(r.eng.Session(), c); err != nil {
		r.log.Error("journal call write failed", "idx", c.Index, "error", err)
	}
}
