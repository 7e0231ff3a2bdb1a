package journal

import (
	"fmt"

	"github.com/urdwyrd/urd/internal/engine"
	"github.com/urdwyrd/urd/internal/world"
)

// Result is the outcome of replaying one session.
type Result struct {
	Session   string
	Calls     int
	FinalHash string
}

// Replay re-executes a journaled session against a fresh engine on the
// given definition and verifies every per-call state hash. A mismatch
// means the definition changed since recording, or the engine's
// semantics did; either way the journal no longer describes this
// world.
func Replay(store *Store, def *world.Definition, session string) (*Result, error) {
	infos, err := store.ListSessions()
	if err != nil {
		return nil, err
	}
	var info *SessionInfo
	for i := range infos {
		if infos[i].Session == session {
			info = &infos[i]
			break
		}
	}
	if info == nil {
		return nil, fmt.Errorf("session %s not journaled", session)
	}

	eng, err := engine.New(def, engine.WithTokenGenerator(engine.NewFixedGenerator(session)))
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}
	if info.WorldHash != eng.WorldHash() {
		return nil, fmt.Errorf("replay %s: world hash mismatch: journaled %s, loaded %s",
			session, info.WorldHash, eng.WorldHash())
	}

	calls, err := store.ReadCalls(session)
	if err != nil {
		return nil, err
	}

	finalHash := ""
	for _, c := range calls {
		switch c.Kind {
		case CallPerform:
			_, err = eng.Perform(c.Action, c.Params)
		case CallMove:
			_, err = eng.MoveTo(c.Location)
		case CallChoose:
			_, err = eng.ChooseDialogue(c.Choice)
		case CallAdvance:
			_, err = eng.AdvanceSequence()
		default:
			return nil, fmt.Errorf("replay %s: unknown call kind %q at index %d", session, c.Kind, c.Index)
		}
		if err != nil {
			return nil, fmt.Errorf("replay %s: call %d failed: %w", session, c.Index, err)
		}

		hash, err := eng.Hash()
		if err != nil {
			return nil, fmt.Errorf("replay %s: hash after call %d: %w", session, c.Index, err)
		}
		if hash != c.StateHash {
			return nil, fmt.Errorf("replay %s: state hash mismatch after call %d: journaled %s, got %s",
				session, c.Index, c.StateHash, hash)
		}
		finalHash = hash
	}

	return &Result{Session: session, Calls: len(calls), FinalHash: finalHash}, nil
}
