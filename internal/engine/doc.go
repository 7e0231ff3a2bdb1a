// Package engine implements the Urd world-execution runtime.
//
// The engine loads a compiled, immutable world definition and executes
// discrete player/agent actions against it, producing state mutations,
// a typed event stream, and structured failure results. It has no
// concept of text rendering, input parsing, or presentation: hosts call
// the action API and consume the event stream.
//
// ARCHITECTURE:
//
// Synchronous Turn Pipeline:
// One facade call (Perform, ChooseDialogue, MoveTo) executes a full
// turn to completion before returning. There is no background tick, no
// timer-driven evaluation, and no suspension mid-turn. A turn flows in
// a fixed order:
//
//  1. Request validation and condition checks (failure returns here,
//     with no state mutated)
//  2. Effects applied through the state store
//  3. Triggered rules swept, property-change sweeps cascading in-turn
//  4. Always-rules swept, once, last
//  5. Dialogue and sequence engines react to the resulting state
//  6. Event batch returned
//
// Single-Writer Discipline:
// The engine is not internally re-entrant. Callers must not issue a
// second call while one is in flight; a multi-threaded host must
// serialise all calls into one engine instance (a mutex or single-actor
// mailbox). Multiple independent sessions are constructed side by side,
// each owning its state exclusively - there are no process-wide
// singletons.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every event is stamped with a monotonic seq counter from Clock.Next().
// Never wall-clock timestamps - determinism forbids them.
//
// Deterministic Scheduling:
// Rules are evaluated in declaration order, candidates in declared list
// order, dialogue sections in the order a location lists them. The only
// pseudo-randomness is seeded tie-breaking in rule selection, derived
// from the world seed by stable hashing: same seed, same world, same
// call sequence - byte-identical run, on every host.
//
// Failures Are Values:
// A failed call returns a *Failure and mutates nothing. Request
// failures mark host bugs (unknown action, malformed parameters); world
// failures are ordinary gameplay feedback naming the first failing
// condition. Neither enters the event stream.
package engine
