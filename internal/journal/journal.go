// Package journal persists sessions to SQLite: every facade call with
// the state hash it produced, and every event the engine emitted.
//
// The journal exists for two things: browsing past sessions, and
// replay. Replay re-executes a session's calls against a fresh engine
// on the same world and verifies that every per-call state hash
// matches, which catches both definition drift and engine regressions.
package journal

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/urdwyrd/urd/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// CallKind names a journaled facade call.
type CallKind string

const (
	CallPerform CallKind = "perform"
	CallMove    CallKind = "move"
	CallChoose  CallKind = "choose"
	CallAdvance CallKind = "advance"
)

// Call is one journaled facade call with the state hash observed after
// it succeeded.
type Call struct {
	Index    int
	Kind     CallKind
	Action   string
	Location string
	Choice   int
	Params   map[string]string

	// StateHash is the engine's snapshot hash after the call.
	StateHash string
}

// SessionInfo describes one journaled session.
type SessionInfo struct {
	Session   string
	WorldName string
	WorldHash string
	Seed      int64
	CreatedAt string
}

// Store is a journal backed by one SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the journal database. WAL keeps writers from
// blocking readers during live recording.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginSession records a session's identity before its first call.
func (s *Store) BeginSession(session, worldName, worldHash string, seed int64) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (session, world_name, world_hash, seed) VALUES (?, ?, ?, ?)`,
		session, worldName, worldHash, seed,
	)
	if err != nil {
		return fmt.Errorf("begin session %s: %w", session, err)
	}
	return nil
}

// AppendCall journals one successful facade call.
func (s *Store) AppendCall(session string, c Call) error {
	params, err := json.Marshal(c.Params)
	if err != nil {
		return fmt.Errorf("encode call params: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO calls (session, idx, kind, action, location, choice, params, state_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session, c.Index, string(c.Kind), c.Action, c.Location, c.Choice, string(params), c.StateHash,
	)
	if err != nil {
		return fmt.Errorf("append call %d to %s: %w", c.Index, session, err)
	}
	return nil
}

// AppendEvent journals one emitted event.
func (s *Store) AppendEvent(session string, ev engine.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO events (session, seq, turn, kind, payload) VALUES (?, ?, ?, ?, ?)`,
		session, ev.Seq, ev.Turn, string(ev.Kind), string(payload),
	)
	if err != nil {
		return fmt.Errorf("append event %d to %s: %w", ev.Seq, session, err)
	}
	return nil
}

// ReadCalls returns a session's calls in index order.
func (s *Store) ReadCalls(session string) ([]Call, error) {
	rows, err := s.db.Query(
		`SELECT idx, kind, action, location, choice, params, state_hash
		 FROM calls WHERE session = ? ORDER BY idx`, session)
	if err != nil {
		return nil, fmt.Errorf("read calls of %s: %w", session, err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		var c Call
		var kind, params string
		if err := rows.Scan(&c.Index, &kind, &c.Action, &c.Location, &c.Choice, &params, &c.StateHash); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		c.Kind = CallKind(kind)
		if err := json.Unmarshal([]byte(params), &c.Params); err != nil {
			return nil, fmt.Errorf("decode call params: %w", err)
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// ReadEvents returns a session's events in sequence order.
func (s *Store) ReadEvents(session string) ([]engine.Event, error) {
	rows, err := s.db.Query(
		`SELECT payload FROM events WHERE session = ? ORDER BY seq`, session)
	if err != nil {
		return nil, fmt.Errorf("read events of %s: %w", session, err)
	}
	defer rows.Close()

	var events []engine.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var ev engine.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListSessions returns all journaled sessions, newest first.
func (s *Store) ListSessions() ([]SessionInfo, error) {
	rows, err := s.db.Query(
		`SELECT session, world_name, world_hash, seed, created_at
		 FROM sessions ORDER BY created_at DESC, session DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var infos []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.Session, &info.WorldName, &info.WorldHash, &info.Seed, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// LastSeq returns the highest journaled event sequence number of a
// session, zero when none exist.
func (s *Store) LastSeq(session string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRow(
		`SELECT MAX(seq) FROM events WHERE session = ?`, session).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq of %s: %w", session, err)
	}
	return seq.Int64, nil
}
