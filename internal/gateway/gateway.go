// Package gateway exposes the engine over WebSocket. Each connection
// opens its own session: one engine, one journal recorder, one reader
// goroutine. The reader goroutine is the only caller of the engine, so
// calls serialise per session without extra locking, and responses
// carry the event batch of the call that produced them.
package gateway

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/urdwyrd/urd/internal/engine"
	"github.com/urdwyrd/urd/internal/journal"
	"github.com/urdwyrd/urd/internal/world"
)

// Op names a gateway request operation.
type Op string

const (
	OpPerform Op = "perform"
	OpMove    Op = "move"
	OpChoose  Op = "choose"
	OpAdvance Op = "advance"
	OpView    Op = "view"
)

// Request is one client message.
type Request struct {
	ID     int               `json:"id"`
	Op     Op                `json:"op"`
	Action string            `json:"action,omitempty"`
	Params map[string]string `json:"params,omitempty"`
	To     string            `json:"to,omitempty"`
	Choice int               `json:"choice,omitempty"`
}

// Failure mirrors an engine failure on the wire.
type Failure struct {
	Kind         string `json:"kind"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	ConditionRef string `json:"condition_ref,omitempty"`
}

// Response is one server message, answering the request with the same
// ID. Hello is sent unsolicited as message zero when the session
// opens.
type Response struct {
	ID      int               `json:"id"`
	OK      bool              `json:"ok"`
	Events  []engine.Event    `json:"events,omitempty"`
	Failure *Failure          `json:"failure,omitempty"`
	View    *engine.View      `json:"view,omitempty"`
	Hello   *Hello            `json:"hello,omitempty"`
}

// Hello announces the session to a newly connected client.
type Hello struct {
	Session   string         `json:"session"`
	World     string         `json:"world"`
	WorldHash string         `json:"world_hash"`
	Events    []engine.Event `json:"events"`
}

// Server serves sessions on one world definition.
type Server struct {
	def      *world.Definition
	journal  *journal.Store
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a gateway on a validated definition. The journal
// store may be nil to disable recording.
func NewServer(def *world.Definition, store *journal.Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		def:     def,
		journal: store,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// ServeHTTP upgrades the connection and runs the session loop until
// the client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	eng, err := engine.New(s.def, engine.WithLogger(s.log))
	if err != nil {
		s.log.Error("session engine load failed", "error", err)
		return
	}
	log := s.log.With("session", eng.Session())

	var rec *journal.Recorder
	if s.journal != nil {
		rec, err = journal.NewRecorder(eng, s.journal, log)
		if err != nil {
			log.Error("journal attach failed", "error", err)
			return
		}
	}

	hello := Response{
		OK: true,
		Hello: &Hello{
			Session:   eng.Session(),
			World:     eng.WorldName(),
			WorldHash: eng.WorldHash(),
			Events:    eng.Events(),
		},
	}
	if err := conn.WriteJSON(hello); err != nil {
		log.Error("hello write failed", "error", err)
		return
	}
	log.Info("session opened")

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("session read failed", "error", err)
			} else {
				log.Info("session closed")
			}
			return
		}
		resp := s.dispatch(eng, rec, req)
		if err := conn.WriteJSON(resp); err != nil {
			log.Error("session write failed", "error", err)
			return
		}
	}
}

// dispatch executes one request. Unknown operations and engine
// failures come back as failure responses; the connection stays up.
func (s *Server) dispatch(eng *engine.Engine, rec *journal.Recorder, req Request) Response {
	var (
		batch engine.EventBatch
		err   error
	)
	switch req.Op {
	case OpPerform:
		if rec != nil {
			batch, err = rec.Perform(req.Action, req.Params)
		} else {
			batch, err = eng.Perform(req.Action, req.Params)
		}
	case OpMove:
		if rec != nil {
			batch, err = rec.MoveTo(req.To)
		} else {
			batch, err = eng.MoveTo(req.To)
		}
	case OpChoose:
		if rec != nil {
			batch, err = rec.ChooseDialogue(req.Choice)
		} else {
			batch, err = eng.ChooseDialogue(req.Choice)
		}
	case OpAdvance:
		if rec != nil {
			batch, err = rec.AdvanceSequence()
		} else {
			batch, err = eng.AdvanceSequence()
		}
	case OpView:
		view := eng.View()
		return Response{ID: req.ID, OK: true, View: &view}
	default:
		return Response{ID: req.ID, OK: false, Failure: &Failure{
			Kind:    string(engine.FailureRequest),
			Code:    "UNKNOWN_OP",
			Message: fmt.Sprintf("unknown operation %q", req.Op),
		}}
	}

	if err != nil {
		f, ok := engine.AsFailure(err)
		if !ok {
			return Response{ID: req.ID, OK: false, Failure: &Failure{
				Kind:    string(engine.FailureRequest),
				Code:    "INTERNAL",
				Message: err.Error(),
			}}
		}
		return Response{ID: req.ID, OK: false, Failure: &Failure{
			Kind:         string(f.Kind),
			Code:         string(f.Code),
			Message:      f.Message,
			ConditionRef: f.ConditionRef,
		}}
	}

	view := eng.View()
	return Response{ID: req.ID, OK: true, Events: batch, View: &view}
}
