// Package app serves the table API over HTTP and keeps WebSocket subscribers
// fed with fresh table views.
package app

import (
	"log"
	"net/http"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
	"github.com/hanulsoft/jantable/internal/services/auth/token"
	"github.com/hanulsoft/jantable/internal/services/parlor/domain/table"
	"github.com/hanulsoft/jantable/internal/services/shared/httpapi"
)

// Verifier authenticates the bearer credential presented by either channel.
type Verifier interface {
	Verify(credential string) (token.Verified, error)
}

// Server coordinates both ingress channels over one table registry. Every
// mutation, whichever channel it arrives on, is followed by a fan-out of the
// committed view to the table's subscribers.
type Server struct {
	registry *table.Registry
	hub      *hub
	verifier Verifier
}

// NewServer creates a server with an empty registry.
func NewServer(verifier Verifier) *Server {
	return &Server{
		registry: table.NewRegistry(),
		hub:      newHub(),
		verifier: verifier,
	}
}

type tablePayload struct {
	ID      string        `json:"id"`
	Host    string        `json:"host"`
	Seats   []string      `json:"seats"`
	Started bool          `json:"started"`
	Round   *roundPayload `json:"round,omitempty"`
}

type roundPayload struct {
	Index     uint           `json:"index"`
	Label     string         `json:"label"`
	Extension uint           `json:"extension"`
	Pot       int            `json:"pot"`
	Seats     []string       `json:"seats"`
	Winds     []string       `json:"winds"`
	Scores    map[string]int `json:"scores"`
	Reached   []string       `json:"reached"`
}

type tableSummary struct {
	ID      string   `json:"id"`
	Seats   []string `json:"seats"`
	Started bool     `json:"started"`
}

type tableEnvelope struct {
	Table tablePayload `json:"table"`
}

func toTablePayload(view table.View) tablePayload {
	payload := tablePayload{
		ID:      view.ID,
		Host:    view.Host,
		Seats:   view.Seats,
		Started: view.Started,
	}
	if view.Round != nil {
		payload.Round = &roundPayload{
			Index:     view.Round.Index,
			Label:     view.Round.Label,
			Extension: view.Round.Extension,
			Pot:       view.Round.Pot,
			Seats:     view.Round.Seats[:],
			Winds:     view.Round.Winds[:],
			Scores:    view.Round.Scores,
			Reached:   view.Round.Reached,
		}
	}
	return payload
}

type tableRequest struct {
	TableID string `json:"table_id"`
}

type assignSeatRequest struct {
	TableID string `json:"table_id"`
	Subject string `json:"subject"`
	Seat    int    `json:"seat"`
}

type reachRequest struct {
	TableID string `json:"table_id"`
	Seat    string `json:"seat"`
}

type ronRequest struct {
	TableID string `json:"table_id"`
	Winner  string `json:"winner"`
	Loser   string `json:"loser"`
	Han     int    `json:"han"`
	Fu      int    `json:"fu"`
}

// Handler builds the HTTP routes, the WebSocket endpoint included.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/createRoom", s.handleCreate)
	mux.HandleFunc("GET /api/rooms", s.handleList)
	mux.HandleFunc("GET /api/room/{id}", s.handleView)
	mux.HandleFunc("POST /api/joinRoom", s.handleJoin)
	mux.HandleFunc("POST /api/leaveRoom", s.handleLeave)
	mux.HandleFunc("POST /api/assignSeat", s.handleAssignSeat)
	mux.HandleFunc("POST /api/startGame", s.handleStart)
	mux.HandleFunc("POST /api/advanceRound", s.handleAdvance)
	mux.HandleFunc("POST /api/declareReach", s.handleReach)
	mux.HandleFunc("POST /api/ron", s.handleRon)
	mux.HandleFunc("GET /ws", s.handleWS)

	return mux
}

// subject authenticates the request and returns its verified identity.
func (s *Server) subject(r *http.Request) (string, error) {
	verified, err := s.verifier.Verify(httpapi.BearerToken(r))
	if err != nil {
		return "", err
	}
	return verified.Subject, nil
}

// announce pushes the committed view to the table's subscribers. Broadcasts
// happen after the registry releases the table lock, never under it.
func (s *Server) announce(view table.View) {
	s.hub.broadcast(view.ID, wsFrame{
		Type:    "table.update",
		Payload: mustJSON(tableEnvelope{Table: toTablePayload(view)}),
	})
}

// announceReady fires the ready signal when a join fills the last seat.
func (s *Server) announceReady(view table.View) {
	if len(view.Seats) != table.MaxSeats || view.Started {
		return
	}
	s.hub.broadcast(view.ID, wsFrame{
		Type:    "table.ready",
		Payload: mustJSON(tableRequest{TableID: view.ID}),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	subject, err := s.subject(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	var payload tableRequest
	if err := httpapi.DecodeBody(r, &payload); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	view, err := s.registry.Create(payload.TableID, subject)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	log.Printf("parlor: table created id=%s host=%s", view.ID, subject)
	httpapi.WriteJSON(w, http.StatusCreated, toTablePayload(view))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if _, err := s.subject(r); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	views := s.registry.List()
	summaries := make([]tableSummary, 0, len(views))
	for _, view := range views {
		summaries = append(summaries, tableSummary{
			ID:      view.ID,
			Seats:   view.Seats,
			Started: view.Started,
		})
	}
	httpapi.WriteJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if _, err := s.subject(r); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	view, err := s.registry.View(r.PathValue("id"))
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toTablePayload(view))
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	subject, err := s.subject(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	var payload tableRequest
	if err := httpapi.DecodeBody(r, &payload); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	view, err := s.registry.Mutate(payload.TableID, func(sess *table.Session) error {
		return sess.Join(subject)
	})
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	s.announce(view)
	s.announceReady(view)
	httpapi.WriteJSON(w, http.StatusOK, toTablePayload(view))
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	subject, err := s.subject(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	var payload tableRequest
	if err := httpapi.DecodeBody(r, &payload); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	view, err := s.registry.Mutate(payload.TableID, func(sess *table.Session) error {
		return sess.Leave(subject)
	})
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	s.announce(view)
	httpapi.WriteJSON(w, http.StatusOK, toTablePayload(view))
}

func (s *Server) handleAssignSeat(w http.ResponseWriter, r *http.Request) {
	subject, err := s.subject(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	var payload assignSeatRequest
	if err := httpapi.DecodeBody(r, &payload); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	view, err := s.registry.Mutate(payload.TableID, func(sess *table.Session) error {
		return sess.AssignSeat(subject, payload.Subject, payload.Seat)
	})
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	s.announce(view)
	httpapi.WriteJSON(w, http.StatusOK, toTablePayload(view))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	subject, err := s.subject(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	var payload tableRequest
	if err := httpapi.DecodeBody(r, &payload); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	view, err := s.registry.Mutate(payload.TableID, func(sess *table.Session) error {
		return sess.Start(subject)
	})
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	log.Printf("parlor: game started id=%s host=%s", view.ID, subject)
	s.announce(view)
	httpapi.WriteJSON(w, http.StatusOK, toTablePayload(view))
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	subject, err := s.subject(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	var payload tableRequest
	if err := httpapi.DecodeBody(r, &payload); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	view, err := s.registry.Mutate(payload.TableID, func(sess *table.Session) error {
		if sess.Host != subject {
			return apperrors.New(apperrors.CodeForbidden, "only the host can advance the round")
		}
		round, err := currentRound(sess)
		if err != nil {
			return err
		}
		round.Advance()
		return nil
	})
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	s.announce(view)
	httpapi.WriteJSON(w, http.StatusOK, toTablePayload(view))
}

func (s *Server) handleReach(w http.ResponseWriter, r *http.Request) {
	subject, err := s.subject(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	var payload reachRequest
	if err := httpapi.DecodeBody(r, &payload); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	view, err := s.registry.Mutate(payload.TableID, func(sess *table.Session) error {
		round, err := memberRound(sess, subject)
		if err != nil {
			return err
		}
		return round.DeclareReach(payload.Seat)
	})
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	s.announce(view)
	httpapi.WriteJSON(w, http.StatusOK, toTablePayload(view))
}

func (s *Server) handleRon(w http.ResponseWriter, r *http.Request) {
	subject, err := s.subject(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	var payload ronRequest
	if err := httpapi.DecodeBody(r, &payload); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	if payload.Han < 1 || payload.Fu < 1 {
		httpapi.WriteError(w, apperrors.New(apperrors.CodeMissingField, "han and fu are required"))
		return
	}

	view, err := s.registry.Mutate(payload.TableID, func(sess *table.Session) error {
		round, err := memberRound(sess, subject)
		if err != nil {
			return err
		}
		return round.SettleRon(payload.Winner, payload.Loser, payload.Han, payload.Fu)
	})
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	s.announce(view)
	httpapi.WriteJSON(w, http.StatusOK, toTablePayload(view))
}

// currentRound guards the round-phase operations.
func currentRound(sess *table.Session) (*table.Round, error) {
	if !sess.Started || sess.Round == nil {
		return nil, apperrors.New(apperrors.CodeInvalidState, "table "+sess.ID+" has no round in progress")
	}
	return sess.Round, nil
}

// memberRound additionally requires the caller to hold a seat.
func memberRound(sess *table.Session, subject string) (*table.Round, error) {
	if sess.SeatIndex(subject) < 0 {
		return nil, apperrors.New(apperrors.CodeForbidden, "subject holds no seat at table "+sess.ID)
	}
	return currentRound(sess)
}
