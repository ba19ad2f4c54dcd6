package table

import (
	"strings"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
)

// MaxSeats is the fixed table capacity.
const MaxSeats = 4

// Session is one table's membership and round state.
//
// All methods assume the caller holds the registry's per-table lock; they
// validate before mutating so a failed call leaves the session untouched.
type Session struct {
	ID      string
	Host    string
	Seats   []string
	Started bool
	Round   *Round
}

// NewSession creates a lobby-phase session hosted by its first member.
func NewSession(id, host string) *Session {
	return &Session{
		ID:    id,
		Host:  host,
		Seats: []string{host},
	}
}

// SeatIndex returns subject's seat position, or -1 when subject holds no seat.
func (s *Session) SeatIndex(subject string) int {
	for i, seat := range s.Seats {
		if seat == subject {
			return i
		}
	}
	return -1
}

// Join appends subject to the seat order. Re-joining an existing member is a
// no-op; joining a started or full table fails.
func (s *Session) Join(subject string) error {
	if s.SeatIndex(subject) >= 0 {
		return nil
	}
	if s.Started {
		return apperrors.New(apperrors.CodeInvalidState, "table "+s.ID+" has already started")
	}
	if len(s.Seats) >= MaxSeats {
		return apperrors.New(apperrors.CodeTableFull, "table "+s.ID+" is full")
	}
	s.Seats = append(s.Seats, subject)
	return nil
}

// Leave removes subject's seat before the game starts. Removing the host
// hands the table to the oldest remaining member. Leaving a table the
// subject never joined is a no-op.
func (s *Session) Leave(subject string) error {
	if s.Started {
		return apperrors.New(apperrors.CodeInvalidState, "table "+s.ID+" has already started")
	}
	s.remove(subject)
	return nil
}

// Evict removes subject unconditionally, including mid-round. It backs the
// disconnect path: a dropped connection cannot be refused, so the seat is
// released even when membership is otherwise frozen. The round keeps its
// frozen seat order so dealer and wind math stay stable.
func (s *Session) Evict(subject string) {
	s.remove(subject)
}

func (s *Session) remove(subject string) {
	idx := s.SeatIndex(subject)
	if idx < 0 {
		return
	}
	s.Seats = append(s.Seats[:idx], s.Seats[idx+1:]...)
	if s.Host == subject && len(s.Seats) > 0 {
		s.Host = s.Seats[0]
	}
}

// AssignSeat swaps subject into the given seat position, displacing whoever
// holds it. Host-only, lobby phase only.
func (s *Session) AssignSeat(caller, subject string, seat int) error {
	if caller != s.Host {
		return apperrors.New(apperrors.CodeForbidden, "only the host can assign seats")
	}
	if s.Started {
		return apperrors.New(apperrors.CodeInvalidState, "seats are frozen once the table starts")
	}
	idx := s.SeatIndex(subject)
	if idx < 0 {
		return apperrors.New(apperrors.CodeNotFound, "subject "+subject+" holds no seat at table "+s.ID)
	}
	if seat < 0 || seat >= len(s.Seats) {
		return apperrors.New(apperrors.CodeNotFound, "no such seat at table "+s.ID)
	}
	s.Seats[idx], s.Seats[seat] = s.Seats[seat], s.Seats[idx]
	return nil
}

// Start freezes membership and opens the first round. Host-only; the table
// must be full.
func (s *Session) Start(caller string) error {
	if caller != s.Host {
		return apperrors.New(apperrors.CodeForbidden, "only the host can start the game")
	}
	if s.Started {
		return apperrors.New(apperrors.CodeInvalidState, "table "+s.ID+" has already started")
	}
	if len(s.Seats) != MaxSeats {
		return apperrors.New(apperrors.CodeNotReady, "table "+s.ID+" needs four seats to start")
	}
	s.Started = true
	s.Round = newRound(s.Seats)
	return nil
}

// Empty reports whether the last seat has been released.
func (s *Session) Empty() bool {
	return len(s.Seats) == 0
}

// ValidateID rejects ids the registry will not accept.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.New(apperrors.CodeTableIDInvalid, "table id is required")
	}
	return nil
}

// View is a consistent, caller-owned snapshot of a session.
type View struct {
	ID      string
	Host    string
	Seats   []string
	Started bool
	Round   *RoundView
}

// View copies the session state so readers never observe a half-applied
// mutation.
func (s *Session) View() View {
	view := View{
		ID:      s.ID,
		Host:    s.Host,
		Seats:   append([]string(nil), s.Seats...),
		Started: s.Started,
	}
	if s.Round != nil {
		round := s.Round.View()
		view.Round = &round
	}
	return view
}
