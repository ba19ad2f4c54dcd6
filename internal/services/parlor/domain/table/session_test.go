package table

import (
	"errors"
	"testing"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
)

func fullSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession("r1", "alice")
	for _, subject := range []string{"bob", "carol", "dave"} {
		if err := s.Join(subject); err != nil {
			t.Fatalf("join %s: %v", subject, err)
		}
	}
	return s
}

func expectCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %q, got nil", code)
	}
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("expected code %q, got %q (%v)", code, got, err)
	}
}

func TestNewSessionSeatsCreator(t *testing.T) {
	s := NewSession("r1", "alice")
	if s.Host != "alice" {
		t.Fatalf("expected creator as host, got %q", s.Host)
	}
	if len(s.Seats) != 1 || s.Seats[0] != "alice" {
		t.Fatalf("expected single seat for creator, got %v", s.Seats)
	}
	if s.Started {
		t.Fatal("expected lobby phase")
	}
}

func TestJoinPreservesOrderAndCapacity(t *testing.T) {
	s := fullSession(t)

	want := []string{"alice", "bob", "carol", "dave"}
	for i, subject := range want {
		if s.Seats[i] != subject {
			t.Fatalf("expected seat %d = %q, got %v", i, subject, s.Seats)
		}
	}

	expectCode(t, s.Join("eve"), apperrors.CodeTableFull)
	if len(s.Seats) != MaxSeats {
		t.Fatalf("expected %d seats after rejected join, got %d", MaxSeats, len(s.Seats))
	}
}

func TestJoinIsIdempotentForMembers(t *testing.T) {
	s := fullSession(t)

	if err := s.Join("carol"); err != nil {
		t.Fatalf("re-join: %v", err)
	}
	if len(s.Seats) != MaxSeats || s.Seats[2] != "carol" {
		t.Fatalf("expected unchanged seats, got %v", s.Seats)
	}
}

func TestJoinAfterStartFailsForNewSubjects(t *testing.T) {
	s := fullSession(t)
	if err := s.Start("alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	expectCode(t, s.Join("eve"), apperrors.CodeInvalidState)
	// Members still re-join as a no-op after start.
	if err := s.Join("bob"); err != nil {
		t.Fatalf("member re-join after start: %v", err)
	}
}

func TestLeaveHandsHostToOldestMember(t *testing.T) {
	s := fullSession(t)

	if err := s.Leave("alice"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.Host != "bob" {
		t.Fatalf("expected host hand-off to bob, got %q", s.Host)
	}
	if s.SeatIndex("alice") >= 0 {
		t.Fatal("expected alice's seat released")
	}
}

func TestLeaveUnknownSubjectIsNoop(t *testing.T) {
	s := NewSession("r1", "alice")
	if err := s.Leave("ghost"); err != nil {
		t.Fatalf("leave stranger: %v", err)
	}
	if len(s.Seats) != 1 {
		t.Fatalf("expected seats unchanged, got %v", s.Seats)
	}
}

func TestLeaveAfterStartIsRejected(t *testing.T) {
	s := fullSession(t)
	if err := s.Start("alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectCode(t, s.Leave("bob"), apperrors.CodeInvalidState)
	if len(s.Seats) != MaxSeats {
		t.Fatalf("expected membership frozen, got %v", s.Seats)
	}
}

func TestEvictReleasesSeatEvenMidRound(t *testing.T) {
	s := fullSession(t)
	if err := s.Start("alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.Evict("alice")
	if s.SeatIndex("alice") >= 0 {
		t.Fatal("expected alice evicted")
	}
	if s.Host != "bob" {
		t.Fatalf("expected host hand-off on eviction, got %q", s.Host)
	}
	// The round keeps its frozen seat order.
	if s.Round.Seats[0] != "alice" {
		t.Fatalf("expected round seat order frozen, got %v", s.Round.Seats)
	}
}

func TestAssignSeatSwapsPositions(t *testing.T) {
	s := fullSession(t)

	if err := s.AssignSeat("alice", "dave", 0); err != nil {
		t.Fatalf("assign seat: %v", err)
	}
	if s.Seats[0] != "dave" || s.Seats[3] != "alice" {
		t.Fatalf("expected swapped seats, got %v", s.Seats)
	}
}

func TestAssignSeatGuards(t *testing.T) {
	s := fullSession(t)

	expectCode(t, s.AssignSeat("bob", "dave", 0), apperrors.CodeForbidden)
	expectCode(t, s.AssignSeat("alice", "ghost", 0), apperrors.CodeNotFound)
	expectCode(t, s.AssignSeat("alice", "dave", 9), apperrors.CodeNotFound)

	if err := s.Start("alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectCode(t, s.AssignSeat("alice", "dave", 0), apperrors.CodeInvalidState)
}

func TestStartGuards(t *testing.T) {
	s := NewSession("r1", "alice")
	if err := s.Join("bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	expectCode(t, s.Start("bob"), apperrors.CodeForbidden)
	expectCode(t, s.Start("alice"), apperrors.CodeNotReady)

	s = fullSession(t)
	if err := s.Start("alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	expectCode(t, s.Start("alice"), apperrors.CodeInvalidState)
}

func TestStartInitializesRound(t *testing.T) {
	s := fullSession(t)
	if err := s.Start("alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	round := s.Round
	if round == nil {
		t.Fatal("expected round state after start")
	}
	if round.Index != 0 || round.Extension != 0 || round.Pot != 0 {
		t.Fatalf("expected zeroed round counters, got %+v", round)
	}
	for _, seat := range round.Seats {
		if round.Scores[seat] != InitialStake {
			t.Fatalf("expected %d points for %s, got %d", InitialStake, seat, round.Scores[seat])
		}
	}
	if len(round.Reached) != 0 {
		t.Fatalf("expected no reach declarations, got %v", round.Reached)
	}
}

func TestViewIsACopy(t *testing.T) {
	s := fullSession(t)
	if err := s.Start("alice"); err != nil {
		t.Fatalf("start: %v", err)
	}

	view := s.View()
	view.Seats[0] = "mallory"
	view.Round.Scores["alice"] = 0

	if s.Seats[0] != "alice" {
		t.Fatal("view seat mutation leaked into session")
	}
	if s.Round.Scores["alice"] != InitialStake {
		t.Fatal("view score mutation leaked into round")
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID("r1"); err != nil {
		t.Fatalf("valid id: %v", err)
	}
	err := ValidateID("   ")
	expectCode(t, err, apperrors.CodeTableIDInvalid)
	if !errors.Is(err, apperrors.New(apperrors.CodeTableIDInvalid, "")) {
		t.Fatal("expected code-based matching")
	}
}
