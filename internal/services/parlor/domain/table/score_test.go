package table

import (
	"testing"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
)

func startedRound(t *testing.T) *Round {
	t.Helper()
	return newRound([]string{"alice", "bob", "carol", "dave"})
}

func checkConservation(t *testing.T, r *Round) {
	t.Helper()
	total := r.Pot
	for _, score := range r.Scores {
		total += score
	}
	if total != MaxSeats*InitialStake {
		t.Fatalf("conservation violated: scores+pot = %d, want %d", total, MaxSeats*InitialStake)
	}
}

func TestDeclareReachMovesEscrowToPot(t *testing.T) {
	r := startedRound(t)

	if err := r.DeclareReach("alice"); err != nil {
		t.Fatalf("declare reach: %v", err)
	}
	if r.Scores["alice"] != InitialStake-ReachCost {
		t.Fatalf("expected 24000 for alice, got %d", r.Scores["alice"])
	}
	if r.Pot != ReachCost {
		t.Fatalf("expected pot 1000, got %d", r.Pot)
	}
	if !r.Reached["alice"] {
		t.Fatal("expected alice marked reached")
	}
	checkConservation(t, r)
}

func TestDeclareReachToggleRestoresExactly(t *testing.T) {
	r := startedRound(t)

	if err := r.DeclareReach("bob"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := r.DeclareReach("bob"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if r.Scores["bob"] != InitialStake || r.Pot != 0 {
		t.Fatalf("expected pre-declare state restored, got score=%d pot=%d", r.Scores["bob"], r.Pot)
	}
	if r.Reached["bob"] {
		t.Fatal("expected reach state cleared")
	}
	checkConservation(t, r)
}

func TestDeclareReachRequiresBalance(t *testing.T) {
	r := startedRound(t)
	r.Scores["carol"] = ReachCost - 1
	r.Scores["alice"] += 1 // keep the fixture conserving

	err := r.DeclareReach("carol")
	if apperrors.CodeOf(err) != apperrors.CodeInsufficientPoints {
		t.Fatalf("expected insufficient points, got %v", err)
	}
	if r.Pot != 0 || r.Reached["carol"] {
		t.Fatal("expected failed declaration to leave round untouched")
	}
	checkConservation(t, r)
}

func TestDeclareReachUnknownSeat(t *testing.T) {
	r := startedRound(t)
	if got := apperrors.CodeOf(r.DeclareReach("ghost")); got != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %q", got)
	}
}

func TestBaseScoreTable(t *testing.T) {
	cases := []struct {
		han, fu int
		want    int
	}{
		{13, 30, 8000},
		{14, 20, 8000},
		{11, 30, 6000},
		{12, 110, 6000},
		{8, 30, 4000},
		{10, 20, 4000},
		{6, 30, 3000},
		{7, 110, 3000},
		{5, 20, 2000},
		{4, 40, 2000},
		{3, 70, 2000},
		{4, 30, 1920},  // 2^6 × 30
		{3, 30, 960},   // 2^5 × 30
		{2, 25, 400},   // 2^4 × 25
		{1, 30, 240},   // 2^3 × 30
		{1, 110, 880},  // 2^3 × 110
		{2, 110, 1760}, // under the 2000 cutoffs by design of the source table
	}
	for _, tc := range cases {
		if got := BaseScore(tc.han, tc.fu); got != tc.want {
			t.Fatalf("BaseScore(%d, %d) = %d, want %d", tc.han, tc.fu, got, tc.want)
		}
	}
}

func TestSettleRonNonDealer(t *testing.T) {
	r := startedRound(t)

	// Round 0: dealer is seat 0 (alice). Winner bob is not the dealer.
	if err := r.SettleRon("bob", "alice", 3, 30); err != nil {
		t.Fatalf("settle ron: %v", err)
	}
	payment := 960 * nonDealerMultiplier
	if r.Scores["bob"] != InitialStake+payment {
		t.Fatalf("expected winner at %d, got %d", InitialStake+payment, r.Scores["bob"])
	}
	if r.Scores["alice"] != InitialStake-payment {
		t.Fatalf("expected loser at %d, got %d", InitialStake-payment, r.Scores["alice"])
	}
	if r.Extension != 0 {
		t.Fatalf("expected extension reset, got %d", r.Extension)
	}
	checkConservation(t, r)
}

func TestSettleRonDealerExtendsAndAddsBonus(t *testing.T) {
	r := startedRound(t)
	r.Extension = 2

	// Round 0: alice is the dealer seat.
	if err := r.SettleRon("alice", "dave", 1, 30); err != nil {
		t.Fatalf("settle ron: %v", err)
	}
	payment := 240*dealerMultiplier + 2*ExtensionBonus
	if r.Scores["alice"] != InitialStake+payment {
		t.Fatalf("expected dealer winner at %d, got %d", InitialStake+payment, r.Scores["alice"])
	}
	if r.Extension != 3 {
		t.Fatalf("expected extension incremented to 3, got %d", r.Extension)
	}
	checkConservation(t, r)
}

func TestSettleRonDealerRotatesWithRound(t *testing.T) {
	r := startedRound(t)
	r.Advance() // round 1: dealer is seat 1 (bob)

	if err := r.SettleRon("bob", "carol", 1, 30); err != nil {
		t.Fatalf("settle ron: %v", err)
	}
	if r.Extension != 1 {
		t.Fatalf("expected dealer win to extend, got %d", r.Extension)
	}
	checkConservation(t, r)
}

func TestSettleRonRejectsBadTargets(t *testing.T) {
	r := startedRound(t)

	for _, tc := range []struct{ winner, loser string }{
		{"alice", "alice"},
		{"ghost", "alice"},
		{"alice", "ghost"},
	} {
		err := r.SettleRon(tc.winner, tc.loser, 3, 30)
		if apperrors.CodeOf(err) != apperrors.CodeInvalidTarget {
			t.Fatalf("settle ron %q→%q: expected invalid target, got %v", tc.loser, tc.winner, err)
		}
	}
	checkConservation(t, r)
}

func TestConservationAcrossMixedOperations(t *testing.T) {
	r := startedRound(t)

	ops := []func() error{
		func() error { return r.DeclareReach("alice") },
		func() error { return r.SettleRon("bob", "carol", 4, 30) },
		func() error { return r.DeclareReach("dave") },
		func() error { return r.SettleRon("alice", "dave", 2, 25) },
		func() error { r.Advance(); return nil },
		func() error { return r.SettleRon("bob", "alice", 13, 30) },
		func() error { return r.DeclareReach("alice") },
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		checkConservation(t, r)
	}
}

func TestAdvanceCarriesState(t *testing.T) {
	r := startedRound(t)
	if err := r.DeclareReach("alice"); err != nil {
		t.Fatalf("declare: %v", err)
	}

	r.Advance()
	if r.Index != 1 {
		t.Fatalf("expected round index 1, got %d", r.Index)
	}
	if r.Pot != ReachCost || !r.Reached["alice"] {
		t.Fatal("expected pot and reach state to carry into the next round")
	}
}

func TestRoundLabel(t *testing.T) {
	cases := []struct {
		index uint
		want  string
	}{
		{0, "East 1"},
		{3, "East 4"},
		{4, "South 1"},
		{7, "South 4"},
		{12, "North 1"},
		{15, "North 4"},
		{16, "East 1"}, // display wraps
	}
	for _, tc := range cases {
		if got := RoundLabel(tc.index); got != tc.want {
			t.Fatalf("RoundLabel(%d) = %q, want %q", tc.index, got, tc.want)
		}
	}
}

func TestSeatWindRotation(t *testing.T) {
	// Round 0: seat order is the wind order.
	for i, want := range []string{"East", "South", "West", "North"} {
		if got := SeatWind(i, 0); got != want {
			t.Fatalf("SeatWind(%d, 0) = %q, want %q", i, got, want)
		}
	}
	// Round 1: winds rotate so seat 1 becomes East.
	if got := SeatWind(1, 1); got != "East" {
		t.Fatalf("SeatWind(1, 1) = %q, want East", got)
	}
	if got := SeatWind(0, 1); got != "North" {
		t.Fatalf("SeatWind(0, 1) = %q, want North", got)
	}
}

func TestRoundViewResolvesWindsAndReachOrder(t *testing.T) {
	r := startedRound(t)
	if err := r.DeclareReach("carol"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := r.DeclareReach("alice"); err != nil {
		t.Fatalf("declare: %v", err)
	}

	view := r.View()
	if view.Label != "East 1" {
		t.Fatalf("expected East 1, got %q", view.Label)
	}
	if view.Winds[0] != "East" || view.Winds[3] != "North" {
		t.Fatalf("unexpected winds %v", view.Winds)
	}
	// Reached seats listed in seat order, not declaration order.
	if len(view.Reached) != 2 || view.Reached[0] != "alice" || view.Reached[1] != "carol" {
		t.Fatalf("expected seat-ordered reach list, got %v", view.Reached)
	}
}
