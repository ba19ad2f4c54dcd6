package table

import (
	"fmt"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
)

const (
	// InitialStake is each seat's starting score.
	InitialStake = 25000
	// ReachCost is the escrow paid into the pot on a reach declaration.
	ReachCost = 1000
	// ExtensionBonus is the flat payment added per dealer extension.
	ExtensionBonus = 300

	dealerMultiplier    = 6
	nonDealerMultiplier = 4
)

// winds in seat order; seat 0 opens as East.
var winds = [MaxSeats]string{"East", "South", "West", "North"}

// Round is the scoring state of a started table.
//
// Seat order is frozen at start so dealer rotation and wind display stay
// stable even if membership changes through disconnects. The conservation
// invariant holds across every operation: the scores plus the pot always sum
// to MaxSeats × InitialStake.
type Round struct {
	Index     uint
	Extension uint
	Pot       int
	Seats     [MaxSeats]string
	Scores    map[string]int
	Reached   map[string]bool
}

func newRound(seats []string) *Round {
	round := &Round{
		Scores:  make(map[string]int, MaxSeats),
		Reached: make(map[string]bool, MaxSeats),
	}
	copy(round.Seats[:], seats)
	for _, seat := range round.Seats {
		round.Scores[seat] = InitialStake
	}
	return round
}

// seatIndex returns seat's frozen position in the round, or -1.
func (r *Round) seatIndex(seat string) int {
	for i, s := range r.Seats {
		if s == seat {
			return i
		}
	}
	return -1
}

// DeclareReach toggles seat's reach state. Declaring moves ReachCost from the
// seat into the pot and requires at least that balance; withdrawing reverses
// the transfer exactly.
func (r *Round) DeclareReach(seat string) error {
	if r.seatIndex(seat) < 0 {
		return apperrors.New(apperrors.CodeNotFound, "seat "+seat+" is not at this table")
	}
	if r.Reached[seat] {
		r.Scores[seat] += ReachCost
		r.Pot -= ReachCost
		delete(r.Reached, seat)
		return nil
	}
	if r.Scores[seat] < ReachCost {
		return apperrors.New(apperrors.CodeInsufficientPoints, "seat "+seat+" needs at least 1000 points to declare reach")
	}
	r.Scores[seat] -= ReachCost
	r.Pot += ReachCost
	r.Reached[seat] = true
	return nil
}

// SettleRon transfers the ron payment from loser to winner and updates the
// dealer extension counter.
func (r *Round) SettleRon(winner, loser string, han, fu int) error {
	if winner == loser {
		return apperrors.New(apperrors.CodeInvalidTarget, "winner and loser must differ")
	}
	if r.seatIndex(winner) < 0 {
		return apperrors.New(apperrors.CodeInvalidTarget, "winner "+winner+" is not at this table")
	}
	if r.seatIndex(loser) < 0 {
		return apperrors.New(apperrors.CodeInvalidTarget, "loser "+loser+" is not at this table")
	}

	isDealer := r.seatIndex(winner) == int(r.Index%MaxSeats)
	multiplier := nonDealerMultiplier
	if isDealer {
		multiplier = dealerMultiplier
	}
	payment := BaseScore(han, fu)*multiplier + int(r.Extension)*ExtensionBonus

	r.Scores[loser] -= payment
	r.Scores[winner] += payment
	if isDealer {
		r.Extension++
	} else {
		r.Extension = 0
	}
	return nil
}

// Advance moves to the next round. The pot, scores, and reach states carry
// forward; only the dealer rotation and wind display change.
func (r *Round) Advance() {
	r.Index++
}

// BaseScore reproduces the legacy base score table, limit hands first.
func BaseScore(han, fu int) int {
	switch {
	case han >= 13:
		return 8000
	case han >= 11:
		return 6000
	case han >= 8:
		return 4000
	case han >= 6:
		return 3000
	case han == 5, han == 4 && fu >= 40, han == 3 && fu >= 70:
		return 2000
	default:
		return (1 << (han + 2)) * fu
	}
}

// RoundLabel renders the display name of a round, e.g. "East 1".
func RoundLabel(index uint) string {
	return fmt.Sprintf("%s %d", winds[index/MaxSeats%MaxSeats], index%MaxSeats+1)
}

// SeatWind returns the wind a seat shows for the given round.
func SeatWind(seatIndex int, index uint) string {
	return winds[(uint(seatIndex)+MaxSeats-index%MaxSeats)%MaxSeats]
}

// RoundView is a caller-owned snapshot of a round.
type RoundView struct {
	Index     uint
	Label     string
	Extension uint
	Pot       int
	Seats     [MaxSeats]string
	Winds     [MaxSeats]string
	Scores    map[string]int
	Reached   []string
}

// View copies the round state, resolving the per-seat winds and the round
// label for display.
func (r *Round) View() RoundView {
	view := RoundView{
		Index:     r.Index,
		Label:     RoundLabel(r.Index),
		Extension: r.Extension,
		Pot:       r.Pot,
		Seats:     r.Seats,
		Scores:    make(map[string]int, len(r.Scores)),
	}
	for seat, score := range r.Scores {
		view.Scores[seat] = score
	}
	for i := range r.Seats {
		view.Winds[i] = SeatWind(i, r.Index)
	}
	for _, seat := range r.Seats {
		if r.Reached[seat] {
			view.Reached = append(view.Reached, seat)
		}
	}
	return view
}
