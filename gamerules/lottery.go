package gamerules

import (
	"errors"
	"math/rand"
)

var ErrNoTickets = errors.New("no tickets sold")

// ParticipantTickets pairs a participant with the ticket numbers they own.
type ParticipantTickets struct {
	UserID  string
	Tickets []int
}

// NextTicketNumbers returns the ticket numbers for a purchase of count
// tickets when sold tickets have already been issued. Numbering is dense and
// 1-based so the flattened set is exactly 1..totalSold.
func NextTicketNumbers(sold, count int) []int {
	numbers := make([]int, count)
	for i := 0; i < count; i++ {
		numbers[i] = sold + i + 1
	}
	return numbers
}

// DrawLotteryWinner flattens every sold ticket and picks one uniformly at
// random, so a participant's chance is proportional to the tickets they hold.
// Returns the owning participant and the winning ticket number.
func DrawLotteryWinner(participants []ParticipantTickets, r *rand.Rand) (winnerID string, winningTicket int, err error) {
	total := 0
	for _, p := range participants {
		total += len(p.Tickets)
	}
	if total == 0 {
		return "", 0, ErrNoTickets
	}

	pick := r.Intn(total)
	for _, p := range participants {
		if pick < len(p.Tickets) {
			return p.UserID, p.Tickets[pick], nil
		}
		pick -= len(p.Tickets)
	}
	// unreachable: pick < total by construction
	return "", 0, ErrNoTickets
}

// LotteryPot is the full amount paid to the winner: ticket price times every
// ticket sold, exactly.
func LotteryPot(ticketPrice int64, totalTickets int) int64 {
	return ticketPrice * int64(totalTickets)
}
