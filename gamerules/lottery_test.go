package gamerules

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTicketNumbers_DenseNumbering(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, NextTicketNumbers(0, 3))
	assert.Equal(t, []int{4, 5}, NextTicketNumbers(3, 2))
	assert.Empty(t, NextTicketNumbers(5, 0))
}

func TestDrawLotteryWinner_WinnerOwnsTicket(t *testing.T) {
	participants := []ParticipantTickets{
		{UserID: "alice", Tickets: []int{1, 2, 3}},
		{UserID: "bob", Tickets: []int{4}},
		{UserID: "carol", Tickets: []int{5, 6}},
	}

	owners := map[string][]int{}
	for _, p := range participants {
		owners[p.UserID] = p.Tickets
	}

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		winner, ticket, err := DrawLotteryWinner(participants, r)
		require.NoError(t, err)
		assert.Contains(t, owners[winner], ticket)
	}
}

func TestDrawLotteryWinner_SingleTicketAlwaysWins(t *testing.T) {
	participants := []ParticipantTickets{
		{UserID: "alice", Tickets: []int{1}},
	}

	r := rand.New(rand.NewSource(7))
	winner, ticket, err := DrawLotteryWinner(participants, r)
	require.NoError(t, err)
	assert.Equal(t, "alice", winner)
	assert.Equal(t, 1, ticket)
}

func TestDrawLotteryWinner_ChanceProportionalToTickets(t *testing.T) {
	participants := []ParticipantTickets{
		{UserID: "whale", Tickets: NextTicketNumbers(0, 90)},
		{UserID: "minnow", Tickets: NextTicketNumbers(90, 10)},
	}

	r := rand.New(rand.NewSource(99))
	whaleWins := 0
	const draws = 1000
	for i := 0; i < draws; i++ {
		winner, _, err := DrawLotteryWinner(participants, r)
		require.NoError(t, err)
		if winner == "whale" {
			whaleWins++
		}
	}

	// 90% expected; a generous band keeps the test deterministic enough.
	assert.Greater(t, whaleWins, 800)
	assert.Less(t, whaleWins, 980)
}

func TestDrawLotteryWinner_NoTickets(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	_, _, err := DrawLotteryWinner(nil, r)
	assert.ErrorIs(t, err, ErrNoTickets)

	_, _, err = DrawLotteryWinner([]ParticipantTickets{{UserID: "alice"}}, r)
	assert.ErrorIs(t, err, ErrNoTickets)
}

func TestLotteryPot_ExactPayout(t *testing.T) {
	assert.Equal(t, int64(500), LotteryPot(50, 10))
	assert.Equal(t, int64(0), LotteryPot(50, 0))
	assert.Equal(t, int64(7), LotteryPot(7, 1))
}
