package gamerules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateTicTacToe_TopRowWin(t *testing.T) {
	board := []string{"X", "X", "X", "", "", "", "", "", ""}

	result, winner, err := EvaluateTicTacToe(board)
	require.NoError(t, err)
	assert.Equal(t, TicTacToeWin, result)
	assert.Equal(t, MarkX, winner)
}

func TestEvaluateTicTacToe_AllWinPatterns(t *testing.T) {
	patterns := [][3]int{
		{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
		{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
		{0, 4, 8}, {2, 4, 6},
	}

	for _, mark := range []string{MarkX, MarkO} {
		for _, p := range patterns {
			board := make([]string, BoardSize)
			for _, idx := range p {
				board[idx] = mark
			}

			result, winner, err := EvaluateTicTacToe(board)
			require.NoError(t, err)
			assert.Equal(t, TicTacToeWin, result, "pattern %v should win", p)
			assert.Equal(t, mark, winner)
		}
	}
}

func TestEvaluateTicTacToe_Draw(t *testing.T) {
	// Full board, no matched triple.
	board := []string{
		"X", "O", "X",
		"X", "O", "O",
		"O", "X", "X",
	}

	result, winner, err := EvaluateTicTacToe(board)
	require.NoError(t, err)
	assert.Equal(t, TicTacToeDraw, result)
	assert.Empty(t, winner)
}

func TestEvaluateTicTacToe_EmptyBoardInProgress(t *testing.T) {
	board := make([]string, BoardSize)

	result, winner, err := EvaluateTicTacToe(board)
	require.NoError(t, err)
	assert.Equal(t, TicTacToeInProgress, result)
	assert.Empty(t, winner)
}

func TestEvaluateTicTacToe_PartialBoardInProgress(t *testing.T) {
	board := []string{"X", "O", "", "", "X", "", "", "", ""}

	result, _, err := EvaluateTicTacToe(board)
	require.NoError(t, err)
	assert.Equal(t, TicTacToeInProgress, result)
}

func TestEvaluateTicTacToe_InvalidBoard(t *testing.T) {
	_, _, err := EvaluateTicTacToe([]string{"X", "O"})
	assert.ErrorIs(t, err, ErrInvalidBoard)
}

func TestNextMark(t *testing.T) {
	assert.Equal(t, MarkO, NextMark(MarkX))
	assert.Equal(t, MarkX, NextMark(MarkO))
}
