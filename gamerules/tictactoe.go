// Package gamerules holds the pure rule evaluation for every game type:
// no database, no HTTP, deterministic given an injected rand source.
package gamerules

import "errors"

// Tic-Tac-Toe marks.
const (
	MarkX = "X"
	MarkO = "O"
)

// BoardSize is the number of cells on a Tic-Tac-Toe board.
const BoardSize = 9

// TicTacToeResult is the state of a board after evaluation.
type TicTacToeResult int

const (
	TicTacToeInProgress TicTacToeResult = iota
	TicTacToeWin
	TicTacToeDraw
)

var ErrInvalidBoard = errors.New("board must have exactly 9 cells")

// winPatterns are the 8 triples that decide a Tic-Tac-Toe game:
// three rows, three columns, two diagonals.
var winPatterns = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// EvaluateTicTacToe scans the fixed win patterns and returns the board state
// plus the winning mark when one exists. A full board with no matched triple
// is a draw; anything else is still in progress.
func EvaluateTicTacToe(board []string) (TicTacToeResult, string, error) {
	if len(board) != BoardSize {
		return TicTacToeInProgress, "", ErrInvalidBoard
	}

	for _, p := range winPatterns {
		a, b, c := board[p[0]], board[p[1]], board[p[2]]
		if a != "" && a == b && b == c {
			return TicTacToeWin, a, nil
		}
	}

	for _, cell := range board {
		if cell == "" {
			return TicTacToeInProgress, "", nil
		}
	}

	return TicTacToeDraw, "", nil
}

// NextMark returns the mark that moves after the given one.
func NextMark(mark string) string {
	if mark == MarkX {
		return MarkO
	}
	return MarkX
}
