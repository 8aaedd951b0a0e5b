package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	GameTypeTicTacToe = "tictactoe"
	GameTypeLottery   = "lottery"
	GameTypePokie     = "pokie"
)

const (
	GameStatusWaiting   = "waiting"
	GameStatusActive    = "active"
	GameStatusCompleted = "completed"
	GameStatusCancelled = "cancelled"
)

// validStatusTransitions encodes the game lifecycle:
// waiting → active → {completed | cancelled}. Terminal states never regress.
var validStatusTransitions = map[string][]string{
	GameStatusWaiting: {GameStatusActive, GameStatusCompleted, GameStatusCancelled},
	GameStatusActive:  {GameStatusCompleted, GameStatusCancelled},
}

// ValidStatusTransition reports whether a game may move from one status to another.
func ValidStatusTransition(from, to string) bool {
	for _, next := range validStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether a status allows no further transitions.
func IsTerminalStatus(status string) bool {
	return status == GameStatusCompleted || status == GameStatusCancelled
}

// Game is a single lobby entry: one Tic-Tac-Toe match, one lottery pot or
// one pokie spin. GameData carries the type-specific payload (board, ticket
// config, reel grid) as a JSON column; clients always receive the full payload
// and apply it last-write-wins keyed on Version.
type Game struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	GameType string `gorm:"type:varchar(16);index;not null" json:"game_type"`
	Name     string `gorm:"not null" json:"name"`
	Slug     string `gorm:"index" json:"slug"`

	Status    string  `gorm:"type:varchar(16);index;not null;default:'waiting'" json:"status"`
	BetAmount int64   `gorm:"not null" json:"bet_amount"`
	CreatorID string  `gorm:"index;not null" json:"creator_id"`
	WinnerID  *string `gorm:"index" json:"winner_id,omitempty"`

	GameData datatypes.JSON `json:"game_data"`

	// Version increases on every GameData/status write. SSE streams and
	// polling clients use it as their cursor so duplicate or out-of-order
	// delivery collapses to the newest payload.
	Version int64 `gorm:"not null;default:0" json:"version"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Participants []GameParticipant `gorm:"foreignKey:GameID" json:"participants,omitempty"`
}

// GameParticipant is one seat in a game. Head-to-head games hold exactly two
// seats keyed by PlayerNumber; lottery games hold one seat per buyer with the
// owned ticket numbers.
type GameParticipant struct {
	ID           string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	GameID       string `gorm:"index:idx_game_user,unique;index:idx_game_seat,unique;not null" json:"game_id"`
	UserID       string `gorm:"index:idx_game_user,unique;index;not null" json:"user_id"`
	PlayerNumber int    `gorm:"index:idx_game_seat,unique;not null" json:"player_number"`

	TicketNumbers datatypes.JSONSlice[int] `json:"ticket_numbers,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TicTacToeData is the Game.GameData payload for tictactoe games.
// Cells hold "X", "O" or "". SymbolByUser maps each participant to their mark.
type TicTacToeData struct {
	Board        []string          `json:"board"`
	Turn         string            `json:"turn"`
	SymbolByUser map[string]string `json:"symbol_by_user"`
}

// LotteryData is the Game.GameData payload for lottery games.
type LotteryData struct {
	TicketPrice   int64      `json:"ticket_price"`
	MinPlayers    int        `json:"min_players"`
	MaxPlayers    int        `json:"max_players,omitempty"`
	Deadline      time.Time  `json:"deadline"`
	TicketsSold   int        `json:"tickets_sold"`
	WinningTicket *int       `json:"winning_ticket,omitempty"`
	DrawnAt       *time.Time `json:"drawn_at,omitempty"`
}

// PokieData is the Game.GameData payload for pokie spins.
type PokieData struct {
	Grid           []string `json:"grid"`
	MatchingLines  int      `json:"matching_lines"`
	DominantSymbol string   `json:"dominant_symbol,omitempty"`
	Payout         int64    `json:"payout"`
}
