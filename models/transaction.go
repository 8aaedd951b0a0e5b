package models

import "time"

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TransactionTypeGameBet         TransactionType = "game_bet"
	TransactionTypeGameJoin        TransactionType = "game_join"
	TransactionTypeGameWin         TransactionType = "game_win"
	TransactionTypeGameDraw        TransactionType = "game_draw"
	TransactionTypeGameLoss        TransactionType = "game_loss"
	TransactionTypeGameReward      TransactionType = "game_reward"
	TransactionTypeSignupBonus     TransactionType = "signup_bonus"
	TransactionTypeAdminAdjustment TransactionType = "admin_adjustment"
)

// Transaction is an append-only ledger row. Amount is signed: negative for
// escrow/deductions, positive for payouts, zero for loss records. Rows are
// only ever written inside the same database transaction that moves the
// matching profile balance, so the audit trail and the balance never diverge.
type Transaction struct {
	ID     string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string          `gorm:"index;not null" json:"user_id"`
	GameID *string         `gorm:"index" json:"game_id,omitempty"`
	Amount int64           `gorm:"not null" json:"amount"`
	Type   TransactionType `gorm:"type:varchar(24);index;not null" json:"transaction_type"`

	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
