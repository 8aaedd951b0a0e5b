package models

import (
	"time"

	"gorm.io/gorm"
)

// SignupBonus is credited to every newly created profile, alongside a
// signup_bonus ledger row. With it, SignupBonus + sum(transaction amounts)
// always equals the live points balance.
const SignupBonus int64 = 1000

// Profile mirrors an auth-service user and carries everything the lobby owns
// about them: points balance, play stats and cosmetics. UserID is the external
// identity key; ID is local.
type Profile struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	Username    string  `gorm:"not null" json:"username"`
	DisplayName string  `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`

	PointsBalance    int64 `gorm:"not null;default:0" json:"points_balance"`
	TotalGamesPlayed int   `gorm:"not null;default:0" json:"total_games_played"`
	TotalGamesWon    int   `gorm:"not null;default:0" json:"total_games_won"`
	VIPLevel         int   `gorm:"not null;default:0" json:"vip_level"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
