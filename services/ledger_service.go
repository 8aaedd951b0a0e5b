// services/ledger_service.go
package services

import (
	"errors"
	"log"
	"strconv"

	"game-lobby-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Outcomes accepted by RewardGamePoints. The caller states the outcome
// explicitly; it is never inferred from the reward amount.
const (
	OutcomeWin  = "win"
	OutcomeDraw = "draw"
)

// LedgerService exposes the transaction-history and admin-adjustment
// endpoints. The balance-moving primitives below are package functions taking
// a *gorm.DB so game services can call them inside their own transactions.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// lockProfile fetches a profile row under FOR UPDATE. Concurrent balance
// mutations for the same user serialize on this lock.
func lockProfile(tx *gorm.DB, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func appendTransaction(tx *gorm.DB, userID string, gameID *string, amount int64, txType models.TransactionType, description string) error {
	return tx.Create(&models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		GameID:      gameID,
		Amount:      amount,
		Type:        txType,
		Description: description,
	}).Error
}

// DeductGamePoints escrows points from a profile. Fails with
// ErrInsufficientBalance (balance untouched) when the profile cannot cover
// the amount. Appends the negative ledger row in the same transaction.
func DeductGamePoints(tx *gorm.DB, userID string, gameID *string, amount int64, txType models.TransactionType, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	profile, err := lockProfile(tx, userID)
	if err != nil {
		return err
	}
	if profile.PointsBalance < amount {
		return ErrInsufficientBalance
	}

	profile.PointsBalance -= amount
	if err := tx.Save(profile).Error; err != nil {
		return err
	}
	return appendTransaction(tx, userID, gameID, -amount, txType, description)
}

// RewardGamePoints pays out a terminal game result and updates play stats.
// outcome must be OutcomeWin or OutcomeDraw; wins bump total_games_won.
func RewardGamePoints(tx *gorm.DB, userID string, gameID *string, amount int64, outcome, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	profile, err := lockProfile(tx, userID)
	if err != nil {
		return err
	}

	txType := models.TransactionTypeGameDraw
	profile.TotalGamesPlayed++
	if outcome == OutcomeWin {
		profile.TotalGamesWon++
		txType = models.TransactionTypeGameWin
	}
	profile.PointsBalance += amount

	if err := tx.Save(profile).Error; err != nil {
		return err
	}
	return appendTransaction(tx, userID, gameID, amount, txType, description)
}

// HandleGameLoss records a finished game for the losing side. No balance
// change; the escrow was already taken at bet time. A zero-amount ledger row
// keeps the audit trail complete without disturbing the balance invariant.
func HandleGameLoss(tx *gorm.DB, userID string, gameID *string, description string) error {
	profile, err := lockProfile(tx, userID)
	if err != nil {
		return err
	}

	profile.TotalGamesPlayed++
	if err := tx.Save(profile).Error; err != nil {
		return err
	}
	return appendTransaction(tx, userID, gameID, 0, models.TransactionTypeGameLoss, description)
}

// CreditPoints adds points without touching play stats. Used for refunds
// (cancelled games, expired lotteries) and positive admin adjustments.
func CreditPoints(tx *gorm.DB, userID string, gameID *string, amount int64, txType models.TransactionType, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	profile, err := lockProfile(tx, userID)
	if err != nil {
		return err
	}

	profile.PointsBalance += amount
	if err := tx.Save(profile).Error; err != nil {
		return err
	}
	return appendTransaction(tx, userID, gameID, amount, txType, description)
}

// --- Handlers ---

// GetMyTransactions returns the authenticated user's ledger, newest first.
func (s *LedgerService) GetMyTransactions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 200 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
		}
		limit = l
	}

	query := s.DB.Where("user_id = ?", userID)
	if txType := c.Query("type"); txType != "" {
		query = query.Where("type = ?", txType)
	}

	var transactions []models.Transaction
	if err := query.Order("created_at DESC").Limit(limit).Find(&transactions).Error; err != nil {
		log.Printf("DB Error fetching transactions for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch transactions"})
	}

	return c.JSON(transactions)
}

// AdjustPoints applies a signed admin adjustment to a user's balance (Admin only).
func (s *LedgerService) AdjustPoints(c *fiber.Ctx) error {
	targetUserID := c.Params("user_id")

	var req struct {
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Amount == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be non-zero"})
	}

	var updated *models.Profile
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		profile, err := lockProfile(tx, targetUserID)
		if err != nil {
			return err
		}
		if profile.PointsBalance+req.Amount < 0 {
			return ErrInsufficientBalance
		}
		profile.PointsBalance += req.Amount
		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		if err := appendTransaction(tx, targetUserID, nil, req.Amount, models.TransactionTypeAdminAdjustment, req.Description); err != nil {
			return err
		}
		updated = profile
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrProfileNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		case errors.Is(err, ErrInsufficientBalance):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Adjustment would make balance negative"})
		}
		log.Printf("DB Error adjusting points for %s: %v", targetUserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to adjust points"})
	}

	log.Printf("✅ Admin adjustment of %d applied to user %s", req.Amount, targetUserID)
	return c.JSON(fiber.Map{"message": "Adjustment applied", "profile": updated})
}
