// services/pokie_service.go
package services

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"game-lobby-system/gamerules"
	"game-lobby-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const maxPokieBet = 10000

type PokieService struct {
	DB *gorm.DB

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPokieService(db *gorm.DB) *PokieService {
	return &PokieService{
		DB:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Spin plays one pokie round: escrow the bet, roll a 4x4 grid of weighted
// symbols, scan rows/columns/diagonals for full matches and settle — all in
// one transaction, recorded as an already-completed game. The staggered reel
// reveal is a client animation over the persisted grid.
func (s *PokieService) Spin(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		BetAmount int64 `json:"bet_amount"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.BetAmount <= 0 || req.BetAmount > maxPokieBet {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("bet_amount must be 1-%d", maxPokieBet)})
	}

	s.mu.Lock()
	grid := gamerules.GeneratePokieGrid(s.rng)
	s.mu.Unlock()
	payout, lines, dominant := gamerules.PokiePayout(grid, req.BetAmount)

	now := time.Now()
	name := fmt.Sprintf("Pokie spin %s", now.Format("2006-01-02 15:04:05"))
	game := &models.Game{
		ID:          uuid.NewString(),
		GameType:    models.GameTypePokie,
		Name:        name,
		Slug:        slug.Make(name),
		Status:      models.GameStatusCompleted,
		BetAmount:   req.BetAmount,
		CreatorID:   userID,
		Version:     1,
		CompletedAt: &now,
	}
	if payout > 0 {
		game.WinnerID = &userID
	}

	data := models.PokieData{
		Grid:           grid,
		MatchingLines:  lines,
		DominantSymbol: dominant,
		Payout:         payout,
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to encode game data"})
	}
	game.GameData = payload

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(game).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.GameParticipant{
			ID:           uuid.NewString(),
			GameID:       game.ID,
			UserID:       userID,
			PlayerNumber: 1,
		}).Error; err != nil {
			return err
		}
		if err := DeductGamePoints(tx, userID, &game.ID, req.BetAmount, models.TransactionTypeGameBet,
			"Pokie spin bet"); err != nil {
			return err
		}
		if payout > 0 {
			return RewardGamePoints(tx, userID, &game.ID, payout, OutcomeWin,
				fmt.Sprintf("Pokie win: %d line(s) of %s", lines, dominant))
		}
		return HandleGameLoss(tx, userID, &game.ID, "Pokie spin lost")
	})
	if err != nil {
		return ledgerErrorResponse(c, err, "Failed to play pokie spin")
	}

	if payout > 0 {
		log.Printf("🎰 Pokie win for %s: %d line(s), payout %d", userID, lines, payout)
	}
	return c.Status(fiber.StatusCreated).JSON(game)
}
