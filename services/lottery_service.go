// services/lottery_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"game-lobby-system/gamerules"
	"game-lobby-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTicketsPerPurchase = 100

type LotteryService struct {
	DB *gorm.DB

	mu  sync.Mutex
	rng *rand.Rand
}

func NewLotteryService(db *gorm.DB) *LotteryService {
	return &LotteryService{
		DB:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var (
	errLotteryClosed    = errors.New("lottery closed")
	errLotteryFull      = errors.New("lottery full")
	errDeadlinePassed   = errors.New("deadline passed")
	errNotEnoughPlayers = errors.New("not enough players")
	errDrawAlreadyDone  = errors.New("draw already done")
)

// BuyTickets purchases count tickets in one deduction. The first purchase
// seats the buyer as a participant; the game flips to active once the
// minimum participant count is reached.
func (s *LotteryService) BuyTickets(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid game ID"})
	}

	var req struct {
		Count int `json:"count"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Count <= 0 || req.Count > maxTicketsPerPurchase {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("count must be 1-%d", maxTicketsPerPurchase)})
	}

	var game models.Game
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&game, "id = ? AND game_type = ?", id, models.GameTypeLottery).Error; err != nil {
			return err
		}
		if game.Status != models.GameStatusWaiting && game.Status != models.GameStatusActive {
			return errLotteryClosed
		}

		var data models.LotteryData
		if err := json.Unmarshal(game.GameData, &data); err != nil {
			return err
		}
		if time.Now().After(data.Deadline) {
			return errDeadlinePassed
		}

		var participant models.GameParticipant
		err := tx.Where("game_id = ? AND user_id = ?", game.ID, userID).First(&participant).Error
		newSeat := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !newSeat {
			return err
		}

		var seats int64
		if err := tx.Model(&models.GameParticipant{}).
			Where("game_id = ?", game.ID).
			Count(&seats).Error; err != nil {
			return err
		}
		if newSeat && data.MaxPlayers > 0 && int(seats) >= data.MaxPlayers {
			return errLotteryFull
		}

		cost := data.TicketPrice * int64(req.Count)
		if err := DeductGamePoints(tx, userID, &game.ID, cost, models.TransactionTypeGameBet,
			fmt.Sprintf("%d lottery ticket(s): %s", req.Count, game.Name)); err != nil {
			return err
		}

		numbers := gamerules.NextTicketNumbers(data.TicketsSold, req.Count)
		if newSeat {
			participant = models.GameParticipant{
				ID:            uuid.NewString(),
				GameID:        game.ID,
				UserID:        userID,
				PlayerNumber:  int(seats) + 1,
				TicketNumbers: numbers,
			}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
			seats++
		} else {
			participant.TicketNumbers = append(participant.TicketNumbers, numbers...)
			if err := tx.Save(&participant).Error; err != nil {
				return err
			}
		}

		data.TicketsSold += req.Count
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		game.GameData = payload

		if game.Status == models.GameStatusWaiting && int(seats) >= data.MinPlayers {
			game.Status = models.GameStatusActive
		}
		game.Version++
		return tx.Save(&game).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lottery not found"})
		case errors.Is(err, errLotteryClosed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Lottery is closed"})
		case errors.Is(err, errDeadlinePassed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Ticket sales have closed"})
		case errors.Is(err, errLotteryFull):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Lottery is full"})
		}
		return ledgerErrorResponse(c, err, "Failed to buy tickets")
	}

	log.Printf("🎟️  User %s bought %d ticket(s) in lottery %s", userID, req.Count, game.ID)
	return c.JSON(game)
}

// Draw resolves the lottery: one uniformly random ticket from the flattened
// set wins the whole pot. Any participant may trigger it once the minimum is
// met; the conditional active→completed transition is the single-writer
// guard, so concurrent draw calls settle at most once.
func (s *LotteryService) Draw(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid game ID"})
	}

	var game models.Game
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&game, "id = ? AND game_type = ?", id, models.GameTypeLottery).Error; err != nil {
			return err
		}

		var data models.LotteryData
		if err := json.Unmarshal(game.GameData, &data); err != nil {
			return err
		}

		var participants []models.GameParticipant
		if err := tx.Where("game_id = ?", game.ID).
			Order("player_number ASC").
			Find(&participants).Error; err != nil {
			return err
		}

		isParticipant := false
		for _, p := range participants {
			if p.UserID == userID {
				isParticipant = true
				break
			}
		}
		if !isParticipant {
			return errNotInGame
		}
		if len(participants) < data.MinPlayers {
			return errNotEnoughPlayers
		}

		// Single-writer guard: exactly one draw call gets the transition.
		res := tx.Model(&models.Game{}).
			Where("id = ? AND status = ?", game.ID, models.GameStatusActive).
			Update("status", models.GameStatusCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errDrawAlreadyDone
		}

		entries := make([]gamerules.ParticipantTickets, len(participants))
		for i, p := range participants {
			entries[i] = gamerules.ParticipantTickets{UserID: p.UserID, Tickets: p.TicketNumbers}
		}
		s.mu.Lock()
		winnerID, winningTicket, err := gamerules.DrawLotteryWinner(entries, s.rng)
		s.mu.Unlock()
		if err != nil {
			return err
		}

		pot := gamerules.LotteryPot(data.TicketPrice, data.TicketsSold)
		if err := RewardGamePoints(tx, winnerID, &game.ID, pot, OutcomeWin,
			fmt.Sprintf("Won lottery pot: %s", game.Name)); err != nil {
			return err
		}
		for _, p := range participants {
			if p.UserID == winnerID {
				continue
			}
			if err := HandleGameLoss(tx, p.UserID, &game.ID,
				fmt.Sprintf("Lost lottery: %s", game.Name)); err != nil {
				return err
			}
		}

		now := time.Now()
		data.WinningTicket = &winningTicket
		data.DrawnAt = &now
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}

		game.Status = models.GameStatusCompleted
		game.WinnerID = &winnerID
		game.CompletedAt = &now
		game.GameData = payload
		game.Version++
		return tx.Save(&game).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lottery not found"})
		case errors.Is(err, errNotInGame):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only participants can trigger the draw"})
		case errors.Is(err, errNotEnoughPlayers):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Minimum participant count not reached"})
		case errors.Is(err, errDrawAlreadyDone):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Lottery already drawn or cancelled"})
		}
		log.Printf("DB Error drawing lottery %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to draw lottery"})
	}

	log.Printf("🎉 Lottery %s drawn — winner %s", game.ID, *game.WinnerID)
	return c.JSON(game)
}

// ExpireDueLotteries cancels lotteries whose deadline passed before the
// minimum participant count was reached and refunds every sold ticket. Each
// game settles in its own transaction so one failure cannot block the sweep.
func (s *LotteryService) ExpireDueLotteries(now time.Time) {
	var candidates []models.Game
	err := s.DB.
		Where("game_type = ? AND status IN ?", models.GameTypeLottery,
			[]string{models.GameStatusWaiting, models.GameStatusActive}).
		Find(&candidates).Error
	if err != nil {
		log.Printf("[LotterySweep] DB error: %v", err)
		return
	}

	for i := range candidates {
		if err := s.expireOne(&candidates[i], now); err != nil {
			log.Printf("[LotterySweep] Failed to expire lottery %s: %v", candidates[i].ID, err)
		}
	}
}

func (s *LotteryService) expireOne(candidate *models.Game, now time.Time) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&game, "id = ?", candidate.ID).Error; err != nil {
			return err
		}
		if models.IsTerminalStatus(game.Status) {
			return nil
		}

		var data models.LotteryData
		if err := json.Unmarshal(game.GameData, &data); err != nil {
			return err
		}
		if now.Before(data.Deadline) {
			return nil
		}

		var seats int64
		if err := tx.Model(&models.GameParticipant{}).
			Where("game_id = ?", game.ID).
			Count(&seats).Error; err != nil {
			return err
		}
		if int(seats) >= data.MinPlayers {
			// Drawable: leave it to the participants.
			return nil
		}

		if err := refundParticipants(tx, &game); err != nil {
			return err
		}

		game.Status = models.GameStatusCancelled
		game.Version++
		if err := tx.Save(&game).Error; err != nil {
			return err
		}
		log.Printf("⏰ Lottery %s expired below minimum — tickets refunded, game cancelled", game.ID)
		return nil
	})
}
