// services/tictactoe_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"game-lobby-system/gamerules"
	"game-lobby-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TicTacToeService struct {
	DB *gorm.DB
}

func NewTicTacToeService(db *gorm.DB) *TicTacToeService {
	return &TicTacToeService{DB: db}
}

var (
	errNotYourTurn    = errors.New("not your turn")
	errCellTaken      = errors.New("cell already taken")
	errCellOutOfRange = errors.New("cell out of range")
	errNotInGame      = errors.New("not a participant")
	errGameNotActive  = errors.New("game not active")
	errWrongGameType  = errors.New("wrong game type")
)

// MakeMove places a mark for the authenticated player. Turn ownership, board
// evaluation and settlement all happen server-side under the game row lock,
// so a terminal state settles exactly once no matter how many clients react
// to it.
func (s *TicTacToeService) MakeMove(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid game ID"})
	}

	var req struct {
		Cell *int `json:"cell"`
	}
	if err := c.BodyParser(&req); err != nil || req.Cell == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cell is required"})
	}

	var game models.Game
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&game, "id = ?", id).Error; err != nil {
			return err
		}
		if game.GameType != models.GameTypeTicTacToe {
			return errWrongGameType
		}
		if game.Status != models.GameStatusActive {
			return errGameNotActive
		}

		var data models.TicTacToeData
		if err := json.Unmarshal(game.GameData, &data); err != nil {
			return err
		}

		symbol, ok := data.SymbolByUser[userID]
		if !ok {
			return errNotInGame
		}
		if data.Turn != symbol {
			return errNotYourTurn
		}
		cell := *req.Cell
		if cell < 0 || cell >= gamerules.BoardSize {
			return errCellOutOfRange
		}
		if data.Board[cell] != "" {
			return errCellTaken
		}

		data.Board[cell] = symbol
		result, winnerMark, err := gamerules.EvaluateTicTacToe(data.Board)
		if err != nil {
			return err
		}

		switch result {
		case gamerules.TicTacToeWin:
			if err := s.settleWin(tx, &game, &data, winnerMark); err != nil {
				return err
			}
		case gamerules.TicTacToeDraw:
			if err := s.settleDraw(tx, &game, &data); err != nil {
				return err
			}
		default:
			data.Turn = gamerules.NextMark(symbol)
		}

		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		game.GameData = payload
		game.Version++
		return tx.Save(&game).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		case errors.Is(err, errWrongGameType):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Not a tictactoe game"})
		case errors.Is(err, errGameNotActive):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Game is not active"})
		case errors.Is(err, errNotInGame):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not in this game"})
		case errors.Is(err, errNotYourTurn):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Not your turn"})
		case errors.Is(err, errCellOutOfRange):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cell must be 0-8"})
		case errors.Is(err, errCellTaken):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Cell already taken"})
		}
		log.Printf("DB Error applying move on game %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to apply move"})
	}

	return c.JSON(game)
}

// settleWin pays the winner double their bet and records the loss for the
// opponent. Escrow was taken at create/join time, so 2× the bet is the whole pot.
func (s *TicTacToeService) settleWin(tx *gorm.DB, game *models.Game, data *models.TicTacToeData, winnerMark string) error {
	if !models.ValidStatusTransition(game.Status, models.GameStatusCompleted) {
		return fmt.Errorf("illegal status transition %s → completed", game.Status)
	}

	var winnerID, loserID string
	for uid, mark := range data.SymbolByUser {
		if mark == winnerMark {
			winnerID = uid
		} else {
			loserID = uid
		}
	}

	if err := RewardGamePoints(tx, winnerID, &game.ID, game.BetAmount*2, OutcomeWin,
		fmt.Sprintf("Won Tic-Tac-Toe: %s", game.Name)); err != nil {
		return err
	}
	if err := HandleGameLoss(tx, loserID, &game.ID,
		fmt.Sprintf("Lost Tic-Tac-Toe: %s", game.Name)); err != nil {
		return err
	}

	now := time.Now()
	game.Status = models.GameStatusCompleted
	game.WinnerID = &winnerID
	game.CompletedAt = &now
	log.Printf("🏁 Tic-Tac-Toe %s completed — winner %s (+%d)", game.ID, winnerID, game.BetAmount*2)
	return nil
}

// settleDraw refunds each player their own bet.
func (s *TicTacToeService) settleDraw(tx *gorm.DB, game *models.Game, data *models.TicTacToeData) error {
	if !models.ValidStatusTransition(game.Status, models.GameStatusCompleted) {
		return fmt.Errorf("illegal status transition %s → completed", game.Status)
	}

	for uid := range data.SymbolByUser {
		if err := RewardGamePoints(tx, uid, &game.ID, game.BetAmount, OutcomeDraw,
			fmt.Sprintf("Draw in Tic-Tac-Toe: %s", game.Name)); err != nil {
			return err
		}
	}

	now := time.Now()
	game.Status = models.GameStatusCompleted
	game.CompletedAt = &now
	log.Printf("🏁 Tic-Tac-Toe %s completed — draw, bets refunded", game.ID)
	return nil
}
