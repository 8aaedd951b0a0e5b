// services/lobby_service.go
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"game-lobby-system/gamerules"
	"game-lobby-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxLotteryTicketPrice bounds the per-ticket stake so pot arithmetic
// (price × tickets) stays far from int64 overflow.
const maxLotteryTicketPrice = 10000

type LobbyService struct {
	DB *gorm.DB
}

func NewLobbyService(db *gorm.DB) *LobbyService {
	return &LobbyService{DB: db}
}

// GetGames is the polling surface for the lobby: filter by status and type,
// newest first. Clients re-fetch on an interval and reconcile by version.
func (s *LobbyService) GetGames(c *fiber.Ctx) error {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 200 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
		}
		limit = l
	}

	query := s.DB.Model(&models.Game{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if gameType := c.Query("type"); gameType != "" {
		query = query.Where("game_type = ?", gameType)
	}

	var games []models.Game
	if err := query.
		Preload("Participants").
		Order("created_at DESC").
		Limit(limit).
		Find(&games).Error; err != nil {
		log.Printf("DB Error fetching games: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch games"})
	}

	return c.JSON(games)
}

// GetGameByID returns one game with its participants.
func (s *LobbyService) GetGameByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid game ID"})
	}

	var game models.Game
	if err := s.DB.Preload("Participants").First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(game)
}

// CreateGame opens a new lobby entry. Tic-Tac-Toe escrows the creator's bet
// immediately; lottery games are configured here and funded ticket by ticket.
// Pokie spins are instant games and go through their own endpoint.
func (s *LobbyService) CreateGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		GameType    string     `json:"game_type"`
		Name        string     `json:"name"`
		BetAmount   int64      `json:"bet_amount"`
		TicketPrice int64      `json:"ticket_price"`
		MinPlayers  int        `json:"min_players"`
		MaxPlayers  int        `json:"max_players"`
		Deadline    *time.Time `json:"deadline"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	switch req.GameType {
	case models.GameTypeTicTacToe:
		return s.createTicTacToe(c, userID, req.Name, req.BetAmount)
	case models.GameTypeLottery:
		return s.createLottery(c, userID, req.Name, req.TicketPrice, req.MinPlayers, req.MaxPlayers, req.Deadline)
	case models.GameTypePokie:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "pokie games are played via POST /s/pokie/spin"})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "game_type must be tictactoe or lottery"})
	}
}

func (s *LobbyService) createTicTacToe(c *fiber.Ctx, userID, name string, bet int64) error {
	if bet <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bet_amount must be positive"})
	}

	data := models.TicTacToeData{
		Board:        make([]string, gamerules.BoardSize),
		Turn:         gamerules.MarkX,
		SymbolByUser: map[string]string{userID: gamerules.MarkX},
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to encode game data"})
	}

	game := &models.Game{
		ID:        uuid.NewString(),
		GameType:  models.GameTypeTicTacToe,
		Name:      name,
		Slug:      slug.Make(name),
		Status:    models.GameStatusWaiting,
		BetAmount: bet,
		CreatorID: userID,
		GameData:  payload,
		Version:   1,
	}

	// Escrow, game row and seat 1 commit or roll back together.
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := DeductGamePoints(tx, userID, &game.ID, bet, models.TransactionTypeGameBet,
			fmt.Sprintf("Tic-Tac-Toe bet: %s", name)); err != nil {
			return err
		}
		if err := tx.Create(game).Error; err != nil {
			return err
		}
		return tx.Create(&models.GameParticipant{
			ID:           uuid.NewString(),
			GameID:       game.ID,
			UserID:       userID,
			PlayerNumber: 1,
		}).Error
	})
	if err != nil {
		return ledgerErrorResponse(c, err, "Failed to create game")
	}

	log.Printf("✅ Game created: %s (%s) by %s", game.Name, game.ID, userID)
	return c.Status(fiber.StatusCreated).JSON(game)
}

func (s *LobbyService) createLottery(c *fiber.Ctx, userID, name string, ticketPrice int64, minPlayers, maxPlayers int, deadline *time.Time) error {
	if ticketPrice <= 0 || ticketPrice > maxLotteryTicketPrice {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("ticket_price must be 1-%d", maxLotteryTicketPrice)})
	}
	if minPlayers < 2 {
		minPlayers = 2
	}
	if maxPlayers != 0 && maxPlayers < minPlayers {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_players must be >= min_players"})
	}
	if deadline == nil || deadline.Before(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "deadline must be in the future"})
	}

	data := models.LotteryData{
		TicketPrice: ticketPrice,
		MinPlayers:  minPlayers,
		MaxPlayers:  maxPlayers,
		Deadline:    deadline.UTC(),
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to encode game data"})
	}

	game := &models.Game{
		ID:        uuid.NewString(),
		GameType:  models.GameTypeLottery,
		Name:      name,
		Slug:      slug.Make(name),
		Status:    models.GameStatusWaiting,
		BetAmount: ticketPrice,
		CreatorID: userID,
		GameData:  payload,
		Version:   1,
	}

	if err := s.DB.Create(game).Error; err != nil {
		log.Printf("DB Error creating lottery %s: %v", name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create game"})
	}

	log.Printf("✅ Lottery created: %s (%s) by %s, draw deadline %s", game.Name, game.ID, userID, data.Deadline)
	return c.Status(fiber.StatusCreated).JSON(game)
}

// JoinGame fills the second Tic-Tac-Toe seat: escrow the joiner's bet, add
// the seat and flip the game to active, all under the game row lock.
func (s *LobbyService) JoinGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid game ID"})
	}

	var game models.Game
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&game, "id = ?", id).Error; err != nil {
			return err
		}
		if game.GameType != models.GameTypeTicTacToe {
			return errJoinNotSupported
		}
		if game.Status != models.GameStatusWaiting {
			return errGameNotJoinable
		}
		if game.CreatorID == userID {
			return errAlreadyParticipant
		}

		var seats int64
		if err := tx.Model(&models.GameParticipant{}).
			Where("game_id = ? AND user_id = ?", game.ID, userID).
			Count(&seats).Error; err != nil {
			return err
		}
		if seats > 0 {
			return errAlreadyParticipant
		}

		if err := DeductGamePoints(tx, userID, &game.ID, game.BetAmount, models.TransactionTypeGameJoin,
			fmt.Sprintf("Joined Tic-Tac-Toe: %s", game.Name)); err != nil {
			return err
		}
		if err := tx.Create(&models.GameParticipant{
			ID:           uuid.NewString(),
			GameID:       game.ID,
			UserID:       userID,
			PlayerNumber: 2,
		}).Error; err != nil {
			return err
		}

		var data models.TicTacToeData
		if err := json.Unmarshal(game.GameData, &data); err != nil {
			return err
		}
		data.SymbolByUser[userID] = gamerules.MarkO
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}

		game.Status = models.GameStatusActive
		game.GameData = payload
		game.Version++
		return tx.Save(&game).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		case errors.Is(err, errJoinNotSupported):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only tictactoe games can be joined; buy a ticket for lotteries"})
		case errors.Is(err, errGameNotJoinable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Game is not waiting for players"})
		case errors.Is(err, errAlreadyParticipant):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already in this game"})
		}
		return ledgerErrorResponse(c, err, "Failed to join game")
	}

	log.Printf("✅ User %s joined game %s — game active", userID, game.ID)
	return c.JSON(game)
}

// CancelGame lets the creator withdraw a game that never started. Escrowed
// bets and sold tickets are refunded in full.
func (s *LobbyService) CancelGame(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid game ID"})
	}

	var game models.Game
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&game, "id = ?", id).Error; err != nil {
			return err
		}
		if game.CreatorID != userID {
			return errNotCreator
		}
		if game.Status != models.GameStatusWaiting {
			return errGameNotCancellable
		}

		if err := refundParticipants(tx, &game); err != nil {
			return err
		}

		game.Status = models.GameStatusCancelled
		game.Version++
		return tx.Save(&game).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		case errors.Is(err, errNotCreator):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the creator can cancel a game"})
		case errors.Is(err, errGameNotCancellable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only waiting games can be cancelled"})
		}
		log.Printf("DB Error cancelling game %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel game"})
	}

	log.Printf("✅ Game %s cancelled by creator %s", game.ID, userID)
	return c.JSON(game)
}

// refundParticipants returns every escrowed stake for a game being cancelled:
// the flat bet per seat for head-to-head games, ticket price × tickets owned
// for lotteries.
func refundParticipants(tx *gorm.DB, game *models.Game) error {
	var participants []models.GameParticipant
	if err := tx.Where("game_id = ?", game.ID).Find(&participants).Error; err != nil {
		return err
	}

	for _, p := range participants {
		refund := game.BetAmount
		if game.GameType == models.GameTypeLottery {
			refund = game.BetAmount * int64(len(p.TicketNumbers))
		}
		if refund <= 0 {
			continue
		}
		if err := CreditPoints(tx, p.UserID, &game.ID, refund, models.TransactionTypeGameReward,
			fmt.Sprintf("Refund for cancelled game: %s", game.Name)); err != nil {
			return err
		}
	}
	return nil
}

// Sentinel errors carried out of lobby transactions to pick the right status code.
var (
	errJoinNotSupported   = errors.New("game type not joinable")
	errGameNotJoinable    = errors.New("game not joinable")
	errAlreadyParticipant = errors.New("already a participant")
	errNotCreator         = errors.New("not the game creator")
	errGameNotCancellable = errors.New("game not cancellable")
)

// ledgerErrorResponse maps ledger failures onto the API's error shape.
func ledgerErrorResponse(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Insufficient points balance"})
	case errors.Is(err, ErrProfileNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	}
	log.Printf("❌ %s: %v", fallback, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
}
