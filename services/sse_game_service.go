// services/sse_game_service.go
package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"game-lobby-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GameStreamService pushes game changes to connected clients over SSE.
// Each tick emits only rows newer than the client's cursor, so duplicated or
// reordered delivery collapses to the latest payload. The per-game stream
// cursors on the game's monotonic version; the lobby stream cursors on
// updated_at, since versions of different games are not comparable. Clients
// that also poll the REST endpoints reconcile the same way.
type GameStreamService struct {
	DB *gorm.DB
}

func NewGameStreamService(db *gorm.DB) *GameStreamService {
	return &GameStreamService{DB: db}
}

// StreamGame streams one game's state changes until the game reaches a
// terminal status or the client disconnects. `since_version` resumes a
// dropped connection without replaying already-applied state.
func (s *GameStreamService) StreamGame(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid game ID"})
	}

	var cursor int64
	if sinceStr := c.Query("since_version"); sinceStr != "" {
		v, err := strconv.ParseInt(sinceStr, 10, 64)
		if err != nil || v < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid since_version"})
		}
		cursor = v
	}

	var game models.Game
	if err := s.DB.First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	setSSEHeaders(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				var current models.Game
				err := s.DB.Preload("Participants").First(&current, "id = ?", id).Error
				if err != nil {
					log.Printf("SSE query error for game %s: %v", id, err)
					continue
				}
				if current.Version <= cursor {
					// Heartbeat so proxies keep the connection open.
					w.WriteString(":\n\n")
					if err := w.Flush(); err != nil {
						return
					}
					continue
				}

				cursor = current.Version
				if !writeSSEEvent(w, "game", current) {
					return
				}
				if models.IsTerminalStatus(current.Status) {
					return
				}

			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}

// StreamLobby streams newly changed waiting/active games — the low-latency
// companion to polling GET /games. The cursor is updated_at, which moves on
// every write to any game; per-game Version only orders writes within one
// game and cannot order games against each other.
func (s *GameStreamService) StreamLobby(c *fiber.Ctx) error {
	setSSEHeaders(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(3 * time.Second)
		defer ticker.Stop()

		// Start past the newest write so only fresh changes stream.
		cursor := s.initLobbyCursor()

		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case <-ticker.C:
				changed, next, err := s.lobbyChangesSince(cursor)
				if err != nil {
					log.Printf("SSE lobby query error: %v", err)
					continue
				}
				cursor = next
				if len(changed) == 0 {
					w.WriteString(":\n\n")
					if err := w.Flush(); err != nil {
						return
					}
					continue
				}

				for _, g := range changed {
					if !writeSSEEvent(w, "lobby", g) {
						return
					}
				}

			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}

// initLobbyCursor returns the newest updated_at across all games, so a fresh
// stream emits only changes made after it connected.
func (s *GameStreamService) initLobbyCursor() time.Time {
	var latest models.Game
	if err := s.DB.Order("updated_at DESC").First(&latest).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("SSE lobby init error: %v", err)
		}
		return time.Time{}
	}
	return latest.UpdatedAt
}

// lobbyChangesSince returns waiting/active games written after the cursor,
// oldest first, and the advanced cursor.
func (s *GameStreamService) lobbyChangesSince(cursor time.Time) ([]models.Game, time.Time, error) {
	var changed []models.Game
	err := s.DB.
		Where("status IN ?", []string{models.GameStatusWaiting, models.GameStatusActive}).
		Where("updated_at > ?", cursor).
		Order("updated_at ASC").
		Find(&changed).Error
	if err != nil {
		return nil, cursor, err
	}
	if len(changed) > 0 {
		cursor = changed[len(changed)-1].UpdatedAt
	}
	return changed, cursor, nil
}

func setSSEHeaders(c *fiber.Ctx) {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx
}

// writeSSEEvent emits one event and flushes; false means the client is gone.
func writeSSEEvent(w *bufio.Writer, event string, v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("SSE marshal error: %v", err)
		return true
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return w.Flush() == nil
}
