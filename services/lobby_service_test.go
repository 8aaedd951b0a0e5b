package services

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCreateGameApp wires CreateGame behind a stub user context. The cases
// below exercise request validation only, which never reaches the database.
func newCreateGameApp() *fiber.App {
	app := fiber.New()
	svc := NewLobbyService(nil)
	app.Post("/games", func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	}, svc.CreateGame)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) int {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestCreateLottery_TicketPriceBounds(t *testing.T) {
	app := newCreateGameApp()

	over := `{"game_type":"lottery","name":"Big pot","ticket_price":10001,"min_players":2,"deadline":"2030-01-01T00:00:00Z"}`
	assert.Equal(t, fiber.StatusBadRequest, postJSON(t, app, "/games", over))

	zero := `{"game_type":"lottery","name":"Free pot","ticket_price":0,"min_players":2,"deadline":"2030-01-01T00:00:00Z"}`
	assert.Equal(t, fiber.StatusBadRequest, postJSON(t, app, "/games", zero))
}

func TestCreateLottery_RejectsPastDeadline(t *testing.T) {
	app := newCreateGameApp()

	body := `{"game_type":"lottery","name":"Late pot","ticket_price":10,"min_players":2,"deadline":"2020-01-01T00:00:00Z"}`
	assert.Equal(t, fiber.StatusBadRequest, postJSON(t, app, "/games", body))
}

func TestCreateGame_RejectsUnknownType(t *testing.T) {
	app := newCreateGameApp()

	body := `{"game_type":"roulette","name":"Spin it"}`
	assert.Equal(t, fiber.StatusBadRequest, postJSON(t, app, "/games", body))

	pokie := `{"game_type":"pokie","name":"Slots"}`
	assert.Equal(t, fiber.StatusBadRequest, postJSON(t, app, "/games", pokie))
}
