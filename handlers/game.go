// handlers/game.go
package handlers

import (
	"game-lobby-system/middleware"
	"game-lobby-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(
	app *fiber.App,
	lobbyService *services.LobbyService,
	tttService *services.TicTacToeService,
	lotteryService *services.LotteryService,
	pokieService *services.PokieService,
	streamService *services.GameStreamService,
	authClient *services.AuthServiceClient,
) {
	// 🔓 Public reads — the lobby polling surface (still behind Gateway auth)
	app.Get("/games", lobbyService.GetGames)
	app.Get("/games/:id", lobbyService.GetGameByID)

	// 📡 SSE — EventSource can't set headers, token rides the query string
	app.Get("/events/lobby", middleware.SSEAuthMiddleware(authClient), streamService.StreamLobby)
	app.Get("/games/:id/events", middleware.SSEAuthMiddleware(authClient), streamService.StreamGame)

	// 🔐 Secured routes under /s — require user context from the Gateway
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/games", lobbyService.CreateGame)
	secured.Post("/games/:id/join", lobbyService.JoinGame)
	secured.Post("/games/:id/cancel", lobbyService.CancelGame)

	secured.Post("/games/:id/move", tttService.MakeMove)

	secured.Post("/games/:id/tickets", lotteryService.BuyTickets)
	secured.Post("/games/:id/draw", lotteryService.Draw)

	secured.Post("/pokie/spin", pokieService.Spin)
}
