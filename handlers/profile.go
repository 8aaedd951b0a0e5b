// handlers/profile.go
package handlers

import (
	"game-lobby-system/middleware"
	"game-lobby-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(
	app *fiber.App,
	profileService *services.ProfileService,
	ledgerService *services.LedgerService,
) {
	// 🔓 Public
	app.Get("/leaderboard", profileService.GetLeaderboard)

	// 🔐 Secured routes under /s
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Get("/profiles/me", profileService.GetMe)
	secured.Patch("/profiles/me", profileService.UpdateMe)
	secured.Post("/profiles/me/avatar", profileService.UploadAvatar)
	secured.Get("/profiles/me/balance", profileService.GetMyBalance)
	secured.Get("/profiles/me/transactions", ledgerService.GetMyTransactions)

	// 🔒 Admin-only
	admin := secured.Group("/admin", middleware.RequireAdmin())
	admin.Post("/profiles/:user_id/adjust", ledgerService.AdjustPoints)
}
