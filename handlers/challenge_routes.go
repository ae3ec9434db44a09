// handlers/challenge_routes.go
package handlers

import (
	"bantah-points-system/middleware"
	"bantah-points-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challenges *services.ChallengeService, referrals *services.ReferralService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/challenges", challenges.CreateChallenge)
	securedGroup.Get("/challenges", challenges.ListChallenges)
	securedGroup.Get("/challenges/:id", challenges.GetChallenge)
	securedGroup.Post("/challenges/:id/join", challenges.JoinChallenge)
	securedGroup.Post("/challenges/:id/cover", challenges.UploadChallengeCover)

	securedGroup.Post("/user/referrals", referrals.CreateReferral)
	securedGroup.Get("/user/referrals", referrals.GetUserReferrals)
}
