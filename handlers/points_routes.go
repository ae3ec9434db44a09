// handlers/points_routes.go
package handlers

import (
	"errors"

	"bantah-points-system/middleware"
	"bantah-points-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPointsRoutes(app *fiber.App, ledger *services.LedgerService, claims *services.ClaimService, leaderboard *services.LeaderboardService, notifications *services.NotificationService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/points", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		row, err := ledger.GetOrCreateLedger(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load points ledger",
				"cause": err.Error(),
			})
		}

		canClaim, nextClaim, err := claims.ClaimStatus(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to compute claim status",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"points_balance":       row.PointsBalance,
			"points_display":       services.FormatPoints(row.PointsBalance),
			"total_points_earned":  row.TotalPointsEarned,
			"total_points_burned":  row.TotalPointsBurned,
			"last_claimed_at":      row.LastClaimedAt,
			"can_claim":            canClaim,
			"next_claim_at":        nextClaim,
		})
	})

	securedGroup.Get("/user/points/transactions", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		txs, err := ledger.ListTransactions(userID, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch transactions",
				"cause": err.Error(),
			})
		}
		return c.JSON(txs)
	})

	securedGroup.Post("/user/points/claim", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		result, err := claims.ClaimWeeklyPoints(userID)
		if err != nil {
			if errors.Is(err, services.ErrClaimWindowClosed) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"error":         "points already claimed this week",
					"next_claim_at": result.NextClaimAt,
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "claim failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(result)
	})

	securedGroup.Get("/user/points/leaderboard", leaderboard.GetLeaderboard)
	securedGroup.Get("/user/points/leaderboard/me", leaderboard.GetLeaderboardAroundMe)

	securedGroup.Get("/user/notifications", notifications.GetUserNotifications)
	securedGroup.Post("/user/notifications/read-all", notifications.MarkAllNotificationsRead)
}
