// handlers/admin_routes.go
package handlers

import (
	"errors"
	"log"
	"os"
	"time"

	"bantah-points-system/middleware"
	"bantah-points-system/models"
	"bantah-points-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// SetupAdminRoutes wires the admin surface. The JWT secret is threaded in
// from main rather than read from a global.
func SetupAdminRoutes(app *fiber.App, db *gorm.DB, jwtSecret []byte, points *services.PointsService, challenges *services.ChallengeService, backfill *services.BackfillService) {
	app.Post("/admin/login", func(c *fiber.Ctx) error {
		var req struct {
			Username string `json:"username" validate:"required"`
			Password string `json:"password" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Username == "" || req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username and password are required"})
		}

		var user models.PlatformUser
		if err := db.Where("username = ?", req.Username).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		if !user.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied: Not an administrator"})
		}

		adminPassword := os.Getenv("ADMIN_PASSWORD")
		if adminPassword == "" || req.Password != adminPassword {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
		}

		now := time.Now()
		claims := middleware.AdminClaims{
			IsAdmin:  true,
			Email:    user.Email,
			Username: user.Username,
			RegisteredClaims: jwt.RegisteredClaims{
				Audience:  jwt.ClaimStrings{"admin"},
				Subject:   user.ExternalUserID,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(7 * 24 * time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
		if err != nil {
			log.Printf("Admin token signing failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Login failed"})
		}

		log.Printf("✅ Admin login successful for: %s", req.Username)
		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":       user.ExternalUserID,
				"username": user.Username,
				"email":    user.Email,
				"is_admin": user.IsAdmin,
			},
		})
	})

	adminGroup := app.Group("/admin", middleware.AdminAuthMiddleware(jwtSecret))

	adminGroup.Get("/verify", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"id":       c.Locals("user_id"),
			"username": c.Locals("admin_username"),
			"is_admin": true,
		})
	})

	adminGroup.Post("/points/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id" validate:"required"`
			Amount int64  `json:"amount" validate:"required,min=1"`
			Reason string `json:"reason" validate:"max=255"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.UserID == "" || req.Amount <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and a positive amount are required"})
		}

		if err := points.GrantPoints(req.UserID, req.Amount, req.Reason); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "points grant failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"message": "Points granted successfully",
			"user_id": req.UserID,
			"amount":  req.Amount,
		})
	})

	adminGroup.Post("/challenges/:id/resolve", challenges.ResolveChallenge)

	// Read-only preview of the direct reconciliation backfill; destructive
	// runs stay on the operator CLIs.
	adminGroup.Get("/backfill/preview/:userId", func(c *fiber.Ctx) error {
		report, err := backfill.ReconcileLedger(c.Params("userId"), false)
		if err != nil {
			if errors.Is(err, services.ErrNoLedger) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no ledger row for user"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "preview failed", "cause": err.Error()})
		}
		return c.JSON(report)
	})
}
