// services/challenges.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"bantah-points-system/models"
	"bantah-points-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ChallengeService struct {
	DB     *gorm.DB
	Points *PointsService
}

func NewChallengeService(db *gorm.DB, points *PointsService) *ChallengeService {
	return &ChallengeService{DB: db, Points: points}
}

// --- User Handlers ---

// CreateChallenge creates a staked challenge and awards creation points
func (s *ChallengeService) CreateChallenge(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Title          string               `json:"title" validate:"required"`
		Description    string               `json:"description"`
		Type           models.ChallengeType `json:"type" validate:"required,oneof=direct open group"`
		OpponentID     *string              `json:"opponent_id"`
		StakeAmountUSD decimal.Decimal      `json:"stake_amount_usd"`
		EscrowAddress  string               `json:"escrow_address"`
		DueDate        *time.Time           `json:"due_date"`
		Side           string               `json:"side"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}
	switch req.Type {
	case models.ChallengeTypeDirect:
		if req.OpponentID == nil || *req.OpponentID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "opponent_id is required for direct challenges"})
		}
	case models.ChallengeTypeOpen, models.ChallengeTypeGroup:
		// no opponent up front
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid challenge type"})
	}
	if req.StakeAmountUSD.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Stake amount cannot be negative"})
	}

	challenge := &models.Challenge{
		ID:             uuid.NewString(),
		CreatorID:      userID,
		OpponentID:     req.OpponentID,
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.Type,
		Status:         models.ChallengeStatusOpen,
		StakeAmountUSD: req.StakeAmountUSD,
		EscrowAddress:  req.EscrowAddress,
		DueDate:        req.DueDate,
	}
	challenge.Slug = s.uniqueSlug(req.Title)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(challenge).Error; err != nil {
			return err
		}
		participant := models.ChallengeParticipant{
			ID:          uuid.NewString(),
			ChallengeID: challenge.ID,
			UserID:      userID,
			Side:        req.Side,
			StakeUSD:    req.StakeAmountUSD,
		}
		return tx.Create(&participant).Error
	})
	if err != nil {
		log.Printf("DB Error creating challenge: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create challenge"})
	}

	if _, err := s.Points.AwardCreationPoints(userID, challenge.ID); err != nil {
		log.Printf("⚠️ Creation points award failed for challenge %s: %v", challenge.ID, err)
	}

	return c.Status(fiber.StatusCreated).JSON(challenge)
}

// uniqueSlug builds a shareable slug, suffixing on collision
func (s *ChallengeService) uniqueSlug(title string) string {
	base := slug.Make(title)
	candidate := base
	for i := 2; ; i++ {
		var count int64
		s.DB.Model(&models.Challenge{}).Where("slug = ?", candidate).Count(&count)
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// JoinChallenge adds the authenticated user as a participant and awards
// participation points
func (s *ChallengeService) JoinChallenge(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	challengeID := c.Params("id")

	if _, err := uuid.Parse(challengeID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid challenge ID"})
	}

	var req struct {
		Side     string          `json:"side"`
		StakeUSD decimal.Decimal `json:"stake_usd"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if challenge.Status != models.ChallengeStatusOpen {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Challenge is not open for joining"})
	}
	if challenge.CreatorID == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Creator is already a participant"})
	}
	if challenge.Type == models.ChallengeTypeDirect && (challenge.OpponentID == nil || *challenge.OpponentID != userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This direct challenge is for a different opponent"})
	}

	var existing int64
	s.DB.Model(&models.ChallengeParticipant{}).
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Count(&existing)
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already joined this challenge"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		participant := models.ChallengeParticipant{
			ID:          uuid.NewString(),
			ChallengeID: challengeID,
			UserID:      userID,
			Side:        req.Side,
			StakeUSD:    req.StakeUSD,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}
		// Direct and open 1v1 challenges go active once the taker joins;
		// group pools stay open until resolution or expiry.
		if challenge.Type != models.ChallengeTypeGroup {
			return tx.Model(&challenge).Update("status", models.ChallengeStatusActive).Error
		}
		return nil
	})
	if err != nil {
		log.Printf("DB Error joining challenge: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to join challenge"})
	}

	if _, err := s.Points.AwardParticipationPoints(userID, challengeID, "joining a challenge"); err != nil {
		log.Printf("⚠️ Participation points award failed for challenge %s: %v", challengeID, err)
	}

	return c.JSON(fiber.Map{"message": "Joined challenge", "challenge_id": challengeID})
}

// ResolveChallenge settles a challenge with a winner (Admin only).
// Escrow release itself happens on-chain; the escrow sync worker mirrors
// those events into the ledger. This flow awards the win points.
func (s *ChallengeService) ResolveChallenge(c *fiber.Ctx) error {
	challengeID := c.Params("id")
	if _, err := uuid.Parse(challengeID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid challenge ID"})
	}

	var req struct {
		WinnerID string `json:"winner_id" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil || req.WinnerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "winner_id is required"})
	}

	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if challenge.Status == models.ChallengeStatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Challenge already resolved"})
	}

	var winnerRows int64
	s.DB.Model(&models.ChallengeParticipant{}).
		Where("challenge_id = ? AND user_id = ?", challengeID, req.WinnerID).
		Count(&winnerRows)
	if winnerRows == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Winner is not a participant"})
	}

	now := time.Now()
	challenge.Status = models.ChallengeStatusCompleted
	challenge.WinnerID = &req.WinnerID
	challenge.ResolvedAt = &now
	if err := s.DB.Save(&challenge).Error; err != nil {
		log.Printf("DB Error resolving challenge: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve challenge"})
	}

	if _, err := s.Points.AwardParticipationPoints(req.WinnerID, challengeID, "winning a challenge"); err != nil {
		log.Printf("⚠️ Win points award failed for challenge %s: %v", challengeID, err)
	}

	if streak := s.currentWinStreak(req.WinnerID); streak >= trendingStreakThreshold {
		s.Points.Notifications.NotifyTrendingWinStreak(req.WinnerID, streak)
	}

	return c.JSON(fiber.Map{"message": "Challenge resolved", "challenge": challenge})
}

// trendingStreakThreshold is the consecutive-win count that triggers the
// trending notification
const trendingStreakThreshold = 3

// currentWinStreak counts the user's consecutive wins across their most
// recently resolved challenges, stopping at the first loss
func (s *ChallengeService) currentWinStreak(userID string) int {
	var recent []models.Challenge
	err := s.DB.
		Joins("JOIN challenge_participants p ON p.challenge_id = challenges.id").
		Where("p.user_id = ? AND challenges.status = ?", userID, models.ChallengeStatusCompleted).
		Order("challenges.resolved_at DESC").
		Limit(10).
		Find(&recent).Error
	if err != nil {
		log.Printf("⚠️ Win streak query failed for %s: %v", userID, err)
		return 0
	}

	streak := 0
	for _, ch := range recent {
		if ch.WinnerID == nil || *ch.WinnerID != userID {
			break
		}
		streak++
	}
	return streak
}

// GetChallenge fetches one challenge by ID or slug
func (s *ChallengeService) GetChallenge(c *fiber.Ctx) error {
	idOrSlug := c.Params("id")

	var challenge models.Challenge
	query := s.DB.Preload("Participants")
	if _, err := uuid.Parse(idOrSlug); err == nil {
		query = query.Where("id = ?", idOrSlug)
	} else {
		query = query.Where("slug = ?", idOrSlug)
	}
	if err := query.First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(challenge)
}

// ListChallenges lists challenges with optional status/type filters
func (s *ChallengeService) ListChallenges(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.DB.Model(&models.Challenge{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if challengeType := c.Query("type"); challengeType != "" {
		query = query.Where("type = ?", challengeType)
	}
	if creator := c.Query("creator"); creator != "" {
		query = query.Where("creator_id = ?", creator)
	}

	var challenges []models.Challenge
	if err := query.Order("created_at DESC").Limit(limit).Find(&challenges).Error; err != nil {
		log.Printf("DB Error listing challenges: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list challenges"})
	}
	return c.JSON(challenges)
}

// UploadChallengeCover uploads a cover image to R2 and stores its URL
func (s *ChallengeService) UploadChallengeCover(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	challengeID := c.Params("id")

	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Challenge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if challenge.CreatorID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the creator can update the cover"})
	}

	fileHeader, err := c.FormFile("cover")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cover file is required"})
	}

	key := fmt.Sprintf("challenge-covers/%s-%s", challenge.ID, utils.SanitizeObjectName(fileHeader.Filename))
	url, err := utils.UploadCoverToR2(fileHeader, key)
	if err != nil {
		log.Printf("R2 upload failed for challenge %s: %v", challengeID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to upload cover", "cause": err.Error()})
	}

	if err := s.DB.Model(&challenge).Update("cover_image_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save cover URL"})
	}
	return c.JSON(fiber.Map{"message": "Cover updated", "cover_image_url": url})
}
