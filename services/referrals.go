// services/referrals.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"bantah-points-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReferralService struct {
	DB            *gorm.DB
	Points        *PointsService
	Notifications *NotificationService
}

func NewReferralService(db *gorm.DB, points *PointsService, notifications *NotificationService) *ReferralService {
	return &ReferralService{DB: db, Points: points, Notifications: notifications}
}

// RegisterReferral records that a new user signed up with a referral code.
// The bonus is awarded separately via ProcessReferralAward.
func (s *ReferralService) RegisterReferral(referralCode, referredID string) (*models.Referral, error) {
	var referrer models.PlatformUser
	if err := s.DB.Where("referral_code = ?", referralCode).First(&referrer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("unknown referral code %q", referralCode)
		}
		return nil, err
	}
	if referrer.ExternalUserID == referredID {
		return nil, errors.New("users cannot refer themselves")
	}

	r := models.Referral{
		ID:               uuid.NewString(),
		ReferrerID:       referrer.ExternalUserID,
		ReferredID:       referredID,
		ReferralCodeUsed: referralCode,
	}
	if err := s.DB.Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ProcessReferralAward awards the one-time symmetric bonus for a referral.
// Idempotent: a referral whose bonus was already awarded is a no-op.
func (s *ReferralService) ProcessReferralAward(referralID string) error {
	var r models.Referral
	var awardedNow bool
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", referralID).First(&r).Error; err != nil {
			return err
		}
		if r.BonusAwarded {
			return nil // already processed
		}

		now := time.Now()
		r.BonusAwarded = true
		r.AwardedAt = &now
		r.PointsEarned = CalculateReferralPoints()
		awardedNow = true
		return tx.Save(&r).Error
	})
	if err != nil {
		return err
	}
	if !awardedNow {
		return nil
	}
	// The award rides the append-only log; the marker row above is what
	// makes reprocessing safe.
	points, err := s.Points.AwardReferralPoints(r.ReferrerID, r.ReferredID)
	if err != nil {
		return err
	}

	var referred models.PlatformUser
	referredName := r.ReferredID
	if err := s.DB.Where("external_user_id = ?", r.ReferredID).First(&referred).Error; err == nil {
		referredName = referred.Username
	}
	s.Notifications.NotifyReferralBonus(r.ReferrerID, referredName, points)

	log.Printf("✅ Referral bonus awarded: %s ↔ %s (%d pts each)", r.ReferrerID, r.ReferredID, points)
	return nil
}

// --- Handlers ---

// CreateReferral registers a referral and immediately processes its award
func (s *ReferralService) CreateReferral(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		ReferralCode string `json:"referral_code" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ReferralCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "referral_code is required"})
	}

	r, err := s.RegisterReferral(req.ReferralCode, userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to register referral", "cause": err.Error()})
	}

	if err := s.ProcessReferralAward(r.ID); err != nil {
		log.Printf("⚠️ Referral award failed for %s: %v", r.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Referral recorded but award failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(r)
}

// GetUserReferrals lists referrals made by the authenticated user
func (s *ReferralService) GetUserReferrals(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var referrals []models.Referral
	if err := s.DB.Where("referrer_id = ?", userID).Order("created_at DESC").Find(&referrals).Error; err != nil {
		log.Printf("DB Error fetching referrals: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch referrals"})
	}
	return c.JSON(referrals)
}
