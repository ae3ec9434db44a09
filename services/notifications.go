// services/notifications.go
package services

import (
	"fmt"
	"log"
	"time"

	"bantah-points-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

func (s *NotificationService) Create(userID string, challengeID *string, event models.NotificationEvent, title, msg string) error {
	n := models.Notification{
		ID:          uuid.NewString(),
		UserID:      userID,
		ChallengeID: challengeID,
		Event:       event,
		Title:       title,
		Message:     msg,
	}
	return s.DB.Create(&n).Error
}

// NotifyPointsEarned records a points-earned notification. The message keeps
// the "You earned <N> Bantah Points" phrasing that the notification-mined
// backfill parses.
func (s *NotificationService) NotifyPointsEarned(userID string, challengeID *string, points int64, activity string) {
	msg := fmt.Sprintf("You earned %d Bantah Points for %s", points, activity)
	if err := s.Create(userID, challengeID, models.NotificationPointsEarned, "🎉 Points Earned!", msg); err != nil {
		log.Printf("⚠️ [NOTIFY] failed to create points-earned notification for %s: %v", userID, err)
	}
}

func (s *NotificationService) NotifyPointsClaimed(userID string, balance int64, nextClaimAt time.Time) {
	msg := fmt.Sprintf("Your weekly claim is in. Current balance: %s. Next claim window opens %s.",
		FormatPoints(balance), nextClaimAt.Format("Mon Jan 2"))
	if err := s.Create(userID, nil, models.NotificationPointsClaimed, "✅ Points Claimed", msg); err != nil {
		log.Printf("⚠️ [NOTIFY] failed to create claim notification for %s: %v", userID, err)
	}
}

func (s *NotificationService) NotifyReferralBonus(userID, referredUserName string, points int64) {
	msg := fmt.Sprintf("%s joined using your referral! You earned %d Bantah Points", referredUserName, points)
	if err := s.Create(userID, nil, models.NotificationReferralBonus, "🎉 Referral Success!", msg); err != nil {
		log.Printf("⚠️ [NOTIFY] failed to create referral notification for %s: %v", userID, err)
	}
}

func (s *NotificationService) NotifyLeaderboardRankChange(userID string, oldRank, newRank int) {
	msg := fmt.Sprintf("Your leaderboard rank changed from #%d to #%d", oldRank, newRank)
	if err := s.Create(userID, nil, models.NotificationLeaderboardRank, "🏅 Leaderboard Rank Updated!", msg); err != nil {
		log.Printf("⚠️ [NOTIFY] failed to create rank notification for %s: %v", userID, err)
	}
}

func (s *NotificationService) NotifyTrendingWinStreak(userID string, streakCount int) {
	msg := fmt.Sprintf("You are on a %d-win streak! Keep it up and climb the leaderboard.", streakCount)
	if err := s.Create(userID, nil, models.NotificationWinStreak, "🔥 You are Trending!", msg); err != nil {
		log.Printf("⚠️ [NOTIFY] failed to create streak notification for %s: %v", userID, err)
	}
}

// --- User Handlers ---

// GetUserNotifications lists notifications for the authenticated user, newest first
func (s *NotificationService) GetUserNotifications(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := s.DB.Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		log.Printf("DB Error fetching notifications: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}

	return c.JSON(notifications)
}

// MarkAllNotificationsRead marks every unread notification as read (idempotent)
func (s *NotificationService) MarkAllNotificationsRead(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	result := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if result.Error != nil {
		log.Printf("Bulk mark read failed: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}

	return c.JSON(fiber.Map{
		"message":      "OK",
		"marked_count": result.RowsAffected,
	})
}
