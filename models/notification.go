package models

import "time"

// NotificationEvent identifies what produced a notification
type NotificationEvent string

const (
	NotificationPointsEarned     NotificationEvent = "points_earned"
	NotificationPointsClaimed    NotificationEvent = "points_claimed"
	NotificationReferralBonus    NotificationEvent = "referral_bonus"
	NotificationLeaderboardRank  NotificationEvent = "leaderboard_rank_change"
	NotificationWinStreak        NotificationEvent = "achievement_unlocked"
	NotificationChallengeUpdate  NotificationEvent = "challenge_update"
)

// Notification is an in-app message persisted for a user. Historical
// notification text is also the substrate the notification-mined backfill
// parses for implied point-earning events, so point-earning bodies keep
// the "You earned <N> Bantah Points" phrasing.
type Notification struct {
	ID          string            `gorm:"primaryKey;type:uuid;not null" json:"id"`
	UserID      string            `gorm:"index;not null" json:"user_id"`
	ChallengeID *string           `gorm:"index" json:"challenge_id,omitempty"`
	Event       NotificationEvent `gorm:"column:type;index;not null" json:"type"`
	Title       string            `gorm:"not null" json:"title"`
	Message     string            `gorm:"type:text" json:"message"`
	Read        bool              `gorm:"default:false;index" json:"read"`
	CreatedAt   time.Time         `json:"created_at" gorm:"index;autoCreateTime"`
}
