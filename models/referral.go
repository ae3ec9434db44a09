package models

import "time"

// Referral tracks a referral and its one-time symmetric points bonus
type Referral struct {
	ID         string `gorm:"primaryKey;type:uuid;not null" json:"id"`
	ReferrerID string `gorm:"index;not null" json:"referrer_id"`       // ExternalUserID
	ReferredID string `gorm:"uniqueIndex;not null" json:"referred_id"` // ExternalUserID

	ReferralCodeUsed string     `gorm:"not null" json:"referral_code_used"`
	PointsEarned     int64      `json:"points_earned" gorm:"default:0"` // per side
	BonusAwarded     bool       `json:"bonus_awarded" gorm:"default:false"`
	AwardedAt        *time.Time `json:"awarded_at,omitempty"`

	Timestamps
}
