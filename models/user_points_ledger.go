package models

import "time"

// UserPointsLedger is the cached per-user aggregate of the transaction log.
// It is derived state, never a source of truth: the balance must always be
// re-derivable by replaying the full transaction log for the user.
// Created lazily on first transaction (or first read); never deleted.
type UserPointsLedger struct {
	ID     string `gorm:"primaryKey;type:uuid;not null" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	PointsBalance     int64 `gorm:"default:0" json:"points_balance"`
	TotalPointsEarned int64 `gorm:"default:0" json:"total_points_earned"` // earned_challenge only
	TotalPointsBurned int64 `gorm:"default:0" json:"total_points_burned"` // burned_usage only

	LastClaimedAt *time.Time `json:"last_claimed_at,omitempty"` // weekly claim window anchor
	LastUpdatedAt time.Time  `json:"last_updated_at"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
