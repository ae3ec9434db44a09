package models

import (
	"time"

	"gorm.io/gorm"
)

// PlatformUser is a local snapshot of user data needed for points and
// challenge flows. Owned solely by the points service; populated via the
// profile sync worker from the Profile Service.
type PlatformUser struct {
	ID                string  `gorm:"primaryKey;type:uuid;not null" json:"id"`
	ExternalUserID    string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // the profile service's ID (e.g. "did:privy:...")
	Username          string  `gorm:"index;not null" json:"username"`
	Email             string  `json:"email,omitempty"`
	FirstName         *string `json:"first_name,omitempty"`
	LastName          *string `json:"last_name,omitempty"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
	ReferralCode      string  `gorm:"index" json:"referral_code,omitempty"`
	WalletAddress     *string `gorm:"index" json:"wallet_address,omitempty"`
	IsAdmin           bool    `gorm:"default:false" json:"is_admin"`
	IsBanned          bool    `gorm:"default:false" json:"is_banned"` // local wagering ban

	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
