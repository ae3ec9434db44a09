package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ChallengeType indicates how a challenge is matched
type ChallengeType string

const (
	ChallengeTypeDirect ChallengeType = "direct" // 1v1 against a named opponent
	ChallengeTypeOpen   ChallengeType = "open"   // open P2P, first taker accepts
	ChallengeTypeGroup  ChallengeType = "group"  // group betting pool
)

// ChallengeStatus is the lifecycle state of a challenge
type ChallengeStatus string

const (
	ChallengeStatusOpen      ChallengeStatus = "open"
	ChallengeStatusActive    ChallengeStatus = "active"
	ChallengeStatusCompleted ChallengeStatus = "completed"
	ChallengeStatusExpired   ChallengeStatus = "expired"
	ChallengeStatusDisputed  ChallengeStatus = "disputed"
)

// Challenge is a staked wager between users. Stakes are held in an
// on-chain USDC escrow owned by an external contract system; this service
// only mirrors lock/release events into the points ledger.
type Challenge struct {
	ID          string          `gorm:"primaryKey;type:uuid;not null" json:"id"`
	CreatorID   string          `gorm:"index;not null" json:"creator_id"`
	OpponentID  *string         `gorm:"index" json:"opponent_id,omitempty"` // direct challenges only
	Title       string          `gorm:"not null" json:"title"`
	Slug        string          `gorm:"uniqueIndex;not null" json:"slug"` // shareable link key
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Type        ChallengeType   `gorm:"not null" json:"type"`
	Status      ChallengeStatus `gorm:"index;not null;default:'open'" json:"status"`

	StakeAmountUSD decimal.Decimal `gorm:"type:numeric(18,6)" json:"stake_amount_usd"`
	EscrowAddress  string          `gorm:"type:varchar(64)" json:"escrow_address,omitempty"`
	CoverImageURL  string          `gorm:"type:text" json:"cover_image_url,omitempty"`

	DueDate    *time.Time `gorm:"index" json:"due_date,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	WinnerID   *string    `json:"winner_id,omitempty"`

	Participants []ChallengeParticipant `gorm:"foreignKey:ChallengeID" json:"participants,omitempty"`

	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ChallengeParticipant links a user to a challenge with their staked side
type ChallengeParticipant struct {
	ID          string          `gorm:"primaryKey;type:uuid;not null" json:"id"`
	ChallengeID string          `gorm:"index;not null" json:"challenge_id"`
	UserID      string          `gorm:"index;not null" json:"user_id"`
	Side        string          `gorm:"type:varchar(32)" json:"side,omitempty"` // e.g. "yes"/"no" for group pools
	StakeUSD    decimal.Decimal `gorm:"type:numeric(18,6)" json:"stake_usd"`
	StakeLocked bool            `gorm:"default:false" json:"stake_locked"`
	JoinedAt    time.Time       `json:"joined_at" gorm:"autoCreateTime"`
}
