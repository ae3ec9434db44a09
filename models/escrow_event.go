// models/escrow_event.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowEventKind is the on-chain event type reported by the indexer
type EscrowEventKind string

const (
	EscrowEventLock    EscrowEventKind = "lock"
	EscrowEventRelease EscrowEventKind = "release"
)

// EscrowEventMirror mirrors stake lock/release events from the chain
// indexer service. TxHash is the dedup key: an event is converted into a
// points transaction exactly once, tracked by Processed.
type EscrowEventMirror struct {
	ID          string          `gorm:"primaryKey;type:uuid;not null" json:"id"`
	TxHash      string          `gorm:"type:varchar(128);not null;uniqueIndex" json:"tx_hash"`
	BlockNumber int64           `gorm:"not null" json:"block_number"`
	ChainID     int64           `gorm:"not null;default:84532" json:"chain_id"`
	UserID      string          `gorm:"index;not null" json:"user_id"` // external user ID
	ChallengeID *string         `gorm:"index" json:"challenge_id,omitempty"`
	Kind        EscrowEventKind `gorm:"type:varchar(16);not null" json:"kind"`
	AmountUSD   decimal.Decimal `gorm:"type:numeric(18,6)" json:"amount_usd"`
	Points      int64           `gorm:"not null" json:"points"` // point magnitude mirrored into the ledger
	Processed   bool            `gorm:"not null;default:false;index" json:"processed"`
	OccurredAt  time.Time       `gorm:"not null" json:"occurred_at"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}
