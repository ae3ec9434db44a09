package models

import "time"

// TransactionType classifies how a points transaction affects the balance.
// Amounts are stored non-negative; the sign is implied by the type.
type TransactionType string

const (
	// Positive: add to balance
	TransactionEarnedChallenge   TransactionType = "earned_challenge"
	TransactionReleasedEscrow    TransactionType = "released_escrow"
	TransactionTransferredEscrow TransactionType = "transferred_escrow"
	TransactionTransferredUser   TransactionType = "transferred_user"

	// Negative: subtract from balance
	TransactionBurnedUsage  TransactionType = "burned_usage"
	TransactionLockedEscrow TransactionType = "locked_escrow"

	// Neutral: synthesized by operator tooling to reconcile a ledger
	// whose transaction log is missing rows
	TransactionBackfill TransactionType = "backfill"
)

// PointsTransaction is one append-only entry in a user's points log.
// Rows are immutable after creation — corrections are made by appending
// a new transaction, never by editing or deleting an existing one.
type PointsTransaction struct {
	ID              string          `gorm:"primaryKey;type:uuid;not null" json:"id"`
	UserID          string          `gorm:"index;not null" json:"user_id"`
	ChallengeID     *string         `gorm:"index" json:"challenge_id,omitempty"` // null for referrals, backfills, admin grants
	EventType       string          `gorm:"column:type" json:"type,omitempty"`   // legacy event label, e.g. "challenge_creation"
	TransactionType TransactionType `gorm:"index;not null" json:"transaction_type"`
	Amount          int64           `gorm:"not null" json:"amount"` // magnitude only, never negative
	Reason          string          `gorm:"type:text" json:"reason,omitempty"`

	// On-chain provenance for escrow mirror entries (optional)
	BlockchainTxHash *string `gorm:"index" json:"blockchain_tx_hash,omitempty"`
	BlockNumber      *int64  `json:"block_number,omitempty"`
	ChainID          int64   `gorm:"default:84532" json:"chain_id"`

	CreatedAt time.Time `json:"created_at" gorm:"index;autoCreateTime"`
}
