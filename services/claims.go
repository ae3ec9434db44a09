// services/claims.go
package services

import (
	"errors"
	"time"

	"bantah-points-system/models"

	"gorm.io/gorm"
)

// ErrClaimWindowClosed is returned when the user already claimed this week
var ErrClaimWindowClosed = errors.New("points already claimed this week")

type ClaimService struct {
	DB            *gorm.DB
	Ledger        *LedgerService
	Notifications *NotificationService
}

func NewClaimService(db *gorm.DB, ledger *LedgerService, notifications *NotificationService) *ClaimService {
	return &ClaimService{DB: db, Ledger: ledger, Notifications: notifications}
}

// ClaimResult is returned from a successful (or gated) weekly claim
type ClaimResult struct {
	PointsBalance int64     `json:"points_balance"`
	ClaimedAt     time.Time `json:"claimed_at"`
	NextClaimAt   time.Time `json:"next_claim_at"`
}

// ClaimWeeklyPoints stamps the user's weekly claim if the window is open.
// Two concurrent claims can both pass the gate before either commits; that
// check-then-act race is tolerated — the stamp is idempotent within a week
// and the ledger balance itself only moves through the transaction log.
func (s *ClaimService) ClaimWeeklyPoints(userID string) (*ClaimResult, error) {
	ledger, err := s.Ledger.GetOrCreateLedger(userID)
	if err != nil {
		return nil, err
	}

	if !CanClaimPoints(ledger.LastClaimedAt) {
		return &ClaimResult{
			PointsBalance: ledger.PointsBalance,
			NextClaimAt:   NextClaimTime(ledger.LastClaimedAt),
		}, ErrClaimWindowClosed
	}

	now := time.Now()
	if err := s.DB.Model(&models.UserPointsLedger{}).
		Where("user_id = ?", userID).
		Update("last_claimed_at", now).Error; err != nil {
		return nil, err
	}

	next := NextClaimTime(&now)
	s.Notifications.NotifyPointsClaimed(userID, ledger.PointsBalance, next)

	return &ClaimResult{
		PointsBalance: ledger.PointsBalance,
		ClaimedAt:     now,
		NextClaimAt:   next,
	}, nil
}

// ClaimStatus reports the current gate without mutating anything
func (s *ClaimService) ClaimStatus(userID string) (bool, time.Time, error) {
	ledger, err := s.Ledger.GetOrCreateLedger(userID)
	if err != nil {
		return false, time.Time{}, err
	}
	return CanClaimPoints(ledger.LastClaimedAt), NextClaimTime(ledger.LastClaimedAt), nil
}
