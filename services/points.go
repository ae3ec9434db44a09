// services/points.go
package services

import (
	"fmt"
	"log"

	"bantah-points-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PointsService appends transactions to the points log and keeps the
// derived ledger fresh. The log is the source of truth: every mutation is
// an append followed by a full-replay recompute.
type PointsService struct {
	DB            *gorm.DB
	Ledger        *LedgerService
	Notifications *NotificationService
}

func NewPointsService(db *gorm.DB, ledger *LedgerService, notifications *NotificationService) *PointsService {
	return &PointsService{DB: db, Ledger: ledger, Notifications: notifications}
}

// AppendTransaction inserts one immutable transaction and recomputes the
// ledger. A recompute failure is logged and tolerated — the insert is never
// rolled back for it; the ledger self-heals on the next recompute.
func (s *PointsService) AppendTransaction(tx models.PointsTransaction) (*models.PointsTransaction, error) {
	if tx.Amount < 0 {
		return nil, fmt.Errorf("transaction amount must be non-negative, got %d", tx.Amount)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := s.DB.Create(&tx).Error; err != nil {
		return nil, fmt.Errorf("failed to append points transaction: %w", err)
	}

	if _, err := s.Ledger.RecomputeBalance(s.DB, tx.UserID); err != nil {
		log.Printf("⚠️ [POINTS] ledger recompute failed for %s after tx %s (will self-heal on next recompute): %v",
			tx.UserID, tx.ID, err)
	}
	return &tx, nil
}

// AwardCreationPoints awards the fixed creation amount for a new challenge
func (s *PointsService) AwardCreationPoints(userID, challengeID string) (int64, error) {
	points := CalculateCreationPoints()
	_, err := s.AppendTransaction(models.PointsTransaction{
		UserID:          userID,
		ChallengeID:     &challengeID,
		EventType:       "challenge_creation",
		TransactionType: models.TransactionEarnedChallenge,
		Amount:          points,
		Reason:          "Created a challenge",
	})
	if err != nil {
		return 0, err
	}
	s.Notifications.NotifyPointsEarned(userID, &challengeID, points, "creating a challenge")
	return points, nil
}

// AwardParticipationPoints awards the fixed participation amount.
// activity is e.g. "joining a challenge" or "winning a challenge".
func (s *PointsService) AwardParticipationPoints(userID, challengeID, activity string) (int64, error) {
	points := CalculateParticipationPoints()
	_, err := s.AppendTransaction(models.PointsTransaction{
		UserID:          userID,
		ChallengeID:     &challengeID,
		EventType:       "challenge_participation",
		TransactionType: models.TransactionEarnedChallenge,
		Amount:          points,
		Reason:          fmt.Sprintf("Participation: %s", activity),
	})
	if err != nil {
		return 0, err
	}
	s.Notifications.NotifyPointsEarned(userID, &challengeID, points, activity)
	return points, nil
}

// AwardReferralPoints grants the symmetric referral bonus: two separate
// transactions, one per side. Referral grants are user transfers, not
// challenge earnings, so they ride the transferred_user kind.
func (s *PointsService) AwardReferralPoints(referrerID, referredID string) (int64, error) {
	points := CalculateReferralPoints()
	for _, userID := range []string{referrerID, referredID} {
		_, err := s.AppendTransaction(models.PointsTransaction{
			UserID:          userID,
			EventType:       "referral",
			TransactionType: models.TransactionTransferredUser,
			Amount:          points,
			Reason:          fmt.Sprintf("Referral bonus (%s referred %s)", referrerID, referredID),
		})
		if err != nil {
			return 0, err
		}
	}
	return points, nil
}

// ApplyEscrowEvent converts a mirrored escrow event into its points
// transaction and marks the mirror row processed in one transaction. The
// two writes must be atomic: a crash between a committed append and the
// processed mark would replay the event next tick and double-count the
// stake in the replay. The ledger recompute stays warn-only.
func (s *PointsService) ApplyEscrowEvent(ev models.EscrowEventMirror) error {
	var kind models.TransactionType
	var reason string
	switch ev.Kind {
	case models.EscrowEventLock:
		kind = models.TransactionLockedEscrow
		reason = "Stake locked in escrow"
	case models.EscrowEventRelease:
		kind = models.TransactionReleasedEscrow
		reason = "Stake released from escrow"
	default:
		return fmt.Errorf("unknown escrow event kind %q", ev.Kind)
	}
	if ev.Points < 0 {
		return fmt.Errorf("transaction amount must be non-negative, got %d", ev.Points)
	}

	record := models.PointsTransaction{
		ID:               uuid.NewString(),
		UserID:           ev.UserID,
		ChallengeID:      ev.ChallengeID,
		EventType:        "escrow_" + string(ev.Kind),
		TransactionType:  kind,
		Amount:           ev.Points,
		Reason:           reason,
		BlockchainTxHash: &ev.TxHash,
		BlockNumber:      &ev.BlockNumber,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to append escrow transaction: %w", err)
		}
		return tx.Model(&models.EscrowEventMirror{}).
			Where("id = ?", ev.ID).
			Update("processed", true).Error
	})
	if err != nil {
		return err
	}

	if _, err := s.Ledger.RecomputeBalance(s.DB, ev.UserID); err != nil {
		log.Printf("⚠️ [POINTS] ledger recompute failed for %s after escrow tx %s (will self-heal on next recompute): %v",
			ev.UserID, record.ID, err)
	}
	return nil
}

// GrantPoints is the admin grant path (transferred_user)
func (s *PointsService) GrantPoints(userID string, amount int64, reason string) error {
	_, err := s.AppendTransaction(models.PointsTransaction{
		UserID:          userID,
		EventType:       "admin_grant",
		TransactionType: models.TransactionTransferredUser,
		Amount:          amount,
		Reason:          reason,
	})
	if err != nil {
		return err
	}
	s.Notifications.NotifyPointsEarned(userID, nil, amount, "an admin grant")
	return nil
}

// BurnPoints records points spent on platform usage
func (s *PointsService) BurnPoints(userID string, amount int64, reason string) error {
	_, err := s.AppendTransaction(models.PointsTransaction{
		UserID:          userID,
		EventType:       "usage",
		TransactionType: models.TransactionBurnedUsage,
		Amount:          amount,
		Reason:          reason,
	})
	return err
}
