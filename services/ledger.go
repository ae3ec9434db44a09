// services/ledger.go
package services

import (
	"log"
	"time"

	"bantah-points-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// SignedDelta applies the sign rule to one transaction. The second return
// is false when the kind is unclassified and contributes zero.
func SignedDelta(t models.TransactionType, amount int64) (int64, bool) {
	switch t {
	case models.TransactionEarnedChallenge,
		models.TransactionReleasedEscrow,
		models.TransactionTransferredEscrow,
		models.TransactionTransferredUser:
		return amount, true
	case models.TransactionBurnedUsage,
		models.TransactionLockedEscrow:
		return -amount, true
	case models.TransactionBackfill:
		// Recognized but neutral until an operator reclassifies it
		return 0, true
	default:
		// Unknown kinds contribute zero. Deliberate catch-all — callers
		// surface these via the unclassified bucket.
		return 0, false
	}
}

// RecomputeBalance replays the full transaction log for a user and upserts
// the derived ledger row. The replay is authoritative and idempotent:
// running it twice with no new transactions yields identical values, so
// check-then-act races converge on the next successful recompute.
func (s *LedgerService) RecomputeBalance(db *gorm.DB, userID string) (*models.UserPointsLedger, error) {
	var txs []models.PointsTransaction
	if err := db.Where("user_id = ?", userID).Find(&txs).Error; err != nil {
		return nil, err
	}

	var balance, totalEarned, totalBurned int64
	unclassified := map[models.TransactionType]int64{}
	for _, tx := range txs {
		delta, classified := SignedDelta(tx.TransactionType, tx.Amount)
		balance += delta
		if !classified {
			unclassified[tx.TransactionType]++
		}
		switch tx.TransactionType {
		case models.TransactionEarnedChallenge:
			totalEarned += tx.Amount
		case models.TransactionBurnedUsage:
			totalBurned += tx.Amount
		}
	}
	if len(unclassified) > 0 {
		log.Printf("⚠️ [LEDGER] user %s has unclassified transaction kinds (contributing zero): %v", userID, unclassified)
	}

	ledger := models.UserPointsLedger{
		ID:                uuid.NewString(),
		UserID:            userID,
		PointsBalance:     balance,
		TotalPointsEarned: totalEarned,
		TotalPointsBurned: totalBurned,
		LastUpdatedAt:     time.Now(),
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"points_balance",
			"total_points_earned",
			"total_points_burned",
			"last_updated_at",
		}),
	}).Create(&ledger).Error; err != nil {
		return nil, err
	}

	// Re-read: on conflict the existing row (with its original ID and
	// last_claimed_at) was updated, not the one we built above.
	var current models.UserPointsLedger
	if err := db.Where("user_id = ?", userID).First(&current).Error; err != nil {
		return nil, err
	}
	return &current, nil
}

// ListTransactions returns a user's most recent transactions, newest first
func (s *LedgerService) ListTransactions(userID string, limit int) ([]models.PointsTransaction, error) {
	var txs []models.PointsTransaction
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// GetOrCreateLedger returns the user's ledger row, creating an empty one
// lazily on first read
func (s *LedgerService) GetOrCreateLedger(userID string) (*models.UserPointsLedger, error) {
	var ledger models.UserPointsLedger
	err := s.DB.Where("user_id = ?", userID).First(&ledger).Error
	if err == nil {
		return &ledger, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	ledger = models.UserPointsLedger{
		ID:            uuid.NewString(),
		UserID:        userID,
		LastUpdatedAt: time.Now(),
	}
	if err := s.DB.Create(&ledger).Error; err != nil {
		return nil, err
	}
	return &ledger, nil
}
