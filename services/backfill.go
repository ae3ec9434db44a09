// services/backfill.go
package services

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bantah-points-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackfillService repairs historical ledger/transaction-log divergence.
// Both strategies are dry-run by default and idempotent; destructive writes
// run inside a single all-or-nothing transaction.
type BackfillService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewBackfillService(db *gorm.DB, ledger *LedgerService) *BackfillService {
	return &BackfillService{DB: db, Ledger: ledger}
}

// ErrNoLedger means there is nothing to reconcile against
var ErrNoLedger = errors.New("no ledger row found for user")

// earnedPointsPattern matches "earned 60 Bantah Points" / "You earned 105 Points"
var earnedPointsPattern = regexp.MustCompile(`(?i)earned\s+([\d,]+)\s*(?:Bantah\s*)?Points`)

// standaloneNumberPattern is the fallback: first standalone number, up to 6 digits
var standaloneNumberPattern = regexp.MustCompile(`([\d,]{1,6})`)

// ParseAmountFromText extracts a point amount from notification text
func ParseAmountFromText(text string) (int64, bool) {
	if text == "" {
		return 0, false
	}
	if m := earnedPointsPattern.FindStringSubmatch(text); m != nil {
		return parseCommaNumber(m[1])
	}
	if m := standaloneNumberPattern.FindStringSubmatch(text); m != nil {
		return parseCommaNumber(m[1])
	}
	return 0, false
}

func parseCommaNumber(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ReconcileReport describes what the direct reconciliation did (or would do)
type ReconcileReport struct {
	UserID        string
	LedgerBalance int64
	ExistingTxs   int64
	Prepared      *models.PointsTransaction
	Refused       bool // existing transactions and no force flag
	Applied       bool
}

// ReconcileLedger synthesizes one backfill transaction matching the current
// ledger balance for a user whose transaction log is empty, then recomputes.
// Refuses when transactions already exist unless force is set; performs no
// writes at all unless force is set (dry run).
func (s *BackfillService) ReconcileLedger(userID string, force bool) (*ReconcileReport, error) {
	var ledger models.UserPointsLedger
	if err := s.DB.Where("user_id = ?", userID).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoLedger
		}
		return nil, err
	}

	var existing int64
	if err := s.DB.Model(&models.PointsTransaction{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
		return nil, err
	}

	report := &ReconcileReport{
		UserID:        userID,
		LedgerBalance: ledger.PointsBalance,
		ExistingTxs:   existing,
	}

	if existing > 0 && !force {
		report.Refused = true
		return report, nil
	}
	if ledger.PointsBalance <= 0 {
		// zero or negative balance: nothing to backfill
		return report, nil
	}

	report.Prepared = &models.PointsTransaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		TransactionType: models.TransactionBackfill,
		Amount:          ledger.PointsBalance,
		Reason:          "Backfill created to reconcile ledger (script)",
	}

	if !force {
		return report, nil // dry run
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report.Prepared).Error; err != nil {
			return fmt.Errorf("failed to insert backfill transaction: %w", err)
		}
		if _, err := s.Ledger.RecomputeBalance(tx, userID); err != nil {
			// the insert is the repair; a failed recompute self-heals later
			log.Printf("⚠️ Warning: ledger recompute failed after backfill insert: %v", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.Applied = true
	return report, nil
}

// MinedCandidate is one point-earning event recovered from notification text
type MinedCandidate struct {
	NotificationID string
	CreatedAt      time.Time
	Amount         int64
	Reason         string
	Skipped        bool // duplicate (same amount, same calendar day)
	Inserted       bool
}

// MineReport describes a notification-mined backfill run
type MineReport struct {
	UserID        string
	Notifications int
	Candidates    []MinedCandidate
	Inserted      int
	Applied       bool
}

// MineNotifications reconstructs missing earned_challenge transactions from
// historical notification text. Candidates whose amount already appears in a
// transaction on the same calendar day are skipped individually; a skip
// never aborts the rest of the batch. Dry-run unless force.
func (s *BackfillService) MineNotifications(userID string, force bool) (*MineReport, error) {
	var notifications []models.Notification
	if err := s.DB.Where("user_id = ?", userID).Order("created_at ASC").Find(&notifications).Error; err != nil {
		return nil, err
	}

	report := &MineReport{UserID: userID, Notifications: len(notifications)}
	if len(notifications) == 0 {
		return report, nil
	}

	for _, n := range notifications {
		text := strings.TrimSpace(n.Title + " " + n.Message)
		amount, ok := ParseAmountFromText(text)
		if !ok {
			continue
		}
		reason := text
		if len(reason) > 200 {
			reason = reason[:200]
		}
		report.Candidates = append(report.Candidates, MinedCandidate{
			NotificationID: n.ID,
			CreatedAt:      n.CreatedAt,
			Amount:         amount,
			Reason:         reason,
		})
	}

	if len(report.Candidates) == 0 || !force {
		return report, nil // dry run, or nothing parsed
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range report.Candidates {
			c := &report.Candidates[i]

			dup, err := s.hasTransactionOnDay(tx, userID, c.Amount, c.CreatedAt)
			if err != nil {
				return err
			}
			if dup {
				log.Printf("Skipping existing transaction for amount %d on %s", c.Amount, c.CreatedAt.Format("2006-01-02"))
				c.Skipped = true
				continue
			}

			record := models.PointsTransaction{
				ID:              uuid.NewString(),
				UserID:          userID,
				EventType:       "challenge_creation",
				TransactionType: models.TransactionEarnedChallenge,
				Amount:          c.Amount,
				Reason:          c.Reason,
				CreatedAt:       c.CreatedAt,
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to insert mined transaction: %w", err)
			}
			c.Inserted = true
			report.Inserted++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.Ledger.RecomputeBalance(s.DB, userID); err != nil {
		log.Printf("⚠️ Warning: ledger recompute failed after mined backfill: %v", err)
	}
	report.Applied = true
	return report, nil
}

// hasTransactionOnDay checks for an existing transaction with the same
// amount on the same calendar day (portable across postgres and sqlite)
func (s *BackfillService) hasTransactionOnDay(db *gorm.DB, userID string, amount int64, at time.Time) (bool, error) {
	dayStart := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	err := db.Model(&models.PointsTransaction{}).
		Where("user_id = ? AND amount = ? AND created_at >= ? AND created_at < ?", userID, amount, dayStart, dayEnd).
		Count(&count).Error
	return count > 0, err
}
