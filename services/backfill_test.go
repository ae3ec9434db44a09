// services/backfill_test.go
package services

import (
	"testing"
	"time"

	"bantah-points-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseAmountFromText(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		amount int64
		ok     bool
	}{
		{"standard phrasing", "You earned 105 Bantah Points for creating a challenge", 105, true},
		{"no brand word", "You earned 60 Points", 60, true},
		{"comma separated", "You earned 1,500 Bantah Points", 1500, true},
		{"case insensitive", "EARNED 20 bantah points", 20, true},
		{"fallback standalone number", "Bonus of 250 awarded to your account", 250, true},
		{"zero rejected", "You earned 0 Bantah Points", 0, false},
		{"no digits", "Weekly claim processed", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, ok := ParseAmountFromText(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

func countTxs(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.PointsTransaction{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func TestReconcileLedger_NoLedgerRow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBackfillService(db, NewLedgerService(db))

	_, err := svc.ReconcileLedger(uuid.NewString(), false)
	assert.ErrorIs(t, err, ErrNoLedger)
}

func TestReconcileLedger_DryRunWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBackfillService(db, NewLedgerService(db))
	userID := uuid.NewString()

	require.NoError(t, db.Create(&models.UserPointsLedger{
		ID:            uuid.NewString(),
		UserID:        userID,
		PointsBalance: 480,
		LastUpdatedAt: time.Now(),
	}).Error)

	report, err := svc.ReconcileLedger(userID, false)
	require.NoError(t, err)

	assert.False(t, report.Refused)
	assert.False(t, report.Applied)
	require.NotNil(t, report.Prepared)
	assert.Equal(t, int64(480), report.Prepared.Amount)
	assert.Equal(t, models.TransactionBackfill, report.Prepared.TransactionType)
	assert.Equal(t, int64(0), countTxs(t, db, userID))
}

func TestReconcileLedger_RefusesWhenTransactionsExist(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBackfillService(db, NewLedgerService(db))
	userID := uuid.NewString()

	require.NoError(t, db.Create(&models.UserPointsLedger{
		ID:            uuid.NewString(),
		UserID:        userID,
		PointsBalance: 100,
		LastUpdatedAt: time.Now(),
	}).Error)
	insertTx(t, db, userID, models.TransactionEarnedChallenge, 20)

	report, err := svc.ReconcileLedger(userID, false)
	require.NoError(t, err)

	assert.True(t, report.Refused)
	assert.Nil(t, report.Prepared)
	assert.Equal(t, int64(1), countTxs(t, db, userID))
}

func TestReconcileLedger_ForceAppliesAndRecomputes(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBackfillService(db, NewLedgerService(db))
	userID := uuid.NewString()

	require.NoError(t, db.Create(&models.UserPointsLedger{
		ID:            uuid.NewString(),
		UserID:        userID,
		PointsBalance: 480,
		LastUpdatedAt: time.Now(),
	}).Error)

	report, err := svc.ReconcileLedger(userID, true)
	require.NoError(t, err)
	assert.True(t, report.Applied)

	var tx models.PointsTransaction
	require.NoError(t, db.Where("user_id = ?", userID).First(&tx).Error)
	assert.Equal(t, models.TransactionBackfill, tx.TransactionType)
	assert.Equal(t, int64(480), tx.Amount)

	// The log is authoritative after reconciliation and the backfill entry
	// is neutral, so the recomputed balance reflects the replay
	var ledger models.UserPointsLedger
	require.NoError(t, db.Where("user_id = ?", userID).First(&ledger).Error)
	assert.Equal(t, int64(0), ledger.PointsBalance)
}

func TestMineNotifications_DryRun(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBackfillService(db, NewLedgerService(db))
	userID := uuid.NewString()

	require.NoError(t, db.Create(&models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Event:     models.NotificationPointsEarned,
		Title:     "Points Earned!",
		Message:   "You earned 20 Bantah Points for creating a challenge",
		CreatedAt: time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC),
	}).Error)

	report, err := svc.MineNotifications(userID, false)
	require.NoError(t, err)

	require.Len(t, report.Candidates, 1)
	assert.Equal(t, int64(20), report.Candidates[0].Amount)
	assert.False(t, report.Applied)
	assert.Equal(t, int64(0), countTxs(t, db, userID))
}

func TestMineNotifications_ForceInsertsWithOriginalTimestamp(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBackfillService(db, NewLedgerService(db))
	userID := uuid.NewString()

	when := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Event:     models.NotificationPointsEarned,
		Title:     "Points Earned!",
		Message:   "You earned 30 Bantah Points for joining a challenge",
		CreatedAt: when,
	}).Error)

	report, err := svc.MineNotifications(userID, true)
	require.NoError(t, err)
	assert.True(t, report.Applied)
	assert.Equal(t, 1, report.Inserted)

	var tx models.PointsTransaction
	require.NoError(t, db.Where("user_id = ?", userID).First(&tx).Error)
	assert.Equal(t, models.TransactionEarnedChallenge, tx.TransactionType)
	assert.Equal(t, "challenge_creation", tx.EventType)
	assert.Equal(t, int64(30), tx.Amount)
	assert.True(t, tx.CreatedAt.Equal(when))
}

func TestMineNotifications_SkipsDuplicateOnSameDay(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBackfillService(db, NewLedgerService(db))
	userID := uuid.NewString()

	when := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	// Existing transaction with the same amount on the same calendar day
	require.NoError(t, db.Create(&models.PointsTransaction{
		ID:              uuid.NewString(),
		UserID:          userID,
		TransactionType: models.TransactionEarnedChallenge,
		Amount:          20,
		CreatedAt:       when.Add(3 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Event:     models.NotificationPointsEarned,
		Title:     "Points Earned!",
		Message:   "You earned 20 Bantah Points for creating a challenge",
		CreatedAt: when,
	}).Error)

	report, err := svc.MineNotifications(userID, true)
	require.NoError(t, err)

	require.Len(t, report.Candidates, 1)
	assert.True(t, report.Candidates[0].Skipped)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, int64(1), countTxs(t, db, userID))
}
