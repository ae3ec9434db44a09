// workers/escrow_sync_worker_test.go
package workers

import (
	"testing"
	"time"

	"bantah-points-system/models"
	"bantah-points-system/services"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupEscrowTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.PointsTransaction{},
		&models.UserPointsLedger{},
		&models.Notification{},
		&models.EscrowEventMirror{},
	))
	return db
}

func newEscrowTestClient(db *gorm.DB) *EscrowSyncClient {
	ledger := services.NewLedgerService(db)
	return &EscrowSyncClient{
		DB:     db,
		Points: services.NewPointsService(db, ledger, services.NewNotificationService(db)),
	}
}

func seedMirrorEvent(t *testing.T, db *gorm.DB, userID, txHash string, kind models.EscrowEventKind, points int64) {
	t.Helper()
	require.NoError(t, db.Create(&models.EscrowEventMirror{
		ID:          uuid.NewString(),
		TxHash:      txHash,
		BlockNumber: 77,
		UserID:      userID,
		Kind:        kind,
		Points:      points,
		OccurredAt:  time.Now(),
	}).Error)
}

func TestProcessPending_ExactlyOnce(t *testing.T) {
	db := setupEscrowTestDB(t)
	client := newEscrowTestClient(db)
	userID := uuid.NewString()

	seedMirrorEvent(t, db, userID, "0xdup", models.EscrowEventLock, 60)

	// Repeated passes over the same mirror row must never append the same
	// escrow transaction twice
	require.NoError(t, client.ProcessPending())
	require.NoError(t, client.ProcessPending())

	var txCount int64
	require.NoError(t, db.Model(&models.PointsTransaction{}).
		Where("blockchain_tx_hash = ?", "0xdup").Count(&txCount).Error)
	assert.Equal(t, int64(1), txCount)

	var ev models.EscrowEventMirror
	require.NoError(t, db.Where("tx_hash = ?", "0xdup").First(&ev).Error)
	assert.True(t, ev.Processed)

	var ledger models.UserPointsLedger
	require.NoError(t, db.Where("user_id = ?", userID).First(&ledger).Error)
	assert.Equal(t, int64(-60), ledger.PointsBalance)
}

func TestProcessPending_UnknownKindMarkedProcessed(t *testing.T) {
	db := setupEscrowTestDB(t)
	client := newEscrowTestClient(db)
	userID := uuid.NewString()

	seedMirrorEvent(t, db, userID, "0xodd", models.EscrowEventKind("slash"), 10)

	require.NoError(t, client.ProcessPending())

	var ev models.EscrowEventMirror
	require.NoError(t, db.Where("tx_hash = ?", "0xodd").First(&ev).Error)
	assert.True(t, ev.Processed)

	var txCount int64
	require.NoError(t, db.Model(&models.PointsTransaction{}).
		Where("user_id = ?", userID).Count(&txCount).Error)
	assert.Equal(t, int64(0), txCount)
}
