// services/claims_test.go
package services

import (
	"testing"
	"time"

	"bantah-points-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimWeeklyPoints_FirstClaim(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClaimService(db, NewLedgerService(db), NewNotificationService(db))
	userID := uuid.NewString()

	result, err := svc.ClaimWeeklyPoints(userID)
	require.NoError(t, err)
	assert.False(t, result.ClaimedAt.IsZero())
	assert.True(t, result.NextClaimAt.After(result.ClaimedAt))

	var ledger models.UserPointsLedger
	require.NoError(t, db.Where("user_id = ?", userID).First(&ledger).Error)
	require.NotNil(t, ledger.LastClaimedAt)

	// Claiming stamps the window; the balance only moves through transactions
	assert.Equal(t, int64(0), ledger.PointsBalance)

	var n models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", userID, models.NotificationPointsClaimed).First(&n).Error)
}

func TestClaimWeeklyPoints_SecondClaimSameWeekGated(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClaimService(db, NewLedgerService(db), NewNotificationService(db))
	userID := uuid.NewString()

	_, err := svc.ClaimWeeklyPoints(userID)
	require.NoError(t, err)

	result, err := svc.ClaimWeeklyPoints(userID)
	assert.ErrorIs(t, err, ErrClaimWindowClosed)
	require.NotNil(t, result)
	assert.False(t, result.NextClaimAt.IsZero())
}

func TestClaimWeeklyPoints_ReopensAfterWeekBoundary(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClaimService(db, NewLedgerService(db), NewNotificationService(db))
	userID := uuid.NewString()

	// Last claim two weeks ago is before the current week's Sunday anchor
	old := time.Now().AddDate(0, 0, -14)
	require.NoError(t, db.Create(&models.UserPointsLedger{
		ID:            uuid.NewString(),
		UserID:        userID,
		LastClaimedAt: &old,
		LastUpdatedAt: old,
	}).Error)

	result, err := svc.ClaimWeeklyPoints(userID)
	require.NoError(t, err)
	assert.False(t, result.ClaimedAt.IsZero())
}

func TestClaimStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClaimService(db, NewLedgerService(db), NewNotificationService(db))
	userID := uuid.NewString()

	canClaim, next, err := svc.ClaimStatus(userID)
	require.NoError(t, err)
	assert.True(t, canClaim)
	assert.False(t, next.IsZero())

	// Status checks never stamp the claim
	var ledger models.UserPointsLedger
	require.NoError(t, db.Where("user_id = ?", userID).First(&ledger).Error)
	assert.Nil(t, ledger.LastClaimedAt)
}
