// services/challenges_test.go
package services

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bantah-points-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newChallengeService(db *gorm.DB) *ChallengeService {
	return NewChallengeService(db, newPointsService(db))
}

func seedResolvedChallenge(t *testing.T, db *gorm.DB, participantID string, winnerID *string, resolvedAt time.Time) {
	t.Helper()
	ch := models.Challenge{
		ID:         uuid.NewString(),
		CreatorID:  uuid.NewString(),
		Title:      "settled",
		Slug:       "settled-" + uuid.NewString(),
		Type:       models.ChallengeTypeOpen,
		Status:     models.ChallengeStatusCompleted,
		WinnerID:   winnerID,
		ResolvedAt: &resolvedAt,
	}
	require.NoError(t, db.Create(&ch).Error)
	require.NoError(t, db.Create(&models.ChallengeParticipant{
		ID:          uuid.NewString(),
		ChallengeID: ch.ID,
		UserID:      participantID,
	}).Error)
}

func TestCurrentWinStreak(t *testing.T) {
	db := setupTestDB(t)
	svc := newChallengeService(db)
	userID := uuid.NewString()
	other := uuid.NewString()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Oldest first: win, loss, win, win — the leading streak is 2
	seedResolvedChallenge(t, db, userID, &userID, base)
	seedResolvedChallenge(t, db, userID, &other, base.Add(1*time.Hour))
	seedResolvedChallenge(t, db, userID, &userID, base.Add(2*time.Hour))
	seedResolvedChallenge(t, db, userID, &userID, base.Add(3*time.Hour))

	assert.Equal(t, 2, svc.currentWinStreak(userID))
	assert.Equal(t, 0, svc.currentWinStreak(other))
}

func TestResolveChallenge_NotifiesWinStreak(t *testing.T) {
	db := setupTestDB(t)
	svc := newChallengeService(db)
	winnerID := uuid.NewString()

	base := time.Now().Add(-48 * time.Hour)
	seedResolvedChallenge(t, db, winnerID, &winnerID, base)
	seedResolvedChallenge(t, db, winnerID, &winnerID, base.Add(time.Hour))

	ch := models.Challenge{
		ID:        uuid.NewString(),
		CreatorID: uuid.NewString(),
		Title:     "rubber match",
		Slug:      "rubber-match",
		Type:      models.ChallengeTypeOpen,
		Status:    models.ChallengeStatusActive,
	}
	require.NoError(t, db.Create(&ch).Error)
	require.NoError(t, db.Create(&models.ChallengeParticipant{
		ID:          uuid.NewString(),
		ChallengeID: ch.ID,
		UserID:      winnerID,
	}).Error)

	app := fiber.New()
	app.Post("/challenges/:id/resolve", svc.ResolveChallenge)

	req := httptest.NewRequest("POST", "/challenges/"+ch.ID+"/resolve",
		strings.NewReader(`{"winner_id":"`+winnerID+`"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var resolved models.Challenge
	require.NoError(t, db.First(&resolved, "id = ?", ch.ID).Error)
	assert.Equal(t, models.ChallengeStatusCompleted, resolved.Status)

	// Third consecutive win crosses the trending threshold
	var n models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", winnerID, models.NotificationWinStreak).First(&n).Error)
	assert.Contains(t, n.Message, "3-win streak")
}

func TestResolveChallenge_WinnerMustParticipate(t *testing.T) {
	db := setupTestDB(t)
	svc := newChallengeService(db)

	ch := models.Challenge{
		ID:        uuid.NewString(),
		CreatorID: uuid.NewString(),
		Title:     "no ringers",
		Slug:      "no-ringers",
		Type:      models.ChallengeTypeOpen,
		Status:    models.ChallengeStatusActive,
	}
	require.NoError(t, db.Create(&ch).Error)

	app := fiber.New()
	app.Post("/challenges/:id/resolve", svc.ResolveChallenge)

	req := httptest.NewRequest("POST", "/challenges/"+ch.ID+"/resolve",
		strings.NewReader(`{"winner_id":"`+uuid.NewString()+`"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
