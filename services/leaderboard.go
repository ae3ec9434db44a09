// services/leaderboard.go
package services

import (
	"log"
	"sort"
	"time"

	"bantah-points-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LeaderboardService struct {
	DB            *gorm.DB
	Notifications *NotificationService
}

func NewLeaderboardService(db *gorm.DB, notifications *NotificationService) *LeaderboardService {
	return &LeaderboardService{DB: db, Notifications: notifications}
}

// LeaderboardEntry is one ranked row of the points leaderboard
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	PointsBalance int64  `json:"points_balance"`
}

// TopUsers returns the top N users by ledger balance
func (s *LeaderboardService) TopUsers(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var rows []struct {
		UserID        string
		Username      string
		PointsBalance int64
	}
	err := s.DB.Raw(`
		SELECT l.user_id, COALESCE(u.username, l.user_id) AS username, l.points_balance
		FROM user_points_ledgers l
		LEFT JOIN platform_users u ON u.external_user_id = l.user_id
		ORDER BY l.points_balance DESC, l.user_id ASC
		LIMIT ?
	`, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = LeaderboardEntry{
			Rank:          i + 1,
			UserID:        r.UserID,
			Username:      r.Username,
			PointsBalance: r.PointsBalance,
		}
	}
	return entries, nil
}

// rankOf returns a user's 1-based rank, or 0 when unranked
func rankOf(entries []LeaderboardEntry, userID string) int {
	for _, e := range entries {
		if e.UserID == userID {
			return e.Rank
		}
	}
	return 0
}

// rankAsOf replays every user's transaction log up to cutoff and ranks the
// resulting balances. Same sign rule as the live recompute.
func (s *LeaderboardService) rankAsOf(cutoff time.Time, limit int) (map[string]int, error) {
	var txs []models.PointsTransaction
	if err := s.DB.Where("created_at < ?", cutoff).Find(&txs).Error; err != nil {
		return nil, err
	}

	balances := map[string]int64{}
	for _, tx := range txs {
		delta, _ := SignedDelta(tx.TransactionType, tx.Amount)
		balances[tx.UserID] += delta
	}

	type pair struct {
		userID  string
		balance int64
	}
	ordered := make([]pair, 0, len(balances))
	for id, b := range balances {
		ordered = append(ordered, pair{id, b})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].balance != ordered[j].balance {
			return ordered[i].balance > ordered[j].balance
		}
		return ordered[i].userID < ordered[j].userID
	})

	ranks := map[string]int{}
	for i, p := range ordered {
		if i >= limit {
			break
		}
		ranks[p.userID] = i + 1
	}
	return ranks, nil
}

// NotifyWeeklyRankChanges compares the current leaderboard against last
// week's (replayed from the log) and notifies users whose rank moved.
// Run from the weekly scheduler.
func (s *LeaderboardService) NotifyWeeklyRankChanges() {
	const window = 50

	current, err := s.TopUsers(window)
	if err != nil {
		log.Printf("[Scheduler] leaderboard query failed: %v", err)
		return
	}
	previous, err := s.rankAsOf(startOfWeek(time.Now()), window)
	if err != nil {
		log.Printf("[Scheduler] leaderboard replay failed: %v", err)
		return
	}

	notified := 0
	for _, entry := range current {
		oldRank, ranked := previous[entry.UserID]
		if !ranked || oldRank == entry.Rank {
			continue
		}
		s.Notifications.NotifyLeaderboardRankChange(entry.UserID, oldRank, entry.Rank)
		notified++
	}
	log.Printf("✅ Weekly leaderboard pass: %d rank-change notification(s)", notified)
}

// --- Handlers ---

// GetLeaderboard returns the top of the points leaderboard
func (s *LeaderboardService) GetLeaderboard(c *fiber.Ctx) error {
	entries, err := s.TopUsers(c.QueryInt("limit", 50))
	if err != nil {
		log.Printf("DB Error fetching leaderboard: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch leaderboard"})
	}
	return c.JSON(entries)
}

// GetLeaderboardAroundMe returns entries within ±5 ranks of the user
func (s *LeaderboardService) GetLeaderboardAroundMe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	entries, err := s.TopUsers(100)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch leaderboard"})
	}

	rank := rankOf(entries, userID)
	if rank == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not on leaderboard"})
	}

	lower := rank - 5
	if lower < 1 {
		lower = 1
	}
	upper := rank + 5
	var window []LeaderboardEntry
	for _, e := range entries {
		if e.Rank >= lower && e.Rank <= upper {
			window = append(window, e)
		}
	}
	return c.JSON(window)
}
