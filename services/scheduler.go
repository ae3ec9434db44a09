// services/scheduler.go
package services

import (
	"log"
	"time"

	"bantah-points-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartSchedulers runs the background jobs: per-minute challenge expiry
// and the weekly leaderboard rank-change pass (Sunday 00:00, matching the
// claim window anchor).
func StartSchedulers(challenges *ChallengeService, leaderboard *LeaderboardService) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: expire overdue open challenges
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var overdue []models.Challenge
			now := time.Now()
			err := challenges.DB.Where("status = ? AND due_date IS NOT NULL AND due_date <= ?", models.ChallengeStatusOpen, now).
				Find(&overdue).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, ch := range overdue {
				ch.Status = models.ChallengeStatusExpired
				if err := challenges.DB.Save(&ch).Error; err != nil {
					log.Printf("[Scheduler] Failed to expire challenge %s: %v", ch.ID, err)
				} else {
					log.Printf("✅ Auto-expired challenge: %s", ch.Title)
				}
			}
		}),
	)

	// Sunday 00:00: leaderboard rank-change notifications
	_, _ = sched.NewJob(
		gocron.CronJob("0 0 * * 0", false),
		gocron.NewTask(leaderboard.NotifyWeeklyRankChanges),
	)
}
