// services/points_calculator.go
package services

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Fixed point awards. Awards are pure constants — the old variable-reward
// scaling by challenge amount is gone.
const (
	CreationPoints      int64 = 20
	ParticipationPoints int64 = 30
	ReferralPoints      int64 = 30

	// MaxSingleAward caps any single award
	MaxSingleAward int64 = 500
)

// CalculateCreationPoints returns the award for creating a challenge
func CalculateCreationPoints() int64 {
	return capAward(CreationPoints)
}

// CalculateParticipationPoints returns the award for joining or winning a challenge
func CalculateParticipationPoints() int64 {
	return capAward(ParticipationPoints)
}

// CalculateReferralPoints returns the per-side award for a successful referral.
// Referrer and referred party each get this amount, as two separate transactions.
func CalculateReferralPoints() int64 {
	return ReferralPoints
}

func capAward(points int64) int64 {
	if points > MaxSingleAward {
		return MaxSingleAward
	}
	return points
}

// CanClaimPoints reports whether a user may claim accumulated points.
// Claims are gated to once per calendar week, anchored to Sunday 00:00
// local server time.
func CanClaimPoints(lastClaimedAt *time.Time) bool {
	return canClaimPointsAt(lastClaimedAt, time.Now())
}

func canClaimPointsAt(lastClaimedAt *time.Time, now time.Time) bool {
	if lastClaimedAt == nil {
		// First time claiming
		return true
	}
	return lastClaimedAt.Before(startOfWeek(now))
}

// NextClaimTime returns when the user's claim window next opens.
// Never claimed: the upcoming Sunday 00:00 — a full 7 days out when today
// is already Sunday (claim once per completed week). Otherwise exactly
// 7 days after the last claim, truncated to midnight.
func NextClaimTime(lastClaimedAt *time.Time) time.Time {
	return nextClaimTimeAt(lastClaimedAt, time.Now())
}

func nextClaimTimeAt(lastClaimedAt *time.Time, now time.Time) time.Time {
	if lastClaimedAt == nil {
		daysUntilSunday := 7 - int(now.Weekday())
		return truncateToMidnight(now.AddDate(0, 0, daysUntilSunday))
	}
	return truncateToMidnight(lastClaimedAt.AddDate(0, 0, 7))
}

// startOfWeek returns the most recent Sunday at 00:00 (Sunday = 0)
func startOfWeek(now time.Time) time.Time {
	return truncateToMidnight(now.AddDate(0, 0, -int(now.Weekday())))
}

func truncateToMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

var pointsPrinter = message.NewPrinter(language.English)

// FormatPoints renders a points amount for display, e.g. "1,500 BPTS"
func FormatPoints(points int64) string {
	return pointsPrinter.Sprintf("%d BPTS", points)
}
