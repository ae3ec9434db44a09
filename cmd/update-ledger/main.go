// cmd/update-ledger/main.go
//
// Recomputes derived ledger rows from the authoritative transaction log,
// for one user or for every user that has transactions. Safe to run
// repeatedly; the replay is idempotent.
//
// Exit codes: 0 success, 1 database failure, 2 missing input.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"bantah-points-system/models"
	"bantah-points-system/services"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	userID := flag.String("user", "", "recompute a single user (default: all users with transactions)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable not set")
		os.Exit(2)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Printf("❌ failed to connect to database: %v", err)
		os.Exit(1)
	}

	ledger := services.NewLedgerService(db)

	var userIDs []string
	if *userID != "" {
		userIDs = []string{*userID}
	} else {
		if err := db.Model(&models.PointsTransaction{}).
			Distinct("user_id").
			Order("user_id ASC").
			Pluck("user_id", &userIDs).Error; err != nil {
			log.Printf("❌ failed to list users with transactions: %v", err)
			os.Exit(1)
		}
	}
	if len(userIDs) == 0 {
		fmt.Println("No users with transactions found — nothing to recompute.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tBALANCE\tEARNED\tBURNED")

	var failures int
	for _, uid := range userIDs {
		row, err := ledger.RecomputeBalance(db, uid)
		if err != nil {
			failures++
			log.Printf("❌ recompute failed for user %s: %v", uid, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", row.UserID, row.PointsBalance, row.TotalPointsEarned, row.TotalPointsBurned)
	}
	w.Flush()

	fmt.Printf("\nRecomputed %d of %d ledger(s)\n", len(userIDs)-failures, len(userIDs))
	if failures > 0 {
		os.Exit(1)
	}
}
