// cmd/backfill-notifications/main.go
//
// Reconstructs missing earned_challenge transactions by mining a user's
// historical notification text for point amounts. Dry-run by default;
// pass -force to write. Candidates that duplicate an existing transaction
// (same amount, same calendar day) are skipped individually.
//
// Exit codes: 0 success or nothing to do, 1 database failure, 2 missing input.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"bantah-points-system/services"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	userID := flag.String("user", "", "user ID to mine notifications for (required)")
	force := flag.Bool("force", false, "actually insert the mined transactions")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Usage: backfill-notifications -user <user-id> [-force]")
		os.Exit(2)
	}

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

	backfill := services.NewBackfillService(db, services.NewLedgerService(db))

	report, err := backfill.MineNotifications(*userID, *force)
	if err != nil {
		log.Printf("❌ notification mining failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("Scanned %d notification(s) for user %s — %d candidate(s)\n\n",
		report.Notifications, report.UserID, len(report.Candidates))

	if len(report.Candidates) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tAMOUNT\tSTATUS\tREASON")
		for _, c := range report.Candidates {
			status := "pending"
			if c.Skipped {
				status = "skipped (duplicate)"
			} else if c.Inserted {
				status = "inserted"
			}
			reason := c.Reason
			if len(reason) > 60 {
				reason = reason[:60] + "…"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.CreatedAt.Format("2006-01-02"), c.Amount, status, reason)
		}
		w.Flush()
	}

	if report.Applied {
		fmt.Printf("\n✅ Inserted %d transaction(s) and recomputed ledger.\n", report.Inserted)
	} else if len(report.Candidates) > 0 {
		fmt.Println("\nDry run: no writes performed. Re-run with -force to apply.")
	} else {
		fmt.Println("Nothing to backfill.")
	}
}
