// cmd/backfill-points/main.go
//
// Reconciles a user whose ledger shows a balance but whose transaction log
// is empty, by synthesizing a single backfill transaction. Dry-run by
// default; pass -force to write.
//
// Exit codes: 0 success or refusal, 1 failed operation (DB error or no
// ledger row), 2 missing input.
package main

import (
	"errors"
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
	userID := flag.String("user", "", "user ID to reconcile (required)")
	force := flag.Bool("force", false, "actually write the backfill transaction")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Usage: backfill-points -user <user-id> [-force]")
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

	report, err := backfill.ReconcileLedger(*userID, *force)
	if err != nil {
		if errors.Is(err, services.ErrNoLedger) {
			fmt.Fprintf(os.Stderr, "No ledger row found for user %s — nothing to reconcile\n", *userID)
			os.Exit(1)
		}
		log.Printf("❌ reconciliation failed: %v", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tLEDGER BALANCE\tEXISTING TXS\tPREPARED AMOUNT")
	prepared := "-"
	if report.Prepared != nil {
		prepared = fmt.Sprintf("%d", report.Prepared.Amount)
	}
	fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", report.UserID, report.LedgerBalance, report.ExistingTxs, prepared)
	w.Flush()

	switch {
	case report.Refused:
		fmt.Printf("\nRefused: user already has %d transaction(s). Re-run with -force to override.\n", report.ExistingTxs)
	case report.Prepared == nil:
		fmt.Println("\nNothing to backfill (balance is zero or negative).")
	case report.Applied:
		fmt.Printf("\n✅ Backfill transaction %s written and ledger recomputed.\n", report.Prepared.ID)
	default:
		fmt.Println("\nDry run: no writes performed. Re-run with -force to apply.")
	}
}
