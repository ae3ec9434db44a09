// workers/escrow_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"bantah-points-system/models"
	"bantah-points-system/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EscrowSyncClient polls the chain-indexer service for stake lock/release
// events and mirrors them into the points ledger. The contract calls
// themselves live behind the indexer; this worker only consumes its HTTP API.
type EscrowSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
	Points     *services.PointsService
}

func NewEscrowSyncClient(db *gorm.DB, points *services.PointsService) *EscrowSyncClient {
	baseURL := os.Getenv("CHAIN_INDEXER_URL")
	if baseURL == "" {
		log.Fatal("CHAIN_INDEXER_URL environment variable is required")
	}
	token := os.Getenv("POINTS_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("POINTS_SERVICE_TOKEN environment variable is required for escrow sync")
	}

	return &EscrowSyncClient{
		BaseURL: baseURL,
		Token:   token,
		DB:      db,
		Points:  points,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *EscrowSyncClient) GetChangedEvents(ctx context.Context, since time.Time) ([]models.EscrowEventMirror, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/escrow/events", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call chain indexer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("chain indexer returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Events []models.EscrowEventMirror `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode chain indexer response: %w", err)
	}

	return response.Events, nil
}

// PollEscrowEvents mirrors indexer events into escrow_event_mirror and
// converts each newly seen event into a locked_escrow / released_escrow
// points transaction exactly once.
func PollEscrowEvents(ctx context.Context, client *EscrowSyncClient, pollInterval time.Duration) {
	log.Println("Starting escrow event polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Escrow event polling stopped.")
			return
		case <-ticker.C:
			tickStart := time.Now().UTC()

			events, err := client.GetChangedEvents(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling escrow events: %v", err)
				continue
			}
			if len(events) == 0 {
				continue
			}
			log.Printf("📥 Received %d escrow event(s) from chain indexer.", len(events))

			for i := range events {
				if events[i].ID == "" {
					events[i].ID = uuid.NewString()
				}
				events[i].Processed = false
			}

			// Bulk upsert keyed on tx_hash; already-mirrored events keep
			// their processed flag (tx_hash is the dedup boundary).
			if err := client.DB.Clauses(
				clause.OnConflict{
					Columns:   []clause.Column{{Name: "tx_hash"}},
					DoNothing: true,
				},
			).Create(&events).Error; err != nil {
				log.Printf("❌ Failed to upsert %d escrow event(s): %v", len(events), err)
				// Do NOT advance lastSyncTime on failure — retry same window next tick
				continue
			}

			if err := client.ProcessPending(); err != nil {
				log.Printf("❌ Failed to process pending escrow events: %v", err)
				continue
			}

			lastSyncTime = tickStart
		}
	}
}

// ProcessPending converts unprocessed mirror rows into points transactions
func (c *EscrowSyncClient) ProcessPending() error {
	var pending []models.EscrowEventMirror
	if err := c.DB.Where("processed = ?", false).Order("occurred_at ASC").Find(&pending).Error; err != nil {
		return err
	}

	for _, ev := range pending {
		switch ev.Kind {
		case models.EscrowEventLock, models.EscrowEventRelease:
			// Append and processed mark commit together inside
			// ApplyEscrowEvent; a failure leaves the row pending and it
			// is retried whole next tick.
			if err := c.Points.ApplyEscrowEvent(ev); err != nil {
				log.Printf("❌ Failed to mirror escrow event %s: %v", ev.TxHash, err)
			}
		default:
			log.Printf("⚠️ Unknown escrow event kind %q for tx %s — marking processed, contributes nothing", ev.Kind, ev.TxHash)
			if err := c.DB.Model(&models.EscrowEventMirror{}).
				Where("id = ?", ev.ID).
				Update("processed", true).Error; err != nil {
				log.Printf("❌ Failed to mark escrow event %s processed: %v", ev.TxHash, err)
			}
		}
	}
	return nil
}
