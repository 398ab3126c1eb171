// workers/ledger_audit_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

// ledgerDrift is one user whose aggregate disagrees with their ledger sum.
type ledgerDrift struct {
	ExternalUserID string `gorm:"column:external_user_id"`
	TotalXP        int64  `gorm:"column:total_xp"`
	LedgerSum      int64  `gorm:"column:ledger_sum"`
}

// PollLedgerAudit periodically reconciles SUM(xp_transactions.xp_amount)
// against user_progresses.total_xp. The two must agree for every user; any
// drift means an increment and its ledger append were torn apart by a partial
// failure and needs operator attention.
func PollLedgerAudit(ctx context.Context, db *gorm.DB, pollInterval time.Duration) {
	log.Println("Starting ledger audit polling…")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Ledger audit polling stopped.")
			return
		case <-ticker.C:
			drifts, err := FindLedgerDrift(db)
			if err != nil {
				log.Printf("❌ Ledger audit query failed: %v", err)
				continue
			}
			if len(drifts) == 0 {
				continue
			}
			for _, d := range drifts {
				log.Printf("🚨 Ledger drift: user=%s total_xp=%d ledger_sum=%d (delta=%d)",
					d.ExternalUserID, d.TotalXP, d.LedgerSum, d.TotalXP-d.LedgerSum)
			}
		}
	}
}

// FindLedgerDrift returns every user whose stored total diverges from the sum
// of their ledger entries.
func FindLedgerDrift(db *gorm.DB) ([]ledgerDrift, error) {
	var drifts []ledgerDrift
	err := db.Raw(`
		SELECT p.external_user_id, p.total_xp, COALESCE(SUM(t.xp_amount), 0) AS ledger_sum
		FROM user_progresses p
		LEFT JOIN xp_transactions t ON t.external_user_id = p.external_user_id
		WHERE p.deleted_at IS NULL
		GROUP BY p.external_user_id, p.total_xp
		HAVING p.total_xp <> COALESCE(SUM(t.xp_amount), 0)
	`).Scan(&drifts).Error
	return drifts, err
}
