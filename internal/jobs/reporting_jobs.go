package jobs

import (
	"rental-engine-backend/internal/logger"
)

// SnapshotUtilization records per-category utilization next to the running ledger.
func (jr *JobRunner) SnapshotUtilization() {
	jr.runWithRecovery("SnapshotUtilization", func() {
		now := jr.now()
		snap := UtilizationSnapshot{
			TakenAt:     now,
			ByCategory:  jr.services.Inventory.UtilizationByCategory(),
			Ledger:      jr.services.Rentals.Ledger(),
			OverdueOpen: len(jr.services.Rentals.OverdueAgreements(now)),
		}

		jr.mu.Lock()
		jr.snapshot = snap
		jr.mu.Unlock()

		for category, u := range snap.ByCategory {
			logger.Info("Utilization", "category", category, "utilization", u)
		}
		logger.Info("Ledger snapshot",
			"total_revenue", snap.Ledger.TotalRevenue,
			"total_adjustments", snap.Ledger.TotalAdjustments,
			"rentals_processed", snap.Ledger.TotalRentalsProcessed,
			"active_agreements", snap.Ledger.ActiveAgreements,
			"overdue", snap.OverdueOpen)
	})
}
