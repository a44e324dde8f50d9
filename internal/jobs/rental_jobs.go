package jobs

import (
	"rental-engine-backend/internal/logger"
	"rental-engine-backend/internal/utils"
)

// MarkOverdueAgreements records which active agreements are past their end
// date. Agreements that were returned since the last run are dropped.
func (jr *JobRunner) MarkOverdueAgreements() {
	jr.runWithRecovery("MarkOverdueAgreements", func() {
		now := jr.now()
		overdue := jr.services.Rentals.OverdueAgreements(now)

		jr.mu.Lock()
		seen := make(map[string]struct{}, len(overdue))
		newlyOverdue := 0
		for _, a := range overdue {
			seen[a.ID] = struct{}{}
			if _, ok := jr.overdueSince[a.ID]; ok {
				continue
			}
			jr.overdueSince[a.ID] = now
			newlyOverdue++
			logger.Debug("Marked agreement as overdue",
				"agreement_id", a.ID,
				"customer_id", a.CustomerID,
				"item_id", a.ItemID,
				"end_date", a.EndDate,
				"late_days", utils.LateDays(a.EndDate, now))
		}
		for id := range jr.overdueSince {
			if _, ok := seen[id]; !ok {
				delete(jr.overdueSince, id)
				delete(jr.lastReminded, id)
			}
		}
		jr.mu.Unlock()

		logger.Info("Marked agreements as overdue", "count", len(overdue), "new", newlyOverdue)
	})
}
