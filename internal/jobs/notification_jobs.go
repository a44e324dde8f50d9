package jobs

import (
	"context"
	"time"

	"rental-engine-backend/internal/logger"
)

// reminderInterval keeps a customer from getting more than one reminder per
// agreement per day, however often the job is scheduled.
const reminderInterval = 24 * time.Hour

// SendOverdueReminders notifies customers whose agreements are overdue
func (jr *JobRunner) SendOverdueReminders() {
	jr.runWithRecovery("SendOverdueReminders", func() {
		ctx := context.Background()
		now := jr.now()

		count := 0
		for _, a := range jr.services.Rentals.OverdueAgreements(now) {
			jr.mu.Lock()
			last, reminded := jr.lastReminded[a.ID]
			jr.mu.Unlock()
			if reminded && now.Sub(last) < reminderInterval {
				continue
			}

			c, ok := jr.services.Customers.Get(a.CustomerID)
			if !ok {
				logger.Warn("Overdue agreement for unknown customer", "agreement_id", a.ID, "customer_id", a.CustomerID)
				continue
			}

			agreement := a
			if err := jr.services.Notifier.SendOverdueReminder(ctx, c, &agreement); err != nil {
				logger.Error("Failed to send overdue reminder",
					"agreement_id", a.ID,
					"customer_id", a.CustomerID,
					"error", err)
				continue
			}

			jr.mu.Lock()
			jr.lastReminded[a.ID] = now
			jr.mu.Unlock()
			count++
			logger.Debug("Sent overdue reminder", "agreement_id", a.ID, "customer_id", a.CustomerID)
		}

		logger.Info("Sent overdue reminders", "count", count)
	})
}
