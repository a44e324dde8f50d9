package jobs

import (
	"sync"
	"time"

	"rental-engine-backend/internal/config"
	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/logger"
	"rental-engine-backend/internal/service"
)

type CustomerLookup interface {
	Get(customerID string) (domain.Customer, bool)
}

type UtilizationSource interface {
	UtilizationByCategory() map[domain.ItemCategory]float64
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Rentals   service.RentalService
	Customers CustomerLookup
	Inventory UtilizationSource
	Notifier  service.Notifier
}

// UtilizationSnapshot is what SnapshotUtilization last recorded.
type UtilizationSnapshot struct {
	TakenAt     time.Time                       `json:"taken_at"`
	ByCategory  map[domain.ItemCategory]float64 `json:"by_category"`
	Ledger      domain.LedgerSummary            `json:"ledger"`
	OverdueOpen int                             `json:"overdue_open"`
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	now      func() time.Time

	mu           sync.Mutex
	overdueSince map[string]time.Time
	lastReminded map[string]time.Time
	snapshot     UtilizationSnapshot
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services:     services,
		config:       cfg,
		now:          time.Now,
		overdueSince: make(map[string]time.Time),
		lastReminded: make(map[string]time.Time),
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// OverdueSince returns when each currently overdue agreement was first seen overdue.
func (jr *JobRunner) OverdueSince() map[string]time.Time {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	out := make(map[string]time.Time, len(jr.overdueSince))
	for id, t := range jr.overdueSince {
		out[id] = t
	}
	return out
}

// LastSnapshot returns the most recent utilization snapshot, zero before the first run.
func (jr *JobRunner) LastSnapshot() UtilizationSnapshot {
	jr.mu.Lock()
	defer jr.mu.Unlock()
	return jr.snapshot
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once, in dependency order (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.MarkOverdueAgreements()
	jr.SendOverdueReminders()
	jr.SnapshotUtilization()
}
