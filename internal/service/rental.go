package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rental-engine-backend/internal/customer"
	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/logger"
	"rental-engine-backend/internal/pricing"
	"rental-engine-backend/internal/storage"
	"rental-engine-backend/internal/utils"
)

const (
	lateFeeDescription = "Late fee"
	damageDescription  = "Damage"

	defaultLockTimeout = 10 * time.Second
)

// Orchestrator is the rental transaction engine. It owns the set of active
// agreements and the running ledger; items, customers and persistence are
// injected through Deps.
type Orchestrator struct {
	deps Deps

	mu      sync.RWMutex
	active  map[string]*domain.Agreement
	summary domain.LedgerSummary
}

var (
	_ RentalService  = (*Orchestrator)(nil)
	_ CatalogService = (*Orchestrator)(nil)
)

func NewOrchestrator(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Inventory == nil, deps.Customers == nil:
		return nil, errors.New("rental service: inventory and customer directory are required")
	case deps.Pricing == nil, deps.Fees == nil, deps.Damage == nil:
		return nil, errors.New("rental service: pricing, fee and damage collaborators are required")
	case deps.Gateway == nil:
		return nil, errors.New("rental service: payment gateway is required")
	case deps.Items == nil, deps.CustomerStore == nil, deps.Agreements == nil, deps.LedgerStore == nil:
		return nil, errors.New("rental service: repositories are required")
	}
	if deps.Locker == nil {
		deps.Locker = storage.NewLocalLocker()
	}
	if deps.LockTimeout <= 0 {
		deps.LockTimeout = defaultLockTimeout
	}
	if deps.Notifier == nil {
		deps.Notifier = NewLogNotifier()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Orchestrator{
		deps:   deps,
		active: make(map[string]*domain.Agreement),
	}, nil
}

func (o *Orchestrator) ProcessRental(ctx context.Context, customerID, itemID string, durationDays int, opts ...RentalOption) (*domain.Agreement, error) {
	const op = "ProcessRental"
	logger.EnterMethod("Orchestrator.ProcessRental", "customerID", customerID, "itemID", itemID, "durationDays", durationDays)

	options := rentalOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	if durationDays <= 0 {
		return nil, o.fail(op, domain.KindInvalidRequest, fmt.Errorf("duration of %d days", durationDays))
	}
	if !o.deps.Customers.IsEligible(customerID) {
		return nil, o.fail(op, domain.KindIneligible, fmt.Errorf("customer %s", customerID))
	}
	if !o.deps.Inventory.IsAvailable(itemID) {
		return nil, o.fail(op, domain.KindUnavailable, fmt.Errorf("item %s", itemID))
	}

	unlock, err := o.lockItem(ctx, itemID)
	if err != nil {
		return nil, o.fail(op, lockErrorKind(err), err)
	}
	defer unlock()

	// Re-check under the lock; a concurrent rental may have won the item.
	item, ok := o.deps.Inventory.Get(itemID)
	if !ok || !item.Available {
		return nil, o.fail(op, domain.KindUnavailable, fmt.Errorf("item %s", itemID))
	}
	cust, ok := o.deps.Customers.Get(customerID)
	if !ok {
		return nil, o.fail(op, domain.KindIneligible, fmt.Errorf("customer %s: %w", customerID, domain.ErrUnknownCustomer))
	}
	if active := o.activeCountFor(customerID) + 1; !o.deps.Customers.ValidateRentalLimit(customerID, active) {
		// Not enforced: eligibility does not consult rental limits.
		logger.WarnContext(ctx, "Customer exceeds rental limit", "customerID", customerID, "status", cust.Status, "activeRentals", active)
	}

	start := o.deps.Clock()
	if !options.startDate.IsZero() {
		start = options.startDate
	}
	amount := o.deps.Pricing.ComputeTotal(item.Category, durationDays, pricing.SeasonFor(start), cust.Status)

	receipt, err := o.deps.Gateway.Charge(ctx, customerID, amount)
	if err != nil {
		return nil, o.fail(op, domain.KindPaymentFailed, err)
	}

	agreement := domain.NewAgreement(o.deps.NewID(), customerID, itemID, item.Category, durationDays)
	if err := agreement.Finalize(amount, options.insurance, start); err != nil {
		o.refund(ctx, receipt.ChargeID)
		return nil, o.fail(op, domain.KindInternal, err)
	}

	charge := &domain.LedgerEntry{
		ID:          o.deps.NewID(),
		AgreementID: agreement.ID,
		CustomerID:  customerID,
		Type:        domain.LedgerEntryTypeRentalCharge,
		Amount:      amount,
		Description: fmt.Sprintf("Rental of %s for %d days", itemID, durationDays),
		CreatedOn:   o.deps.Clock(),
	}
	if err := o.deps.Agreements.CreateRental(ctx, agreement, charge, customer.LoyaltyPointsFor(amount)); err != nil {
		o.refund(ctx, receipt.ChargeID)
		if errors.Is(err, domain.ErrUnavailable) {
			return nil, o.fail(op, domain.KindUnavailable, err)
		}
		return nil, o.fail(op, domain.KindInternal, fmt.Errorf("persist agreement %s: %w", agreement.ID, err))
	}

	if !o.deps.Inventory.Reserve(itemID) {
		// The stored agreement is active but nothing holds the item.
		logger.ErrorContext(ctx, "Reservation invariant broken: item was reserved outside the item lock",
			"itemID", itemID, "agreementID", agreement.ID)
		o.refund(ctx, receipt.ChargeID)
		return nil, o.fail(op, domain.KindInternal, fmt.Errorf("reserve item %s for persisted agreement %s failed", itemID, agreement.ID))
	}

	o.mu.Lock()
	o.active[agreement.ID] = agreement
	o.summary.TotalRevenue += amount
	o.summary.TotalRentalsProcessed++
	o.mu.Unlock()

	o.deps.Customers.ApplyLoyaltyBonus(customerID, amount)

	out := agreement.Clone()
	if err := o.deps.Notifier.SendRentalConfirmation(ctx, cust, out); err != nil {
		logger.WarnContext(ctx, "Failed to send rental confirmation", "agreementID", agreement.ID, "error", err)
	}

	logger.InfoContext(ctx, "Rental processed", "agreementID", agreement.ID, "customerID", customerID, "itemID", itemID, "amount", amount)
	logger.ExitMethod("Orchestrator.ProcessRental", "agreementID", agreement.ID)
	return out, nil
}

func (o *Orchestrator) ProcessReturn(ctx context.Context, agreementID string, condition domain.ItemCondition) (bool, error) {
	const op = "ProcessReturn"
	logger.EnterMethod("Orchestrator.ProcessReturn", "agreementID", agreementID, "condition", condition)

	current, ok := o.ActiveAgreement(agreementID)
	if !ok {
		logger.ExitMethod("Orchestrator.ProcessReturn", "agreementID", agreementID, "returned", false)
		return false, nil
	}
	if !condition.Valid() {
		return false, o.fail(op, domain.KindInvalidRequest, fmt.Errorf("unknown condition %q", condition))
	}
	item, ok := o.deps.Inventory.Get(current.ItemID)
	if !ok {
		return false, o.fail(op, domain.KindInternal, fmt.Errorf("agreement %s: item %s: %w", agreementID, current.ItemID, domain.ErrUnknownItem))
	}

	unlock, err := o.lockItem(ctx, current.ItemID)
	if err != nil {
		return false, o.fail(op, domain.KindInternal, err)
	}
	defer unlock()

	// A concurrent return may have closed it while we waited.
	working, ok := o.ActiveAgreement(agreementID)
	if !ok {
		return false, nil
	}

	now := o.deps.Clock()
	cust, _ := o.deps.Customers.Get(working.CustomerID)
	var adjustments []domain.LedgerEntry

	if lateDays := utils.LateDays(working.EndDate, now); lateDays > 0 {
		fee := o.deps.Fees.LateFee(working.Category, item.BasePricePerDay, lateDays, cust.Status)
		if fee > 0 {
			if err := working.AddAdditionalCharge(lateFeeDescription, fee); err != nil {
				return false, o.fail(op, domain.KindInternal, err)
			}
			adjustments = append(adjustments, o.entry(working, domain.LedgerEntryTypeLateFee, fee,
				fmt.Sprintf("%s: %d days", lateFeeDescription, lateDays), now))
		}
	}

	if condition != domain.ItemConditionExcellent {
		cost := o.deps.Damage.DamageCost(working.Category, condition)
		if cost > 0 {
			deposit := working.SecurityDeposit
			if err := working.ApplyDamagePenalty(cost); err != nil {
				return false, o.fail(op, domain.KindInternal, err)
			}
			adjustments = append(adjustments, o.entry(working, domain.LedgerEntryTypeDamageCharge, cost,
				fmt.Sprintf("%s (%s), %.2f from deposit", damageDescription, condition, deposit-working.SecurityDeposit), now))
		}
	}

	working.ReturnCondition = condition
	if err := working.Close(now); err != nil {
		return false, o.fail(op, domain.KindInternal, err)
	}
	if err := o.deps.Agreements.CloseRental(ctx, working, adjustments); err != nil {
		return false, o.fail(op, domain.KindInternal, fmt.Errorf("persist return of %s: %w", agreementID, err))
	}

	if err := o.deps.Inventory.Release(working.ItemID); err != nil {
		logger.ErrorContext(ctx, "Failed to release item", "itemID", working.ItemID, "error", err)
	}
	if err := o.deps.Inventory.UpdateCondition(working.ItemID, condition); err != nil {
		logger.ErrorContext(ctx, "Failed to record item condition", "itemID", working.ItemID, "error", err)
	}

	o.mu.Lock()
	delete(o.active, agreementID)
	for _, adj := range adjustments {
		o.summary.TotalAdjustments += adj.Amount
	}
	o.mu.Unlock()

	if err := o.deps.Notifier.SendReturnReceipt(ctx, cust, working.Clone()); err != nil {
		logger.WarnContext(ctx, "Failed to send return receipt", "agreementID", agreementID, "error", err)
	}

	logger.InfoContext(ctx, "Return processed", "agreementID", agreementID, "condition", condition, "adjustments", len(adjustments))
	logger.ExitMethod("Orchestrator.ProcessReturn", "agreementID", agreementID, "returned", true)
	return true, nil
}

// AddCharge bills an extra amount against an active agreement.
func (o *Orchestrator) AddCharge(ctx context.Context, agreementID, description string, amount float64) (*domain.Agreement, error) {
	const op = "AddCharge"

	current, ok := o.ActiveAgreement(agreementID)
	if !ok {
		return nil, o.fail(op, domain.KindNotFound, fmt.Errorf("active agreement %s", agreementID))
	}
	unlock, err := o.lockItem(ctx, current.ItemID)
	if err != nil {
		return nil, o.fail(op, domain.KindInternal, err)
	}
	defer unlock()

	working, ok := o.ActiveAgreement(agreementID)
	if !ok {
		return nil, o.fail(op, domain.KindNotFound, fmt.Errorf("active agreement %s", agreementID))
	}
	if err := working.AddAdditionalCharge(description, amount); err != nil {
		return nil, o.fail(op, domain.KindInvalidRequest, err)
	}

	entry := o.entry(working, domain.LedgerEntryTypeAdditionalCharge, amount, description, o.deps.Clock())
	if err := o.deps.Agreements.AddCharge(ctx, working, &entry); err != nil {
		return nil, o.fail(op, domain.KindInternal, fmt.Errorf("persist charge on %s: %w", agreementID, err))
	}

	o.mu.Lock()
	o.active[agreementID] = working
	o.summary.TotalAdjustments += amount
	o.mu.Unlock()
	return working.Clone(), nil
}

// ActiveAgreement returns a copy of the active agreement with that id.
func (o *Orchestrator) ActiveAgreement(agreementID string) (*domain.Agreement, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	a, ok := o.active[agreementID]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

func (o *Orchestrator) ListActive() []domain.Agreement {
	return o.activeMatching(func(*domain.Agreement) bool { return true })
}

func (o *Orchestrator) OverdueAgreements(now time.Time) []domain.Agreement {
	return o.activeMatching(func(a *domain.Agreement) bool { return a.IsOverdue(now) })
}

func (o *Orchestrator) RentalHistory(ctx context.Context, customerID string) ([]domain.Agreement, error) {
	history, err := o.deps.Agreements.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("rental history of %s: %w", customerID, err)
	}
	return history, nil
}

func (o *Orchestrator) Ledger() domain.LedgerSummary {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := o.summary
	s.ActiveAgreements = len(o.active)
	return s
}

func (o *Orchestrator) TotalRevenue() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.summary.TotalRevenue
}

func (o *Orchestrator) TotalRentalsProcessed() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.summary.TotalRentalsProcessed
}

func (o *Orchestrator) activeMatching(match func(*domain.Agreement) bool) []domain.Agreement {
	o.mu.RLock()
	out := make([]domain.Agreement, 0, len(o.active))
	for _, a := range o.active {
		if match(a) {
			out = append(out, *a.Clone())
		}
	}
	o.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EndDate.Equal(out[j].EndDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].EndDate.Before(out[j].EndDate)
	})
	return out
}

func (o *Orchestrator) activeCountFor(customerID string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	n := 0
	for _, a := range o.active {
		if a.CustomerID == customerID {
			n++
		}
	}
	return n
}

func (o *Orchestrator) lockItem(ctx context.Context, itemID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, o.deps.LockTimeout)
	defer cancel()
	unlock, err := o.deps.Locker.Lock(lockCtx, itemID)
	if err != nil {
		return nil, fmt.Errorf("lock item %s: %w", itemID, err)
	}
	return unlock, nil
}

// lockErrorKind maps a lock failure to a rental outcome. Waiting out the
// lock timeout means somebody else is busy with the item.
func lockErrorKind(err error) domain.ErrorKind {
	if errors.Is(err, storage.ErrLockTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return domain.KindUnavailable
	}
	return domain.KindInternal
}

// refund undoes a successful charge whose rental could not be recorded.
func (o *Orchestrator) refund(ctx context.Context, chargeID string) {
	if err := o.deps.Gateway.Refund(context.WithoutCancel(ctx), chargeID); err != nil {
		logger.ErrorContext(ctx, "Failed to refund charge after aborted rental", "chargeID", chargeID, "error", err)
		return
	}
	logger.WarnContext(ctx, "Refunded charge after aborted rental", "chargeID", chargeID)
}

func (o *Orchestrator) entry(a *domain.Agreement, typ domain.LedgerEntryType, amount float64, description string, at time.Time) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:          o.deps.NewID(),
		AgreementID: a.ID,
		CustomerID:  a.CustomerID,
		Type:        typ,
		Amount:      amount,
		Description: description,
		CreatedOn:   at,
	}
}

func (o *Orchestrator) fail(op string, kind domain.ErrorKind, err error) error {
	rerr := domain.NewRentalError(kind, op, err)
	logger.ExitMethodWithError("Orchestrator."+op, rerr, "kind", kind)
	return rerr
}
