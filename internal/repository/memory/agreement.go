package memory

import (
	"context"
	"fmt"
	"sort"

	"rental-engine-backend/internal/domain"
)

type agreementRepository struct {
	s *state
}

func (r *agreementRepository) CreateRental(ctx context.Context, a *domain.Agreement, charge *domain.LedgerEntry, loyaltyPoints int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.agreements[a.ID]; exists {
		return fmt.Errorf("agreement %s already exists: %w", a.ID, domain.ErrInvalidRequest)
	}
	item, ok := r.s.items[a.ItemID]
	if !ok || !item.Available {
		return fmt.Errorf("reserve item %s: %w", a.ItemID, domain.ErrUnavailable)
	}
	customer, ok := r.s.customers[a.CustomerID]
	if !ok {
		return fmt.Errorf("customer %s: %w", a.CustomerID, domain.ErrNotFound)
	}

	item.Available = false
	item.RentedCount++
	r.s.items[item.ID] = item
	customer.LoyaltyPoints += loyaltyPoints
	r.s.customers[customer.ID] = customer
	r.s.agreements[a.ID] = a.Clone()
	r.s.ledger = append(r.s.ledger, *charge)
	return nil
}

func (r *agreementRepository) CloseRental(ctx context.Context, a *domain.Agreement, adjustments []domain.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.agreements[a.ID]
	if !ok || stored.State != domain.AgreementStateActive {
		return fmt.Errorf("active agreement %s: %w", a.ID, domain.ErrNotFound)
	}
	if item, ok := r.s.items[a.ItemID]; ok {
		item.Available = true
		if a.ReturnCondition != "" {
			item.Condition = a.ReturnCondition
		}
		r.s.items[item.ID] = item
	}
	r.s.agreements[a.ID] = a.Clone()
	r.s.ledger = append(r.s.ledger, adjustments...)
	return nil
}

func (r *agreementRepository) AddCharge(ctx context.Context, a *domain.Agreement, entry *domain.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.agreements[a.ID]
	if !ok || stored.State != domain.AgreementStateActive {
		return fmt.Errorf("active agreement %s: %w", a.ID, domain.ErrNotFound)
	}
	r.s.agreements[a.ID] = a.Clone()
	r.s.ledger = append(r.s.ledger, *entry)
	return nil
}

func (r *agreementRepository) GetByID(ctx context.Context, id string) (*domain.Agreement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.agreements[id]
	if !ok {
		return nil, fmt.Errorf("agreement %s: %w", id, domain.ErrNotFound)
	}
	return a.Clone(), nil
}

func (r *agreementRepository) ListActive(ctx context.Context) ([]domain.Agreement, error) {
	return r.list(func(a *domain.Agreement) bool { return a.State == domain.AgreementStateActive }), nil
}

func (r *agreementRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Agreement, error) {
	return r.list(func(a *domain.Agreement) bool { return a.CustomerID == customerID }), nil
}

func (r *agreementRepository) list(match func(*domain.Agreement) bool) []domain.Agreement {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Agreement
	for _, a := range r.s.agreements {
		if match(a) {
			out = append(out, *a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}

type ledgerRepository struct {
	s *state
}

func (r *ledgerRepository) ListEntries(ctx context.Context, page, pageSize int32) ([]domain.LedgerEntry, int32, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total := int64(len(r.s.ledger))
	if page < 1 {
		page = 1
	}
	size := int64(pageSize)
	if size < 1 {
		size = total
	}
	start := (int64(page) - 1) * size
	if start >= total {
		return []domain.LedgerEntry{}, int32(total), nil
	}
	end := min(start+size, total)
	out := make([]domain.LedgerEntry, end-start)
	copy(out, r.s.ledger[start:end])
	return out, int32(total), nil
}

func (r *ledgerRepository) GetSummary(ctx context.Context) (*domain.LedgerSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	summary := &domain.LedgerSummary{}
	for _, e := range r.s.ledger {
		if e.Type == domain.LedgerEntryTypeRentalCharge {
			summary.TotalRevenue += e.Amount
			summary.TotalRentalsProcessed++
		} else {
			summary.TotalAdjustments += e.Amount
		}
	}
	for _, a := range r.s.agreements {
		if a.State == domain.AgreementStateActive {
			summary.ActiveAgreements++
		}
	}
	return summary, nil
}
