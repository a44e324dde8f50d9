package repository

import (
	"context"

	"rental-engine-backend/internal/domain"
)

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	List(ctx context.Context) ([]domain.Item, error)
	UpdateCondition(ctx context.Context, id string, condition domain.ItemCondition) error
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	UpdateStatus(ctx context.Context, id string, status domain.CustomerStatus) error
	SetBlacklisted(ctx context.Context, id string, blacklisted bool) error
}

type AgreementRepository interface {
	// CreateRental stores a freshly finalized agreement together with its
	// rental charge, marks the item as rented and credits loyalty points.
	// All of it commits or none of it does.
	CreateRental(ctx context.Context, agreement *domain.Agreement, charge *domain.LedgerEntry, loyaltyPoints int) error
	// CloseRental stores the closed agreement, its return adjustments and
	// frees the item with its returned condition.
	CloseRental(ctx context.Context, agreement *domain.Agreement, adjustments []domain.LedgerEntry) error
	// AddCharge stores an agreement that gained an additional charge.
	AddCharge(ctx context.Context, agreement *domain.Agreement, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.Agreement, error)
	ListActive(ctx context.Context) ([]domain.Agreement, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Agreement, error)
}

type LedgerRepository interface {
	ListEntries(ctx context.Context, page, pageSize int32) ([]domain.LedgerEntry, int32, error)
	GetSummary(ctx context.Context) (*domain.LedgerSummary, error)
}
