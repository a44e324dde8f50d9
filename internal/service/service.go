package service

import (
	"context"
	"time"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/fees"
	"rental-engine-backend/internal/payment"
	"rental-engine-backend/internal/pricing"
	"rental-engine-backend/internal/repository"
	"rental-engine-backend/internal/storage"
)

// RentalService runs rental transactions end to end: eligibility,
// availability, pricing, payment, persistence and the running ledger.
type RentalService interface {
	ProcessRental(ctx context.Context, customerID, itemID string, durationDays int, opts ...RentalOption) (*domain.Agreement, error)
	// ProcessReturn closes the active agreement. It reports false with a nil
	// error when there is no active agreement with that id.
	ProcessReturn(ctx context.Context, agreementID string, condition domain.ItemCondition) (bool, error)
	AddCharge(ctx context.Context, agreementID, description string, amount float64) (*domain.Agreement, error)

	ActiveAgreement(agreementID string) (*domain.Agreement, bool)
	ListActive() []domain.Agreement
	OverdueAgreements(now time.Time) []domain.Agreement
	RentalHistory(ctx context.Context, customerID string) ([]domain.Agreement, error)
	Ledger() domain.LedgerSummary
	TotalRevenue() float64
	TotalRentalsProcessed() int
}

// CatalogService maintains the items and customers the rental service works on.
type CatalogService interface {
	AddItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	UpdateItemCondition(ctx context.Context, itemID string, condition domain.ItemCondition) error
	RegisterCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomerStatus(ctx context.Context, customerID string, status domain.CustomerStatus) error
	SetBlacklisted(ctx context.Context, customerID string, blacklisted bool) error
	// Restore reloads in-memory state from the repositories.
	Restore(ctx context.Context) error
}

type Pricer interface {
	BaseRate(category domain.ItemCategory) float64
	ComputeTotal(category domain.ItemCategory, durationDays int, season pricing.Season, customerType domain.CustomerStatus) float64
}

type LateFeeCalculator interface {
	LateFee(category domain.ItemCategory, dailyRate float64, lateDays int, customerType domain.CustomerStatus) float64
}

type CustomerDirectory interface {
	Get(customerID string) (domain.Customer, bool)
	IsEligible(customerID string) bool
	ValidateRentalLimit(customerID string, activeRentals int) bool
	ApplyLoyaltyBonus(customerID string, purchaseAmount float64)
	Register(c domain.Customer) error
	Remove(customerID string)
	UpdateStatus(customerID string, status domain.CustomerStatus) error
	Blacklist(customerID string) error
	Unblacklist(customerID string)
	Load(customers []domain.Customer)
}

type Inventory interface {
	Get(itemID string) (domain.Item, bool)
	IsAvailable(itemID string) bool
	Reserve(itemID string) bool
	Release(itemID string) error
	UpdateCondition(itemID string, condition domain.ItemCondition) error
	AddItem(item domain.Item) error
	Remove(itemID string) error
	Load(items []domain.Item)
}

// Notifier tells customers about their rentals. Delivery is best effort.
type Notifier interface {
	SendRentalConfirmation(ctx context.Context, customer domain.Customer, agreement *domain.Agreement) error
	SendReturnReceipt(ctx context.Context, customer domain.Customer, agreement *domain.Agreement) error
	SendOverdueReminder(ctx context.Context, customer domain.Customer, agreement *domain.Agreement) error
}

// Deps is everything the rental service is built from. Inventory, Customers,
// Pricing, Fees, Damage, Gateway and the repositories are required.
type Deps struct {
	Inventory Inventory
	Customers CustomerDirectory
	Pricing   Pricer
	Fees      LateFeeCalculator
	Damage    fees.DamageAssessor
	Gateway   payment.Gateway

	Items         repository.ItemRepository
	CustomerStore repository.CustomerRepository
	Agreements    repository.AgreementRepository
	LedgerStore   repository.LedgerRepository

	Locker      storage.ItemLocker
	LockTimeout time.Duration
	Notifier    Notifier
	Clock       func() time.Time
	NewID       func() string
}

type RentalOption func(*rentalOptions)

type rentalOptions struct {
	insurance bool
	startDate time.Time
}

// WithInsurance halves the security deposit.
func WithInsurance() RentalOption {
	return func(o *rentalOptions) { o.insurance = true }
}

// WithStartDate starts the rental at t instead of now. The season used for
// pricing follows the start date.
func WithStartDate(t time.Time) RentalOption {
	return func(o *rentalOptions) { o.startDate = t }
}
