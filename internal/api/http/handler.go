package http

import (
	"time"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/fees"
	"rental-engine-backend/internal/pricing"
	"rental-engine-backend/internal/repository"
	"rental-engine-backend/internal/security"
	"rental-engine-backend/internal/service"
)

type ItemReader interface {
	Get(itemID string) (domain.Item, bool)
	List() []domain.Item
	UtilizationByCategory() map[domain.ItemCategory]float64
}

type CustomerRiskDirectory interface {
	Get(customerID string) (domain.Customer, bool)
	RiskScore(customerID string) float64
	SetRiskScore(customerID string, score float64) error
	ClearRiskScore(customerID string)
}

type Quoter interface {
	Quote(category domain.ItemCategory, durationDays int, season pricing.Season, customerType domain.CustomerStatus) pricing.Quote
	CurrentValue(item domain.Item) float64
}

type LateFeeQuoter interface {
	Breakdown(category domain.ItemCategory, dailyRate float64, lateDays int, customerType domain.CustomerStatus) fees.LateFeeBreakdown
}

type ClientAuthenticator interface {
	Authenticate(clientID, secret string) ([]string, error)
}

// Deps wires the HTTP API to the rest of the engine.
type Deps struct {
	Rentals    service.RentalService
	Catalog    service.CatalogService
	Items      ItemReader
	Customers  CustomerRiskDirectory
	Agreements repository.AgreementRepository
	Ledger     repository.LedgerRepository
	Pricing    Quoter
	Fees       LateFeeQuoter
	Tokens     security.TokenManager
	Clients    ClientAuthenticator
	// Ping reports whether the backing store is reachable. Optional.
	Ping  func() error
	Clock func() time.Time
}

type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Handler{deps: deps}
}
