package customer

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"rental-engine-backend/internal/domain"
)

const (
	minEligibleCreditScore = 400

	newCustomerRiskWeight = 0.3
	lowCreditRiskWeight   = 0.4
	lowLoyaltyRiskWeight  = 0.2
	lowCreditThreshold    = 600
	lowLoyaltyThreshold   = 100

	pointsPerCurrencyUnit = 10
)

// rentalLimits caps concurrent rentals per status. See ValidateRentalLimit.
var rentalLimits = map[domain.CustomerStatus]int{
	domain.CustomerStatusNew:      1,
	domain.CustomerStatusRegular:  3,
	domain.CustomerStatusVIP:      10,
	domain.CustomerStatusBusiness: 25,
}

// Directory owns customer accounts, the blacklist and risk overrides.
type Directory struct {
	mu            sync.RWMutex
	customers     map[string]*domain.Customer
	blacklist     map[string]struct{}
	riskOverrides map[string]float64
	now           func() time.Time
}

func NewDirectory() *Directory {
	return &Directory{
		customers:     make(map[string]*domain.Customer),
		blacklist:     make(map[string]struct{}),
		riskOverrides: make(map[string]float64),
		now:           time.Now,
	}
}

// Register adds a customer account. Blacklisted accounts also land in the blacklist set.
func (d *Directory) Register(c domain.Customer) error {
	if c.ID == "" {
		return fmt.Errorf("register customer: empty id: %w", domain.ErrInvalidRequest)
	}
	if c.Status == "" {
		c.Status = domain.CustomerStatusNew
	}
	if !c.Status.Valid() {
		return fmt.Errorf("register customer %s: unknown status %q: %w", c.ID, c.Status, domain.ErrInvalidRequest)
	}
	if c.CreditScore < domain.MinCreditScore || c.CreditScore > domain.MaxCreditScore {
		return fmt.Errorf("register customer %s: credit score %d outside [%d,%d]: %w",
			c.ID, c.CreditScore, domain.MinCreditScore, domain.MaxCreditScore, domain.ErrInvalidRequest)
	}
	if c.LoyaltyPoints < 0 {
		return fmt.Errorf("register customer %s: negative loyalty points: %w", c.ID, domain.ErrInvalidRequest)
	}
	if c.JoinedOn.IsZero() {
		c.JoinedOn = d.now()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.customers[c.ID]; exists {
		return fmt.Errorf("register customer %s: already exists: %w", c.ID, domain.ErrInvalidRequest)
	}
	d.store(c)
	return nil
}

func (d *Directory) Remove(customerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.customers, customerID)
	delete(d.blacklist, customerID)
	delete(d.riskOverrides, customerID)
}

// Load replaces all accounts, e.g. from persistent storage at startup.
func (d *Directory) Load(customers []domain.Customer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customers = make(map[string]*domain.Customer, len(customers))
	d.blacklist = make(map[string]struct{})
	for _, c := range customers {
		d.store(c)
	}
}

func (d *Directory) store(c domain.Customer) {
	d.customers[c.ID] = &c
	if c.Blacklisted || c.Status == domain.CustomerStatusBlacklisted {
		d.blacklist[c.ID] = struct{}{}
	}
}

// Get returns a copy of the account with the current blacklist flag.
func (d *Directory) Get(customerID string) (domain.Customer, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.customers[customerID]
	if !ok {
		return domain.Customer{}, false
	}
	out := *c
	_, out.Blacklisted = d.blacklist[customerID]
	return out, true
}

func (d *Directory) List() []domain.Customer {
	d.mu.RLock()
	out := make([]domain.Customer, 0, len(d.customers))
	for id, c := range d.customers {
		cp := *c
		_, cp.Blacklisted = d.blacklist[id]
		out = append(out, cp)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsEligible gates new rentals. Unknown, blacklisted (by status or by list)
// and sub-400 credit customers are refused; everyone else may rent.
func (d *Directory) IsEligible(customerID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.customers[customerID]
	if !ok {
		return false
	}
	if c.Status == domain.CustomerStatusBlacklisted {
		return false
	}
	if _, listed := d.blacklist[customerID]; listed {
		return false
	}
	return c.CreditScore >= minEligibleCreditScore
}

// ValidateRentalLimit reports whether activeRentals is within the status
// limit. IsEligible does not consult it.
func (d *Directory) ValidateRentalLimit(customerID string, activeRentals int) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.customers[customerID]
	if !ok {
		return false
	}
	limit, ok := rentalLimits[c.Status]
	if !ok {
		return false
	}
	return activeRentals <= limit
}

// RiskScore returns a value in [0,1]. An explicit override wins; unknown
// customers are maximum risk.
func (d *Directory) RiskScore(customerID string) float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if score, ok := d.riskOverrides[customerID]; ok {
		return score
	}
	c, ok := d.customers[customerID]
	if !ok {
		return 1.0
	}

	score := 0.0
	if c.Status == domain.CustomerStatusNew {
		score += newCustomerRiskWeight
	}
	if c.CreditScore < lowCreditThreshold {
		score += lowCreditRiskWeight
	}
	if c.LoyaltyPoints < lowLoyaltyThreshold {
		score += lowLoyaltyRiskWeight
	}
	return math.Min(score, 1.0)
}

// SetRiskScore pins a customer's risk score, clamped to [0,1].
func (d *Directory) SetRiskScore(customerID string, score float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.customers[customerID]; !ok {
		return fmt.Errorf("set risk score for %s: %w", customerID, domain.ErrUnknownCustomer)
	}
	d.riskOverrides[customerID] = math.Max(0, math.Min(score, 1))
	return nil
}

func (d *Directory) ClearRiskScore(customerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.riskOverrides, customerID)
}

// LoyaltyPointsFor is the number of points a purchase earns.
func LoyaltyPointsFor(purchaseAmount float64) int {
	if purchaseAmount <= 0 {
		return 0
	}
	return int(math.Floor(purchaseAmount / pointsPerCurrencyUnit))
}

// ApplyLoyaltyBonus credits floor(purchaseAmount/10) points. Unknown
// customers are ignored.
func (d *Directory) ApplyLoyaltyBonus(customerID string, purchaseAmount float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.customers[customerID]; ok {
		c.LoyaltyPoints += LoyaltyPointsFor(purchaseAmount)
	}
}

func (d *Directory) Blacklist(customerID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.customers[customerID]; !ok {
		return fmt.Errorf("blacklist %s: %w", customerID, domain.ErrUnknownCustomer)
	}
	d.blacklist[customerID] = struct{}{}
	return nil
}

// Unblacklist removes the customer from the list. A BLACKLISTED status
// still blocks rentals until the status is changed.
func (d *Directory) Unblacklist(customerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.blacklist, customerID)
}

func (d *Directory) UpdateStatus(customerID string, status domain.CustomerStatus) error {
	if !status.Valid() {
		return fmt.Errorf("update status of %s: unknown status %q: %w", customerID, status, domain.ErrInvalidRequest)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.customers[customerID]
	if !ok {
		return fmt.Errorf("update status of %s: %w", customerID, domain.ErrUnknownCustomer)
	}
	c.Status = status
	return nil
}
