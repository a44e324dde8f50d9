package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"rental-engine-backend/internal/logger"
)

var (
	ErrDeclined      = errors.New("charge declined")
	ErrUnknownCharge = errors.New("unknown charge")
	ErrAlreadyRefund = errors.New("charge already refunded")
)

type Receipt struct {
	ChargeID   string    `json:"charge_id"`
	CustomerID string    `json:"customer_id"`
	Amount     float64   `json:"amount"`
	ChargedAt  time.Time `json:"charged_at"`
	Refunded   bool      `json:"refunded"`
}

// Gateway authorizes and captures customer charges. Charge returns an error
// wrapping ErrDeclined when the charge was refused, any other error means
// the gateway could not be reached or failed.
type Gateway interface {
	Charge(ctx context.Context, customerID string, amount float64) (*Receipt, error)
	Refund(ctx context.Context, chargeID string) error
}

// SimulatedGateway is an in-memory gateway with a per-charge ceiling and a
// list of cards that always decline. It stands in for a real processor in
// development and tests.
type SimulatedGateway struct {
	mu        sync.Mutex
	maxCharge float64
	declined  map[string]struct{}
	charges   map[string]*Receipt
	now       func() time.Time
}

// NewSimulatedGateway builds a gateway that declines any charge above
// maxCharge (zero means unlimited) and every charge for declinedCustomers.
func NewSimulatedGateway(maxCharge float64, declinedCustomers []string) *SimulatedGateway {
	declined := make(map[string]struct{}, len(declinedCustomers))
	for _, id := range declinedCustomers {
		declined[id] = struct{}{}
	}
	return &SimulatedGateway{
		maxCharge: maxCharge,
		declined:  declined,
		charges:   make(map[string]*Receipt),
		now:       time.Now,
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, customerID string, amount float64) (*Receipt, error) {
	logger.ExternalServiceCall("payment", "Charge", "customer_id", customerID, "amount", amount)
	if err := ctx.Err(); err != nil {
		logger.ExternalServiceResult("payment", "Charge", err)
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var err error
	switch {
	case amount < 0:
		err = fmt.Errorf("negative amount %.2f: %w", amount, ErrDeclined)
	case g.maxCharge > 0 && amount > g.maxCharge:
		err = fmt.Errorf("amount %.2f exceeds limit %.2f: %w", amount, g.maxCharge, ErrDeclined)
	default:
		if _, ok := g.declined[customerID]; ok {
			err = fmt.Errorf("customer %s: %w", customerID, ErrDeclined)
		}
	}
	if err != nil {
		logger.ExternalServiceResult("payment", "Charge", err, "customer_id", customerID)
		return nil, err
	}

	r := &Receipt{
		ChargeID:   uuid.NewString(),
		CustomerID: customerID,
		Amount:     amount,
		ChargedAt:  g.now(),
	}
	g.charges[r.ChargeID] = r
	logger.ExternalServiceResult("payment", "Charge", nil, "charge_id", r.ChargeID)

	out := *r
	return &out, nil
}

func (g *SimulatedGateway) Refund(ctx context.Context, chargeID string) error {
	logger.ExternalServiceCall("payment", "Refund", "charge_id", chargeID)
	if err := ctx.Err(); err != nil {
		logger.ExternalServiceResult("payment", "Refund", err)
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.charges[chargeID]
	if !ok {
		err := fmt.Errorf("refund %s: %w", chargeID, ErrUnknownCharge)
		logger.ExternalServiceResult("payment", "Refund", err)
		return err
	}
	if r.Refunded {
		err := fmt.Errorf("refund %s: %w", chargeID, ErrAlreadyRefund)
		logger.ExternalServiceResult("payment", "Refund", err)
		return err
	}
	r.Refunded = true
	logger.ExternalServiceResult("payment", "Refund", nil, "charge_id", chargeID)
	return nil
}

// Receipts returns every charge taken so far, refunded ones included.
func (g *SimulatedGateway) Receipts() []Receipt {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Receipt, 0, len(g.charges))
	for _, r := range g.charges {
		out = append(out, *r)
	}
	return out
}
