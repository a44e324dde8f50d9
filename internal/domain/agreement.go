package domain

import (
	"fmt"
	"time"
)

type AgreementState string

const (
	AgreementStateDraft  AgreementState = "DRAFT"
	AgreementStateActive AgreementState = "ACTIVE"
	AgreementStateClosed AgreementState = "CLOSED"
)

const (
	depositRate          = 0.1
	insuredDepositFactor = 0.5
)

type Agreement struct {
	ID                string             `json:"id"`
	CustomerID        string             `json:"customer_id"`
	ItemID            string             `json:"item_id"`
	Category          ItemCategory       `json:"category"`
	DurationDays      int                `json:"duration_days"`
	TotalAmount       float64            `json:"total_amount"`
	SecurityDeposit   float64            `json:"security_deposit"`
	InsuranceIncluded bool               `json:"insurance_included"`
	AdditionalCharges map[string]float64 `json:"additional_charges"`
	State             AgreementState     `json:"state"`
	StartDate         time.Time          `json:"start_date"`
	EndDate           time.Time          `json:"end_date"`
	ClosedAt          *time.Time         `json:"closed_at,omitempty"`
	ReturnCondition   ItemCondition      `json:"return_condition,omitempty"`
}

// NewAgreement builds a draft agreement. Nothing is priced yet.
func NewAgreement(id, customerID, itemID string, category ItemCategory, durationDays int) *Agreement {
	return &Agreement{
		ID:                id,
		CustomerID:        customerID,
		ItemID:            itemID,
		Category:          category,
		DurationDays:      durationDays,
		AdditionalCharges: make(map[string]float64),
		State:             AgreementStateDraft,
	}
}

// Finalize moves a draft agreement to ACTIVE, fixing its amount, deposit and
// rental window.
func (a *Agreement) Finalize(amount float64, insurance bool, start time.Time) error {
	if a.State != AgreementStateDraft {
		return fmt.Errorf("finalize agreement %s in state %s: %w", a.ID, a.State, ErrInvalidTransition)
	}
	if amount < 0 {
		return fmt.Errorf("finalize agreement %s: negative amount %.2f: %w", a.ID, amount, ErrInvalidRequest)
	}

	deposit := amount * depositRate
	if insurance {
		deposit *= insuredDepositFactor
	}

	a.TotalAmount = amount
	a.InsuranceIncluded = insurance
	a.SecurityDeposit = deposit
	a.StartDate = start
	a.EndDate = start.AddDate(0, 0, a.DurationDays)
	a.State = AgreementStateActive
	return nil
}

// ApplyDamagePenalty takes the cost out of the security deposit first and
// bills whatever the deposit does not cover.
func (a *Agreement) ApplyDamagePenalty(cost float64) error {
	if err := a.requireActive("apply damage penalty"); err != nil {
		return err
	}
	if cost <= 0 {
		return nil
	}

	covered := cost
	if covered > a.SecurityDeposit {
		covered = a.SecurityDeposit
	}
	a.SecurityDeposit -= covered
	a.TotalAmount += cost - covered
	return nil
}

func (a *Agreement) AddAdditionalCharge(description string, amount float64) error {
	if err := a.requireActive("add charge"); err != nil {
		return err
	}
	if description == "" {
		return fmt.Errorf("add charge to agreement %s: empty description: %w", a.ID, ErrInvalidRequest)
	}
	if amount < 0 {
		return fmt.Errorf("add charge to agreement %s: negative amount %.2f: %w", a.ID, amount, ErrInvalidRequest)
	}
	a.AdditionalCharges[description] += amount
	a.TotalAmount += amount
	return nil
}

// IsOverdue reports whether an active agreement has run past its end date.
func (a *Agreement) IsOverdue(now time.Time) bool {
	return a.State == AgreementStateActive && now.After(a.EndDate)
}

// Close ends the agreement. A closed agreement accepts no further changes.
func (a *Agreement) Close(at time.Time) error {
	if err := a.requireActive("close"); err != nil {
		return err
	}
	a.State = AgreementStateClosed
	a.ClosedAt = &at
	return nil
}

// Clone returns a deep copy so callers can't reach into live state.
func (a *Agreement) Clone() *Agreement {
	if a == nil {
		return nil
	}
	c := *a
	c.AdditionalCharges = make(map[string]float64, len(a.AdditionalCharges))
	for k, v := range a.AdditionalCharges {
		c.AdditionalCharges[k] = v
	}
	if a.ClosedAt != nil {
		closed := *a.ClosedAt
		c.ClosedAt = &closed
	}
	return &c
}

func (a *Agreement) requireActive(op string) error {
	switch a.State {
	case AgreementStateActive:
		return nil
	case AgreementStateClosed:
		return fmt.Errorf("%s on agreement %s: %w", op, a.ID, ErrAgreementClosed)
	default:
		return fmt.Errorf("%s on agreement %s in state %s: %w", op, a.ID, a.State, ErrInvalidTransition)
	}
}
