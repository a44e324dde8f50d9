package domain

import "time"

type LedgerEntryType string

const (
	LedgerEntryTypeRentalCharge     LedgerEntryType = "RENTAL_CHARGE"
	LedgerEntryTypeLateFee          LedgerEntryType = "LATE_FEE"
	LedgerEntryTypeDamageCharge     LedgerEntryType = "DAMAGE_CHARGE"
	LedgerEntryTypeAdditionalCharge LedgerEntryType = "ADDITIONAL_CHARGE"
)

type LedgerEntry struct {
	ID          string          `json:"id"`
	AgreementID string          `json:"agreement_id"`
	CustomerID  string          `json:"customer_id"`
	Type        LedgerEntryType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	CreatedOn   time.Time       `json:"created_on"`
}

// LedgerSummary holds the running totals kept by the rental service.
// TotalRevenue only ever counts finalized rental amounts.
type LedgerSummary struct {
	TotalRevenue          float64 `json:"total_revenue"`
	TotalRentalsProcessed int     `json:"total_rentals_processed"`
	TotalAdjustments      float64 `json:"total_adjustments"`
	ActiveAgreements      int     `json:"active_agreements"`
}
