package domain

import "time"

type CustomerStatus string

const (
	CustomerStatusNew         CustomerStatus = "NEW"
	CustomerStatusRegular     CustomerStatus = "REGULAR"
	CustomerStatusVIP         CustomerStatus = "VIP"
	CustomerStatusBusiness    CustomerStatus = "BUSINESS"
	CustomerStatusBlacklisted CustomerStatus = "BLACKLISTED"
)

func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerStatusNew, CustomerStatusRegular, CustomerStatusVIP, CustomerStatusBusiness, CustomerStatusBlacklisted:
		return true
	}
	return false
}

const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

type Customer struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Status        CustomerStatus `json:"status"`
	CreditScore   int            `json:"credit_score"`
	LoyaltyPoints int            `json:"loyalty_points"`
	Blacklisted   bool           `json:"blacklisted"`
	JoinedOn      time.Time      `json:"joined_on"`
}
