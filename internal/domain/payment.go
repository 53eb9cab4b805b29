package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a single monthly membership payment. A payment belongs to
// exactly one client and covers exactly one (month, year) period; the
// recorded date is the day the payment was entered, not the covered period.
type Payment struct {
	ID          int64           `json:"id"`
	ClientID    int64           `json:"client_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	Description string          `json:"description,omitempty"`
}

// Period returns the covered period of the payment.
func (p *Payment) Period() Period {
	return Period{Month: p.Month, Year: p.Year}
}

// LatestOf returns the payment with the greatest (year, month) period,
// ties broken by highest id, or nil for an empty set. The client's
// last-payment pointer must always equal this value; it is re-derived
// after every mutation rather than patched incrementally.
func LatestOf(payments []*Payment) *Payment {
	var latest *Payment
	for _, p := range payments {
		if latest == nil {
			latest = p
			continue
		}
		if p.Period().After(latest.Period()) {
			latest = p
			continue
		}
		if p.Period() == latest.Period() && p.ID > latest.ID {
			latest = p
		}
	}
	return latest
}

// DTOs for requests and responses

type RegisterPaymentRequest struct {
	ClientName  string          `json:"client_name" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Month       int             `json:"month" validate:"required,min=1,max=12"`
	Year        int             `json:"year" validate:"required"`
	Description string          `json:"description"`
	// Confirm acknowledges the out-of-sequence warning; a registration
	// whose period is not the expected next one is rejected without it.
	Confirm bool `json:"confirm"`
}

type EditPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Month       int             `json:"month" validate:"required,min=1,max=12"`
	Year        int             `json:"year" validate:"required"`
	Description string          `json:"description"`
}

type RegisterPaymentResponse struct {
	PaymentID int64 `json:"payment_id"`
}

// PaymentRecord is a listing row: payment joined with its client name.
type PaymentRecord struct {
	PaymentID   int64           `json:"payment_id"`
	ClientName  string          `json:"client_name"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
}

// PaymentFilter narrows ListPayments. Zero values mean "no filter";
// NamePattern matches client names by case-insensitive substring.
type PaymentFilter struct {
	NamePattern string
	Month       int
	Year        int
}

type MonthlyTotal struct {
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}
