package repository

import (
	"context"

	"github.com/ironmanager/membership-engine/internal/domain"
)

// LedgerRepository defines the interface for client and payment data
// operations. Mutating methods run their whole write set in a single
// transaction and re-derive the owning client's last-payment pointer
// before committing, so the pointer invariant holds on every path.
type LedgerRepository interface {
	// GetClientByID retrieves a client by id
	GetClientByID(ctx context.Context, id int64) (*domain.Client, error)

	// GetClientByName retrieves a client by exact name match
	GetClientByName(ctx context.Context, name string) (*domain.Client, error)

	// ListClientNames returns all client names ordered ascending
	ListClientNames(ctx context.Context) ([]string, error)

	// GetPaymentByID retrieves a payment by id
	GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error)

	// HasPaymentForPeriod reports whether the client already has a payment
	// covering (month, year); excludeID ignores one payment id (0 for none)
	HasPaymentForPeriod(ctx context.Context, clientID int64, month, year int, excludeID int64) (bool, error)

	// CreatePayment inserts a payment, creating the client by name when it
	// does not exist yet, and repoints the client's latest payment
	CreatePayment(ctx context.Context, clientName string, payment *domain.Payment) (int64, error)

	// UpdatePayment updates a payment's mutable fields and repoints the
	// client's latest payment
	UpdatePayment(ctx context.Context, payment *domain.Payment) error

	// DeletePayment deletes a payment, repoints the client's latest
	// payment, and prunes the client when no payments remain
	DeletePayment(ctx context.Context, payment *domain.Payment) error

	// ListPayments returns listing rows matching the filter, ordered by
	// client name ascending
	ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]*domain.PaymentRecord, error)

	// MonthlyTotals sums payment amounts per covered month of a year
	MonthlyTotals(ctx context.Context, year int) ([]*domain.MonthlyTotal, error)

	// ListYears returns the distinct covered years, descending
	ListYears(ctx context.Context) ([]int, error)

	// ClientStatuses returns each client with the period of its latest
	// payment, filtered by case-insensitive name substring when non-empty
	ClientStatuses(ctx context.Context, namePattern string) ([]*domain.ClientStatus, error)
}
