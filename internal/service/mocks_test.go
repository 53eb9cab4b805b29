package service

import (
	"context"

	"github.com/ironmanager/membership-engine/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) GetClientByID(ctx context.Context, id int64) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockLedgerRepository) GetClientByName(ctx context.Context, name string) (*domain.Client, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockLedgerRepository) ListClientNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLedgerRepository) GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockLedgerRepository) HasPaymentForPeriod(ctx context.Context, clientID int64, month, year int, excludeID int64) (bool, error) {
	args := m.Called(ctx, clientID, month, year, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepository) CreatePayment(ctx context.Context, clientName string, payment *domain.Payment) (int64, error) {
	args := m.Called(ctx, clientName, payment)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockLedgerRepository) DeletePayment(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]*domain.PaymentRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentRecord), args.Error(1)
}

func (m *MockLedgerRepository) MonthlyTotals(ctx context.Context, year int) ([]*domain.MonthlyTotal, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MonthlyTotal), args.Error(1)
}

func (m *MockLedgerRepository) ListYears(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockLedgerRepository) ClientStatuses(ctx context.Context, namePattern string) ([]*domain.ClientStatus, error) {
	args := m.Called(ctx, namePattern)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClientStatus), args.Error(1)
}
