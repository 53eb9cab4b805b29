package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ironmanager/membership-engine/internal/config"
	"github.com/ironmanager/membership-engine/internal/domain"
	customError "github.com/ironmanager/membership-engine/pkg/errors"
)

func newTestService(repo *MockLedgerRepository) *LedgerService {
	svc := NewLedgerService(repo, nil, &config.Config{})
	svc.now = func() time.Time {
		return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	}
	return svc
}

func int64Ptr(v int64) *int64 { return &v }

func TestRegisterPayment_NewClient(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	repo.On("GetClientByName", mock.Anything, "Ana Torres").Return(nil, sql.ErrNoRows)
	repo.On("CreatePayment", mock.Anything, "Ana Torres", mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Month == 6 && p.Year == 2024 &&
			p.Amount.Equal(decimal.RequireFromString("50.00")) &&
			p.Date.Equal(time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC))
	})).Return(int64(1), nil)

	id, err := svc.RegisterPayment(context.Background(), &domain.RegisterPaymentRequest{
		ClientName: "  Ana Torres ",
		Amount:     decimal.RequireFromString("50.00"),
		Month:      6,
		Year:       2024,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), id)
	repo.AssertExpectations(t)
}

func TestRegisterPayment_InSequence(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	client := &domain.Client{ID: 3, Name: "Ana Torres", LastPaymentID: int64Ptr(7)}
	repo.On("GetClientByName", mock.Anything, "Ana Torres").Return(client, nil)
	repo.On("HasPaymentForPeriod", mock.Anything, int64(3), 6, 2024, int64(0)).Return(false, nil)
	repo.On("GetPaymentByID", mock.Anything, int64(7)).
		Return(&domain.Payment{ID: 7, ClientID: 3, Month: 5, Year: 2024}, nil)
	repo.On("CreatePayment", mock.Anything, "Ana Torres", mock.Anything).Return(int64(8), nil)

	id, err := svc.RegisterPayment(context.Background(), &domain.RegisterPaymentRequest{
		ClientName: "Ana Torres",
		Amount:     decimal.RequireFromString("50"),
		Month:      6,
		Year:       2024,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(8), id)
	repo.AssertExpectations(t)
}

func TestRegisterPayment_DuplicatePeriod(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	client := &domain.Client{ID: 3, Name: "Ana Torres", LastPaymentID: int64Ptr(7)}
	repo.On("GetClientByName", mock.Anything, "Ana Torres").Return(client, nil)
	repo.On("HasPaymentForPeriod", mock.Anything, int64(3), 6, 2024, int64(0)).Return(true, nil)

	_, err := svc.RegisterPayment(context.Background(), &domain.RegisterPaymentRequest{
		ClientName: "Ana Torres",
		Amount:     decimal.RequireFromString("50"),
		Month:      6,
		Year:       2024,
	})

	assert.ErrorIs(t, err, customError.ErrDuplicatePeriod)
	repo.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterPayment_OutOfSequenceUnconfirmed(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	client := &domain.Client{ID: 3, Name: "Ana Torres", LastPaymentID: int64Ptr(7)}
	repo.On("GetClientByName", mock.Anything, "Ana Torres").Return(client, nil)
	repo.On("HasPaymentForPeriod", mock.Anything, int64(3), 8, 2024, int64(0)).Return(false, nil)
	repo.On("GetPaymentByID", mock.Anything, int64(7)).
		Return(&domain.Payment{ID: 7, ClientID: 3, Month: 5, Year: 2024}, nil)

	_, err := svc.RegisterPayment(context.Background(), &domain.RegisterPaymentRequest{
		ClientName: "Ana Torres",
		Amount:     decimal.RequireFromString("50"),
		Month:      8,
		Year:       2024,
	})

	var outOfSeq *customError.OutOfSequenceError
	assert.ErrorAs(t, err, &outOfSeq)
	assert.Equal(t, 6, outOfSeq.ExpectedMonth)
	assert.Equal(t, 2024, outOfSeq.ExpectedYear)

	// Declining the warning must leave no writes behind.
	repo.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterPayment_OutOfSequenceConfirmed(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	client := &domain.Client{ID: 3, Name: "Ana Torres", LastPaymentID: int64Ptr(7)}
	repo.On("GetClientByName", mock.Anything, "Ana Torres").Return(client, nil)
	repo.On("HasPaymentForPeriod", mock.Anything, int64(3), 8, 2024, int64(0)).Return(false, nil)
	repo.On("GetPaymentByID", mock.Anything, int64(7)).
		Return(&domain.Payment{ID: 7, ClientID: 3, Month: 5, Year: 2024}, nil)
	repo.On("CreatePayment", mock.Anything, "Ana Torres", mock.Anything).Return(int64(9), nil)

	id, err := svc.RegisterPayment(context.Background(), &domain.RegisterPaymentRequest{
		ClientName: "Ana Torres",
		Amount:     decimal.RequireFromString("50"),
		Month:      8,
		Year:       2024,
		Confirm:    true,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(9), id)
	repo.AssertExpectations(t)
}

func TestRegisterPayment_DecemberRollsOver(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	client := &domain.Client{ID: 3, Name: "Ana Torres", LastPaymentID: int64Ptr(7)}
	repo.On("GetClientByName", mock.Anything, "Ana Torres").Return(client, nil)
	repo.On("HasPaymentForPeriod", mock.Anything, int64(3), 1, 2025, int64(0)).Return(false, nil)
	repo.On("GetPaymentByID", mock.Anything, int64(7)).
		Return(&domain.Payment{ID: 7, ClientID: 3, Month: 12, Year: 2024}, nil)
	repo.On("CreatePayment", mock.Anything, "Ana Torres", mock.Anything).Return(int64(10), nil)

	// January 2025 after December 2024 is the expected sequence.
	id, err := svc.RegisterPayment(context.Background(), &domain.RegisterPaymentRequest{
		ClientName: "Ana Torres",
		Amount:     decimal.RequireFromString("50"),
		Month:      1,
		Year:       2025,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(10), id)
	repo.AssertExpectations(t)
}

func TestRegisterPayment_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  *domain.RegisterPaymentRequest
	}{
		{
			name: "empty client name",
			req: &domain.RegisterPaymentRequest{
				ClientName: "   ",
				Amount:     decimal.RequireFromString("50"),
				Month:      6,
				Year:       2024,
			},
		},
		{
			name: "month out of range",
			req: &domain.RegisterPaymentRequest{
				ClientName: "Ana Torres",
				Amount:     decimal.RequireFromString("50"),
				Month:      13,
				Year:       2024,
			},
		},
		{
			name: "zero amount",
			req: &domain.RegisterPaymentRequest{
				ClientName: "Ana Torres",
				Month:      6,
				Year:       2024,
			},
		},
		{
			name: "too many decimal places",
			req: &domain.RegisterPaymentRequest{
				ClientName: "Ana Torres",
				Amount:     decimal.RequireFromString("10.005"),
				Month:      6,
				Year:       2024,
			},
		},
		{
			name: "negative amount",
			req: &domain.RegisterPaymentRequest{
				ClientName: "Ana Torres",
				Amount:     decimal.RequireFromString("-50"),
				Month:      6,
				Year:       2024,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockLedgerRepository{}
			svc := newTestService(repo)

			_, err := svc.RegisterPayment(context.Background(), tt.req)

			assert.ErrorIs(t, err, customError.ErrInvalidInput)
			repo.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestEditPayment_Success(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	repo.On("GetPaymentByID", mock.Anything, int64(5)).
		Return(&domain.Payment{ID: 5, ClientID: 3, Month: 5, Year: 2024,
			Amount: decimal.RequireFromString("50")}, nil)
	repo.On("HasPaymentForPeriod", mock.Anything, int64(3), 7, 2024, int64(5)).Return(false, nil)
	repo.On("UpdatePayment", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.ID == 5 && p.Month == 7 && p.Year == 2024 &&
			p.Amount.Equal(decimal.RequireFromString("55.50"))
	})).Return(nil)

	err := svc.EditPayment(context.Background(), 5, &domain.EditPaymentRequest{
		Amount: decimal.RequireFromString("55.50"),
		Month:  7,
		Year:   2024,
	})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEditPayment_DuplicatePeriod(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	repo.On("GetPaymentByID", mock.Anything, int64(5)).
		Return(&domain.Payment{ID: 5, ClientID: 3, Month: 5, Year: 2024}, nil)
	repo.On("HasPaymentForPeriod", mock.Anything, int64(3), 6, 2024, int64(5)).Return(true, nil)
	repo.On("GetClientByID", mock.Anything, int64(3)).
		Return(&domain.Client{ID: 3, Name: "Ana Torres"}, nil)

	err := svc.EditPayment(context.Background(), 5, &domain.EditPaymentRequest{
		Amount: decimal.RequireFromString("50"),
		Month:  6,
		Year:   2024,
	})

	assert.ErrorIs(t, err, customError.ErrDuplicatePeriod)
	repo.AssertNotCalled(t, "UpdatePayment", mock.Anything, mock.Anything)
}

func TestEditPayment_NotFound(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	repo.On("GetPaymentByID", mock.Anything, int64(99)).Return(nil, sql.ErrNoRows)

	err := svc.EditPayment(context.Background(), 99, &domain.EditPaymentRequest{
		Amount: decimal.RequireFromString("50"),
		Month:  6,
		Year:   2024,
	})

	assert.ErrorIs(t, err, customError.ErrPaymentNotFound)
}

func TestDeletePayment_Success(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	payment := &domain.Payment{ID: 5, ClientID: 3, Month: 5, Year: 2024}
	repo.On("GetPaymentByID", mock.Anything, int64(5)).Return(payment, nil)
	repo.On("DeletePayment", mock.Anything, payment).Return(nil)

	assert.NoError(t, svc.DeletePayment(context.Background(), 5))
	repo.AssertExpectations(t)
}

func TestDeletePayment_NotFound(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	repo.On("GetPaymentByID", mock.Anything, int64(99)).Return(nil, sql.ErrNoRows)

	err := svc.DeletePayment(context.Background(), 99)

	assert.ErrorIs(t, err, customError.ErrPaymentNotFound)
}

func TestComputeStatus(t *testing.T) {
	current := domain.NewPeriod(6, 2024)

	tests := []struct {
		name       string
		lastPeriod *domain.Period
		expected   domain.Severity
	}{
		{"paid this period", &domain.Period{Month: 6, Year: 2024}, domain.SeverityCurrent},
		{"one month behind", &domain.Period{Month: 5, Year: 2024}, domain.SeverityOverdue},
		{"three months behind", &domain.Period{Month: 3, Year: 2024}, domain.SeverityDelinquent},
		{"never paid", nil, domain.SeverityDelinquent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockLedgerRepository{}
			svc := newTestService(repo)

			client := &domain.Client{ID: 3, Name: "Ana Torres"}
			if tt.lastPeriod != nil {
				client.LastPaymentID = int64Ptr(7)
				repo.On("GetPaymentByID", mock.Anything, int64(7)).
					Return(&domain.Payment{ID: 7, ClientID: 3,
						Month: tt.lastPeriod.Month, Year: tt.lastPeriod.Year}, nil)
			}
			repo.On("GetClientByID", mock.Anything, int64(3)).Return(client, nil)

			status, err := svc.ComputeStatus(context.Background(), 3, current)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, status.Severity)
			if tt.lastPeriod == nil {
				assert.Nil(t, status.LastMonth)
				assert.Nil(t, status.LastYear)
			} else {
				assert.Equal(t, tt.lastPeriod.Month, *status.LastMonth)
				assert.Equal(t, tt.lastPeriod.Year, *status.LastYear)
			}
		})
	}
}

func TestComputeStatus_UnknownClient(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	repo.On("GetClientByID", mock.Anything, int64(42)).Return(nil, sql.ErrNoRows)

	_, err := svc.ComputeStatus(context.Background(), 42, domain.NewPeriod(6, 2024))

	assert.ErrorIs(t, err, customError.ErrClientNotFound)
}

func TestClientStatuses(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	month5, year2024 := 5, 2024
	repo.On("ClientStatuses", mock.Anything, "").Return([]*domain.ClientStatus{
		{ClientID: 1, Name: "Ana Torres", LastMonth: &month5, LastYear: &year2024},
		{ClientID: 2, Name: "Bruno Diaz"},
	}, nil)

	statuses, err := svc.ClientStatuses(context.Background(), "", domain.NewPeriod(6, 2024))

	assert.NoError(t, err)
	assert.Len(t, statuses, 2)
	assert.Equal(t, domain.SeverityOverdue, statuses[0].Severity)
	assert.Equal(t, domain.SeverityDelinquent, statuses[1].Severity)
}

func TestRegisterPayment_DatabaseError(t *testing.T) {
	repo := &MockLedgerRepository{}
	svc := newTestService(repo)

	repo.On("GetClientByName", mock.Anything, "Ana Torres").
		Return(nil, errors.New("database connection error"))

	_, err := svc.RegisterPayment(context.Background(), &domain.RegisterPaymentRequest{
		ClientName: "Ana Torres",
		Amount:     decimal.RequireFromString("50"),
		Month:      6,
		Year:       2024,
	})

	var bizErr *customError.BusinessError
	assert.ErrorAs(t, err, &bizErr)
	assert.Equal(t, customError.ErrCodeDatabaseError, bizErr.Code)
}
