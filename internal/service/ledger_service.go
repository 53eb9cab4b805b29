package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ironmanager/membership-engine/internal/config"
	"github.com/ironmanager/membership-engine/internal/domain"
	"github.com/ironmanager/membership-engine/internal/repository"
	customError "github.com/ironmanager/membership-engine/pkg/errors"
	"github.com/ironmanager/membership-engine/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyClientNames = "ledger:client_names"
	cacheKeyTotals      = "ledger:totals:%d"
)

// LedgerService is the payment consistency engine. It validates input,
// enforces the one-payment-per-client-per-period rule and the
// out-of-sequence confirmation, and leaves pointer maintenance to the
// repository's transactional mutations.
type LedgerService struct {
	repo     repository.LedgerRepository
	redis    *redis.Client
	cfg      *config.Config
	validate *validator.Validate

	// now stamps the recorded date of new payments; injectable for tests.
	now func() time.Time
}

func NewLedgerService(repo repository.LedgerRepository, redisClient *redis.Client, cfg *config.Config) *LedgerService {
	return &LedgerService{
		repo:     repo,
		redis:    redisClient,
		cfg:      cfg,
		validate: validator.New(),
		now:      time.Now,
	}
}

// RegisterPayment records a payment for the named client, creating the
// client on first registration. A payment for a period other than the
// expected next one is rejected with the expected period until the caller
// confirms; a payment for an already-covered period is always rejected.
func (s *LedgerService) RegisterPayment(ctx context.Context, req *domain.RegisterPaymentRequest) (int64, error) {
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.Description = strings.TrimSpace(req.Description)

	if err := s.validate.Struct(req); err != nil {
		return 0, customError.WrapInvalidInput(err.Error())
	}
	if !utils.ValidAmount(req.Amount) {
		return 0, customError.WrapInvalidInput("amount must be positive with at most 2 decimal places")
	}

	client, err := s.repo.GetClientByName(ctx, req.ClientName)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, customError.WrapDatabaseError(err)
	}

	if client != nil {
		dup, err := s.repo.HasPaymentForPeriod(ctx, client.ID, req.Month, req.Year, 0)
		if err != nil {
			return 0, customError.WrapDatabaseError(err)
		}
		if dup {
			return 0, customError.WrapDuplicatePeriod(req.ClientName, req.Month, req.Year)
		}

		if client.LastPaymentID != nil {
			last, err := s.repo.GetPaymentByID(ctx, *client.LastPaymentID)
			if err != nil {
				return 0, customError.WrapDatabaseError(err)
			}

			expected := last.Period().Next()
			if domain.NewPeriod(req.Month, req.Year) != expected && !req.Confirm {
				return 0, customError.WrapOutOfSequence(expected.Month, expected.Year)
			}
		}
	}

	payment := &domain.Payment{
		Date:        s.now(),
		Amount:      req.Amount,
		Month:       req.Month,
		Year:        req.Year,
		Description: req.Description,
	}

	id, err := s.repo.CreatePayment(ctx, req.ClientName, payment)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	s.invalidateCaches(ctx, req.Year)

	return id, nil
}

// EditPayment updates a payment's amount, covered period, and description.
// The owning client and the recorded date are immutable.
func (s *LedgerService) EditPayment(ctx context.Context, paymentID int64, req *domain.EditPaymentRequest) error {
	req.Description = strings.TrimSpace(req.Description)

	if err := s.validate.Struct(req); err != nil {
		return customError.WrapInvalidInput(err.Error())
	}
	if !utils.ValidAmount(req.Amount) {
		return customError.WrapInvalidInput("amount must be positive with at most 2 decimal places")
	}

	payment, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapPaymentNotFound(paymentID)
		}
		return customError.WrapDatabaseError(err)
	}

	dup, err := s.repo.HasPaymentForPeriod(ctx, payment.ClientID, req.Month, req.Year, paymentID)
	if err != nil {
		return customError.WrapDatabaseError(err)
	}
	if dup {
		client, err := s.repo.GetClientByID(ctx, payment.ClientID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		return customError.WrapDuplicatePeriod(client.Name, req.Month, req.Year)
	}

	oldYear := payment.Year
	payment.Amount = req.Amount
	payment.Month = req.Month
	payment.Year = req.Year
	payment.Description = req.Description

	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapPaymentNotFound(paymentID)
		}
		return customError.WrapDatabaseError(err)
	}

	s.invalidateCaches(ctx, oldYear, req.Year)

	return nil
}

// DeletePayment removes a payment. When it was the client's only payment
// the client is pruned along with it.
func (s *LedgerService) DeletePayment(ctx context.Context, paymentID int64) error {
	payment, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapPaymentNotFound(paymentID)
		}
		return customError.WrapDatabaseError(err)
	}

	if err := s.repo.DeletePayment(ctx, payment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapPaymentNotFound(paymentID)
		}
		return customError.WrapDatabaseError(err)
	}

	s.invalidateCaches(ctx, payment.Year)

	return nil
}

// ComputeStatus derives a client's standing relative to an explicitly
// supplied current period. A client who never paid is delinquent.
func (s *LedgerService) ComputeStatus(ctx context.Context, clientID int64, current domain.Period) (*domain.ClientStatus, error) {
	client, err := s.repo.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapClientNotFound(clientID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	status := &domain.ClientStatus{
		ClientID: client.ID,
		Name:     client.Name,
		Severity: domain.SeverityDelinquent,
	}

	if client.LastPaymentID == nil {
		return status, nil
	}

	last, err := s.repo.GetPaymentByID(ctx, *client.LastPaymentID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	status.LastMonth = &last.Month
	status.LastYear = &last.Year
	status.Severity = domain.Classify(last.Period(), current)

	return status, nil
}

// ClientStatuses derives the standing of every client matching the name
// pattern, ordered by name.
func (s *LedgerService) ClientStatuses(ctx context.Context, namePattern string, current domain.Period) ([]*domain.ClientStatus, error) {
	statuses, err := s.repo.ClientStatuses(ctx, namePattern)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	for _, st := range statuses {
		if st.LastMonth == nil || st.LastYear == nil {
			st.Severity = domain.SeverityDelinquent
			continue
		}
		st.Severity = domain.Classify(domain.NewPeriod(*st.LastMonth, *st.LastYear), current)
	}

	return statuses, nil
}

// SeveritySummary counts clients per severity for the given period.
func (s *LedgerService) SeveritySummary(ctx context.Context, current domain.Period) (map[domain.Severity]int, error) {
	statuses, err := s.ClientStatuses(ctx, "", current)
	if err != nil {
		return nil, err
	}

	summary := make(map[domain.Severity]int)
	for _, st := range statuses {
		summary[st.Severity]++
	}

	return summary, nil
}

// ListPayments returns listing rows matching the filter.
func (s *LedgerService) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]*domain.PaymentRecord, error) {
	records, err := s.repo.ListPayments(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return records, nil
}

// MonthlyTotals sums payment amounts per covered month of a year. Months
// without payments are absent from the result.
func (s *LedgerService) MonthlyTotals(ctx context.Context, year int) ([]*domain.MonthlyTotal, error) {
	key := fmt.Sprintf(cacheKeyTotals, year)

	if s.redis != nil {
		raw, err := s.redis.Get(ctx, key).Result()
		if err == nil {
			var totals []*domain.MonthlyTotal
			if jsonErr := json.Unmarshal([]byte(raw), &totals); jsonErr == nil {
				return totals, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("%v", customError.WrapCacheError(err))
		}
	}

	totals, err := s.repo.MonthlyTotals(ctx, year)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.cacheSet(ctx, key, totals)

	return totals, nil
}

// ListYears returns the distinct covered years, most recent first.
func (s *LedgerService) ListYears(ctx context.Context) ([]int, error) {
	years, err := s.repo.ListYears(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return years, nil
}

// ListClientNames returns all client names, used by autocomplete fields.
func (s *LedgerService) ListClientNames(ctx context.Context) ([]string, error) {
	if s.redis != nil {
		raw, err := s.redis.Get(ctx, cacheKeyClientNames).Result()
		if err == nil {
			var names []string
			if jsonErr := json.Unmarshal([]byte(raw), &names); jsonErr == nil {
				return names, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("%v", customError.WrapCacheError(err))
		}
	}

	names, err := s.repo.ListClientNames(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.cacheSet(ctx, cacheKeyClientNames, names)

	return names, nil
}

func (s *LedgerService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.redis == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, key, raw, s.cfg.GetCacheTTL()).Err(); err != nil {
		log.Printf("%v", customError.WrapCacheError(err))
	}
}

// invalidateCaches drops the cached client names and the totals of every
// year touched by a mutation. Cache failures are logged, never fatal.
func (s *LedgerService) invalidateCaches(ctx context.Context, years ...int) {
	if s.redis == nil {
		return
	}

	keys := []string{cacheKeyClientNames}
	seen := make(map[int]bool)
	for _, year := range years {
		if !seen[year] {
			keys = append(keys, fmt.Sprintf(cacheKeyTotals, year))
			seen[year] = true
		}
	}

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("%v", customError.WrapCacheError(err))
	}
}
