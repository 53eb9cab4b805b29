package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrClientNotFound  = errors.New("client not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrDuplicatePeriod = errors.New("client already has a payment for that period")
	ErrInvalidInput    = errors.New("invalid input")
	ErrOutOfSequence   = errors.New("out-of-sequence payment not confirmed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeClientNotFound  = "CLIENT_NOT_FOUND"
	ErrCodePaymentNotFound = "PAYMENT_NOT_FOUND"
	ErrCodeDuplicatePeriod = "DUPLICATE_PERIOD"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeOutOfSequence   = "OUT_OF_SEQUENCE"
	ErrCodeDatabaseError   = "DATABASE_ERROR"
	ErrCodeCacheError      = "CACHE_ERROR"
)

// OutOfSequenceError aborts a registration whose period is not the expected
// next one until the caller explicitly confirms. It carries the expected
// period so the caller can present the warning.
type OutOfSequenceError struct {
	ExpectedMonth int
	ExpectedYear  int
}

func (e *OutOfSequenceError) Error() string {
	return fmt.Sprintf("%s: next expected payment is for %d/%d",
		ErrCodeOutOfSequence, e.ExpectedMonth, e.ExpectedYear)
}

func (e *OutOfSequenceError) Unwrap() error {
	return ErrOutOfSequence
}

func WrapOutOfSequence(expectedMonth, expectedYear int) *OutOfSequenceError {
	return &OutOfSequenceError{
		ExpectedMonth: expectedMonth,
		ExpectedYear:  expectedYear,
	}
}

// Wrap common errors with business context
func WrapClientNotFound(clientID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeClientNotFound,
		fmt.Sprintf("Client with ID %d not found", clientID),
		ErrClientNotFound,
	)
}

func WrapPaymentNotFound(paymentID int64) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("Payment with ID %d not found", paymentID),
		ErrPaymentNotFound,
	)
}

func WrapDuplicatePeriod(clientName string, month, year int) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicatePeriod,
		fmt.Sprintf("Client %s already paid period %d/%d", clientName, month, year),
		ErrDuplicatePeriod,
	)
}

func WrapInvalidInput(message string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidInput,
		message,
		ErrInvalidInput,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
