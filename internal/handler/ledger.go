package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ironmanager/membership-engine/internal/domain"
	"github.com/ironmanager/membership-engine/internal/service"
	customError "github.com/ironmanager/membership-engine/pkg/errors"
	"github.com/ironmanager/membership-engine/pkg/response"

	"github.com/gorilla/mux"
)

type LedgerHandler struct {
	service *service.LedgerService
}

func NewLedgerHandler(service *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// RegisterPayment handles POST /api/v1/payments
func (h *LedgerHandler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	id, err := h.service.RegisterPayment(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Created(w, domain.RegisterPaymentResponse{PaymentID: id})
}

// EditPayment handles PUT /api/v1/payments/{paymentId}
func (h *LedgerHandler) EditPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "paymentId")
	if !ok {
		return
	}

	var req domain.EditPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.service.EditPayment(r.Context(), paymentID, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, nil)
}

// DeletePayment handles DELETE /api/v1/payments/{paymentId}
func (h *LedgerHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := pathID(w, r, "paymentId")
	if !ok {
		return
	}

	if err := h.service.DeletePayment(r.Context(), paymentID); err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, nil)
}

// ListPayments handles GET /api/v1/payments
func (h *LedgerHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := domain.PaymentFilter{NamePattern: r.URL.Query().Get("name")}

	month, ok := queryInt(w, r, "month")
	if !ok {
		return
	}
	year, ok := queryInt(w, r, "year")
	if !ok {
		return
	}
	filter.Month = month
	filter.Year = year

	records, err := h.service.ListPayments(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, records)
}

// ClientStatus handles GET /api/v1/clients/{clientId}/status
func (h *LedgerHandler) ClientStatus(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(w, r, "clientId")
	if !ok {
		return
	}

	current, ok := currentPeriod(w, r)
	if !ok {
		return
	}

	status, err := h.service.ComputeStatus(r.Context(), clientID, current)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, status)
}

// ClientStatuses handles GET /api/v1/clients/status
func (h *LedgerHandler) ClientStatuses(w http.ResponseWriter, r *http.Request) {
	current, ok := currentPeriod(w, r)
	if !ok {
		return
	}

	statuses, err := h.service.ClientStatuses(r.Context(), r.URL.Query().Get("name"), current)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, statuses)
}

// ClientNames handles GET /api/v1/clients/names
func (h *LedgerHandler) ClientNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.ListClientNames(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, names)
}

// MonthlyTotals handles GET /api/v1/reports/monthly-totals
func (h *LedgerHandler) MonthlyTotals(w http.ResponseWriter, r *http.Request) {
	year, ok := queryInt(w, r, "year")
	if !ok {
		return
	}
	if year == 0 {
		response.BadRequest(w, "year query parameter is required", nil)
		return
	}

	totals, err := h.service.MonthlyTotals(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, totals)
}

// Years handles GET /api/v1/reports/years
func (h *LedgerHandler) Years(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.ListYears(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, years)
}

// pathID extracts a positive integer path variable, answering 400 itself
// when the value is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid "+name, err)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.BadRequest(w, "Invalid "+name+" query parameter", err)
		return 0, false
	}
	return v, true
}

// currentPeriod reads the month/year query pair used as "now" by status
// computations, falling back to the server clock when absent.
func currentPeriod(w http.ResponseWriter, r *http.Request) (domain.Period, bool) {
	month, ok := queryInt(w, r, "month")
	if !ok {
		return domain.Period{}, false
	}
	year, ok := queryInt(w, r, "year")
	if !ok {
		return domain.Period{}, false
	}

	if month == 0 && year == 0 {
		now := time.Now()
		return domain.NewPeriod(int(now.Month()), now.Year()), true
	}

	current := domain.NewPeriod(month, year)
	if !current.Valid() || year == 0 {
		response.BadRequest(w, "month and year must be supplied together, month in 1..12", nil)
		return domain.Period{}, false
	}

	return current, true
}

// writeServiceError maps engine errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var outOfSeq *customError.OutOfSequenceError
	if errors.As(err, &outOfSeq) {
		response.ErrorWithCode(w, http.StatusConflict, customError.ErrCodeOutOfSequence,
			"Payment is out of sequence; retry with confirm to register anyway", err,
			domain.NewPeriod(outOfSeq.ExpectedMonth, outOfSeq.ExpectedYear))
		return
	}

	var bizErr *customError.BusinessError
	if errors.As(err, &bizErr) {
		switch bizErr.Code {
		case customError.ErrCodeInvalidInput:
			response.ErrorWithCode(w, http.StatusBadRequest, bizErr.Code, bizErr.Message, err, nil)
		case customError.ErrCodeClientNotFound, customError.ErrCodePaymentNotFound:
			response.ErrorWithCode(w, http.StatusNotFound, bizErr.Code, bizErr.Message, err, nil)
		case customError.ErrCodeDuplicatePeriod:
			response.ErrorWithCode(w, http.StatusConflict, bizErr.Code, bizErr.Message, err, nil)
		default:
			response.ErrorWithCode(w, http.StatusInternalServerError, bizErr.Code, bizErr.Message, err, nil)
		}
		return
	}

	response.InternalServerError(w, "Unexpected error", err)
}
