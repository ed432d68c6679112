// Package handler exposes eligibility assessment over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"loancore/internal/customer"
	"loancore/internal/eligibility"
	"loancore/internal/eligibility/metrics"
	id "loancore/pkg/domain"
	dErrors "loancore/pkg/domain-errors"
	"loancore/pkg/money"
	"loancore/pkg/platform/httputil"
	"loancore/pkg/platform/sentinel"
	"loancore/pkg/requestcontext"
)

// CustomerStore loads customer profiles for assessment.
type CustomerStore interface {
	FindByID(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error)
}

type Handler struct {
	eligibility *eligibility.Service
	customers   CustomerStore
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func New(svc *eligibility.Service, customers CustomerStore, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{eligibility: svc, customers: customers, metrics: m, logger: logger}
}

// Register wires the eligibility routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/eligibility/assess", h.handleAssess)
	r.Get("/customers/{id}/maximum-loan-amount", h.handleMaximumLoanAmount)
}

type AssessRequest struct {
	CustomerID      string `json:"customer_id"`
	RequestedAmount string `json:"requested_amount"`
	Currency        string `json:"currency"`
}

type AssessResponse struct {
	CustomerID string             `json:"customer_id"`
	Result     eligibility.Result `json:"result"`
}

type MaximumLoanAmountResponse struct {
	CustomerID    string      `json:"customer_id"`
	MaximumAmount money.Money `json:"maximum_amount"`
}

func (h *Handler) handleAssess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[AssessRequest](w, r, h.logger)
	if !ok {
		return
	}
	customerID, err := id.ParseCustomerID(req.CustomerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := money.Parse(req.RequestedAmount, req.Currency)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, ok := h.loadCustomer(ctx, w, customerID)
	if !ok {
		return
	}

	result := h.eligibility.Assess(c, amount, requestcontext.Now(ctx))
	h.metrics.RecordAssessment(string(result.Decision))
	h.logger.InfoContext(ctx, "eligibility assessed",
		"customer_id", customerID,
		"decision", result.Decision,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, AssessResponse{
		CustomerID: customerID.String(),
		Result:     result,
	})
}

func (h *Handler) handleMaximumLoanAmount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := id.ParseCustomerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, ok := h.loadCustomer(ctx, w, customerID)
	if !ok {
		return
	}

	maximum := h.eligibility.MaximumLoanAmount(c, requestcontext.Now(ctx))
	httputil.WriteJSON(w, http.StatusOK, MaximumLoanAmountResponse{
		CustomerID:    customerID.String(),
		MaximumAmount: maximum,
	})
}

func (h *Handler) loadCustomer(ctx context.Context, w http.ResponseWriter, customerID id.CustomerID) (*customer.Customer, bool) {
	c, err := h.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "customer not found"))
			return nil, false
		}
		h.logger.ErrorContext(ctx, "failed to load customer",
			"error", err,
			"customer_id", customerID,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "failed to load customer", err))
		return nil, false
	}
	return c, true
}
