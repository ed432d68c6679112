// Package handler exposes the customer profile endpoints used to seed and
// inspect the underwriting view.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"loancore/internal/customer"
	id "loancore/pkg/domain"
	dErrors "loancore/pkg/domain-errors"
	"loancore/pkg/money"
	"loancore/pkg/platform/httputil"
	"loancore/pkg/platform/sentinel"
	"loancore/pkg/requestcontext"
)

type Handler struct {
	customers customer.Store
	logger    *slog.Logger
}

func New(customers customer.Store, logger *slog.Logger) *Handler {
	return &Handler{customers: customers, logger: logger}
}

// Register wires the customer routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/customers/{id}", h.handleUpsert)
	r.Get("/customers/{id}", h.handleGet)
}

type UpsertCustomerRequest struct {
	FullName                   string `json:"full_name"`
	Email                      string `json:"email"`
	Phone                      string `json:"phone"`
	Active                     bool   `json:"active"`
	CreditScore                int    `json:"credit_score"`
	DateOfBirth                string `json:"date_of_birth"` // RFC 3339 date, e.g. 1990-04-17
	Currency                   string `json:"currency"`
	MonthlyIncome              string `json:"monthly_income"`
	ExistingMonthlyObligations string `json:"existing_monthly_obligations"`
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customerID, err := id.ParseCustomerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[UpsertCustomerRequest](w, r, h.logger)
	if !ok {
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "date_of_birth must be YYYY-MM-DD"))
		return
	}
	income, err := money.Parse(req.MonthlyIncome, req.Currency)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	obligations, err := money.Parse(req.ExistingMonthlyObligations, req.Currency)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c := &customer.Customer{
		ID:                         customerID,
		FullName:                   req.FullName,
		Email:                      req.Email,
		Phone:                      req.Phone,
		Active:                     req.Active,
		CreditScore:                req.CreditScore,
		DateOfBirth:                dob,
		MonthlyIncome:              income,
		ExistingMonthlyObligations: obligations,
	}
	if err := h.customers.Save(ctx, c); err != nil {
		h.logger.ErrorContext(ctx, "failed to save customer",
			"error", err,
			"customer_id", customerID,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "failed to save customer", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.customers.FindByID(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "customer not found"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "failed to load customer", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}
