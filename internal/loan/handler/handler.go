// Package handler exposes the loan lifecycle over HTTP. Handlers stay thin:
// parse, delegate to the service, translate errors.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"loancore/internal/loan"
	id "loancore/pkg/domain"
	dErrors "loancore/pkg/domain-errors"
	"loancore/pkg/money"
	"loancore/pkg/platform/httputil"
	"loancore/pkg/requestcontext"
)

// Service defines the loan operations the handler delegates to.
type Service interface {
	CreateLoan(ctx context.Context, customerID id.CustomerID, principal money.Money, rate loan.InterestRate, term loan.Term, withInstallments bool) (*loan.Loan, error)
	GetLoan(ctx context.Context, loanID id.LoanID) (*loan.Loan, error)
	ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*loan.Loan, error)
	GetSchedule(ctx context.Context, loanID id.LoanID) ([]loan.Installment, error)
	GenerateSchedule(ctx context.Context, loanID id.LoanID) (*loan.Loan, error)
	Approve(ctx context.Context, loanID id.LoanID) (*loan.Loan, error)
	Reject(ctx context.Context, loanID id.LoanID, reason string) (*loan.Loan, error)
	Disburse(ctx context.Context, loanID id.LoanID) (*loan.Loan, error)
	Cancel(ctx context.Context, loanID id.LoanID, reason string) (*loan.Loan, error)
	MakePayment(ctx context.Context, loanID id.LoanID, amount money.Money) (loan.Result, error)
}

type Handler struct {
	loans  Service
	logger *slog.Logger
}

func New(loans Service, logger *slog.Logger) *Handler {
	return &Handler{loans: loans, logger: logger}
}

// Register wires the loan routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/loans", h.handleCreateLoan)
	r.Get("/loans/{id}", h.handleGetLoan)
	r.Get("/loans/{id}/schedule", h.handleGetSchedule)
	r.Post("/loans/{id}/schedule", h.handleGenerateSchedule)
	r.Post("/loans/{id}/approve", h.handleApprove)
	r.Post("/loans/{id}/reject", h.handleReject)
	r.Post("/loans/{id}/disburse", h.handleDisburse)
	r.Post("/loans/{id}/cancel", h.handleCancel)
	r.Post("/loans/{id}/payments", h.handleMakePayment)
	r.Get("/customers/{id}/loans", h.handleListByCustomer)
}

func (h *Handler) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[CreateLoanRequest](w, r, h.logger)
	if !ok {
		return
	}

	customerID, err := id.ParseCustomerID(req.CustomerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	principal, err := money.Parse(req.PrincipalAmount, req.Currency)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	annual, err := decimal.NewFromString(req.AnnualInterestRate)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid interest rate"))
		return
	}
	rate, err := loan.NewInterestRate(annual)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	term, err := loan.NewTerm(req.TermMonths)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	withInstallments := req.WithInstallments == nil || *req.WithInstallments

	l, err := h.loans.CreateLoan(ctx, customerID, principal, rate, term, withInstallments)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toLoanResponse(l))
}

func (h *Handler) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanIDFromPath(w, r)
	if !ok {
		return
	}
	l, err := h.loans.GetLoan(r.Context(), loanID)
	if err != nil {
		h.writeServiceError(r.Context(), w, "failed to load loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(l))
}

func (h *Handler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanIDFromPath(w, r)
	if !ok {
		return
	}
	installments, err := h.loans.GetSchedule(r.Context(), loanID)
	if err != nil {
		h.writeServiceError(r.Context(), w, "failed to load schedule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ScheduleResponse{
		LoanID:       loanID.String(),
		Installments: installments,
	})
}

func (h *Handler) handleGenerateSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanIDFromPath(w, r)
	if !ok {
		return
	}
	l, err := h.loans.GenerateSchedule(r.Context(), loanID)
	if err != nil {
		h.writeServiceError(r.Context(), w, "failed to generate schedule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toLoanResponse(l))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanIDFromPath(w, r)
	if !ok {
		return
	}
	l, err := h.loans.Approve(r.Context(), loanID)
	if err != nil {
		h.writeServiceError(r.Context(), w, "failed to approve loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(l))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[RejectLoanRequest](w, r, h.logger)
	if !ok {
		return
	}
	l, err := h.loans.Reject(r.Context(), loanID, req.Reason)
	if err != nil {
		h.writeServiceError(r.Context(), w, "failed to reject loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(l))
}

func (h *Handler) handleDisburse(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanIDFromPath(w, r)
	if !ok {
		return
	}
	l, err := h.loans.Disburse(r.Context(), loanID)
	if err != nil {
		h.writeServiceError(r.Context(), w, "failed to disburse loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(l))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[CancelLoanRequest](w, r, h.logger)
	if !ok {
		return
	}
	l, err := h.loans.Cancel(r.Context(), loanID, req.Reason)
	if err != nil {
		h.writeServiceError(r.Context(), w, "failed to cancel loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(l))
}

func (h *Handler) handleMakePayment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[PaymentRequest](w, r, h.logger)
	if !ok {
		return
	}
	amount, err := money.Parse(req.Amount, req.Currency)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.loans.MakePayment(r.Context(), loanID, amount)
	if err != nil {
		h.writeServiceError(r.Context(), w, "failed to process payment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	loans, err := h.loans.ListByCustomer(r.Context(), customerID)
	if err != nil {
		h.writeServiceError(r.Context(), w, "failed to list loans", err)
		return
	}
	resp := LoanListResponse{Loans: make([]LoanResponse, 0, len(loans))}
	for _, l := range loans {
		resp.Loans = append(resp.Loans, toLoanResponse(l))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) loanIDFromPath(w http.ResponseWriter, r *http.Request) (id.LoanID, bool) {
	loanID, err := id.ParseLoanID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.LoanID{}, false
	}
	return loanID, true
}

// writeServiceError logs server-side failures and writes the mapped
// envelope. Client errors pass through without noise.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
