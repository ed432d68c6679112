package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"loancore/internal/loan"
	"loancore/internal/loan/metrics"
	"loancore/internal/loan/store"
	id "loancore/pkg/domain"
	dErrors "loancore/pkg/domain-errors"
	"loancore/pkg/money"
	"loancore/pkg/requestcontext"
)

// Metrics register on the default Prometheus registry, so the package shares
// one instance across tests.
var testMetrics = metrics.New()

type publishedEvent struct {
	Key       string
	EventType string
	Payload   []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, key string, eventType string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{Key: key, EventType: eventType, Payload: payload})
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType
	}
	return types
}

type ServiceSuite struct {
	suite.Suite
	store     *store.InMemory
	publisher *fakePublisher
	service   *Service
	ctx       context.Context
	now       time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.publisher = &fakePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.store, s.publisher, nil, time.Minute, testMetrics, logger)
	s.now = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) createLoan(principal string) *loan.Loan {
	l, err := s.service.CreateLoan(s.ctx, id.NewCustomerID(),
		money.MustNew(principal, "USD"), loan.MustRate("0.06"), loan.MustTerm(12), true)
	s.Require().NoError(err)
	return l
}

func (s *ServiceSuite) activeLoan(principal string) *loan.Loan {
	l := s.createLoan(principal)
	_, err := s.service.Approve(s.ctx, l.ID())
	s.Require().NoError(err)
	l, err = s.service.Disburse(s.ctx, l.ID())
	s.Require().NoError(err)
	return l
}

func (s *ServiceSuite) TestCreateLoan() {
	l := s.createLoan("10000")

	s.Equal(loan.StatusCreated, l.Status())
	s.Equal(s.now, l.ApplicationDate())
	s.Len(l.Installments(), 12)

	stored, err := s.store.FindByID(s.ctx, l.ID())
	s.Require().NoError(err)
	s.Equal(l.ID(), stored.ID())

	s.Equal([]string{"loan.created"}, s.publisher.eventTypes())
}

func (s *ServiceSuite) TestCreateLoanValidation() {
	_, err := s.service.CreateLoan(s.ctx, id.NewCustomerID(),
		money.MustNew("500", "USD"), loan.MustRate("0.06"), loan.MustTerm(12), true)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestDeferredSchedule() {
	l, err := s.service.CreateLoan(s.ctx, id.NewCustomerID(),
		money.MustNew("12000", "USD"), loan.MustRate("0.06"), loan.MustTerm(12), false)
	s.Require().NoError(err)
	s.Empty(l.Installments())

	generated, err := s.service.GenerateSchedule(s.ctx, l.ID())
	s.Require().NoError(err)
	s.Len(generated.Installments(), 12)

	s.Run("schedule generation is exactly-once", func() {
		_, err := s.service.GenerateSchedule(s.ctx, l.ID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestGetLoan() {
	l := s.createLoan("10000")

	found, err := s.service.GetLoan(s.ctx, l.ID())
	s.Require().NoError(err)
	s.Equal(l.ID(), found.ID())

	_, err = s.service.GetLoan(s.ctx, id.NewLoanID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestLifecycle() {
	l := s.createLoan("10000")

	approved, err := s.service.Approve(s.ctx, l.ID())
	s.Require().NoError(err)
	s.Equal(loan.StatusApproved, approved.Status())

	disbursed, err := s.service.Disburse(s.ctx, l.ID())
	s.Require().NoError(err)
	s.Equal(loan.StatusDisbursed, disbursed.Status())
	s.Equal(s.now.AddDate(0, 12, 0), disbursed.MaturityDate())

	s.Equal([]string{"loan.created", "loan.approved", "loan.disbursed"}, s.publisher.eventTypes())

	stored, err := s.store.FindByID(s.ctx, l.ID())
	s.Require().NoError(err)
	s.Equal(loan.StatusDisbursed, stored.Status())
}

func (s *ServiceSuite) TestRejectAndCancel() {
	rejected := s.createLoan("10000")
	l, err := s.service.Reject(s.ctx, rejected.ID(), "insufficient income")
	s.Require().NoError(err)
	s.Equal(loan.StatusRejected, l.Status())

	cancelled := s.createLoan("10000")
	l, err = s.service.Cancel(s.ctx, cancelled.ID(), "customer withdrew")
	s.Require().NoError(err)
	s.Equal(loan.StatusCancelled, l.Status())

	// Domain rule violations surface as invalid-state errors.
	_, err = s.service.Approve(s.ctx, rejected.ID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ServiceSuite) TestGetSchedule() {
	l := s.createLoan("10000")

	installments, err := s.service.GetSchedule(s.ctx, l.ID())
	s.Require().NoError(err)
	s.Len(installments, 12)
	s.Equal(l.Installments(), installments)

	_, err = s.service.GetSchedule(s.ctx, id.NewLoanID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestMakePayment() {
	l := s.activeLoan("12000")

	result, err := s.service.MakePayment(s.ctx, l.ID(), money.MustNew("3000", "USD"))
	s.Require().NoError(err)
	s.True(result.NewOutstandingBalance.Equal(money.MustNew("9000", "USD")))
	s.False(result.IsLoanFullyPaid())

	stored, err := s.store.FindByID(s.ctx, l.ID())
	s.Require().NoError(err)
	s.True(stored.OutstandingBalance().Equal(money.MustNew("9000", "USD")))

	// 3000 covers roughly 2.9 monthly installments of about 1032.80 each.
	installments := stored.Installments()
	s.Equal(loan.InstallmentPaid, installments[0].Status)
	s.Equal(loan.InstallmentPaid, installments[1].Status)
	s.Equal(loan.InstallmentPartiallyPaid, installments[2].Status)
	s.Equal(loan.InstallmentPending, installments[3].Status)

	s.Contains(s.publisher.eventTypes(), "loan.payment_made")
}

func (s *ServiceSuite) TestMakePaymentSettlesLoan() {
	l := s.activeLoan("12000")

	result, err := s.service.MakePayment(s.ctx, l.ID(), money.MustNew("12000", "USD"))
	s.Require().NoError(err)
	s.True(result.IsLoanFullyPaid())

	stored, err := s.store.FindByID(s.ctx, l.ID())
	s.Require().NoError(err)
	s.Equal(loan.StatusFullyPaid, stored.Status())

	types := s.publisher.eventTypes()
	s.Contains(types, "loan.payment_made")
	s.Contains(types, "loan.fully_paid")
}

func (s *ServiceSuite) TestMakePaymentRejections() {
	l := s.createLoan("12000")

	// Not yet disbursed.
	_, err := s.service.MakePayment(s.ctx, l.ID(), money.MustNew("1000", "USD"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	// Unknown loan.
	_, err = s.service.MakePayment(s.ctx, id.NewLoanID(), money.MustNew("1000", "USD"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	// Rejected payments leave the aggregate untouched.
	stored, err := s.store.FindByID(s.ctx, l.ID())
	s.Require().NoError(err)
	s.Equal(int64(1), stored.Version())
}

func (s *ServiceSuite) TestConcurrentModification() {
	l := s.activeLoan("12000")

	stale, err := s.store.FindByID(s.ctx, l.ID())
	s.Require().NoError(err)
	expectedVersion := stale.Version()

	_, err = s.service.MakePayment(s.ctx, l.ID(), money.MustNew("1000", "USD"))
	s.Require().NoError(err)

	_, err = stale.MakePayment(money.MustNew("1000", "USD"), s.now)
	s.Require().NoError(err)
	err = s.service.save(s.ctx, stale, expectedVersion)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestListByCustomer() {
	l := s.createLoan("10000")

	loans, err := s.service.ListByCustomer(s.ctx, l.CustomerID())
	s.Require().NoError(err)
	s.Len(loans, 1)

	loans, err = s.service.ListByCustomer(s.ctx, id.NewCustomerID())
	s.Require().NoError(err)
	s.Empty(loans)
}

func (s *ServiceSuite) TestPublishFailureDoesNotSurface() {
	s.publisher.err = errors.New("broker down")
	l := s.createLoan("10000")

	_, err := s.service.Approve(s.ctx, l.ID())
	s.Require().NoError(err)
	s.Empty(s.publisher.eventTypes())
}
