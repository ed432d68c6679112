// Package service orchestrates loan use cases: it loads aggregates, runs
// domain operations, persists with optimistic concurrency and publishes the
// resulting domain events.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"loancore/internal/loan"
	"loancore/internal/loan/metrics"
	"loancore/internal/loan/store"
	id "loancore/pkg/domain"
	dErrors "loancore/pkg/domain-errors"
	"loancore/pkg/money"
	"loancore/pkg/platform/sentinel"
	"loancore/pkg/requestcontext"
)

// EventPublisher hands domain events to the message broker. A nil publisher
// disables publication.
type EventPublisher interface {
	Publish(ctx context.Context, key string, eventType string, payload []byte) error
}

// ScheduleCache caches rendered installment schedules. A nil cache disables
// caching. *redis.Client satisfies it.
type ScheduleCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

const scheduleCachePrefix = "loan:schedule:"

// Service is the loan application service.
type Service struct {
	store       store.Store
	publisher   EventPublisher
	cache       ScheduleCache
	scheduleTTL time.Duration
	metrics     *metrics.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
}

func NewService(st store.Store, publisher EventPublisher, cache ScheduleCache, scheduleTTL time.Duration, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:       st,
		publisher:   publisher,
		cache:       cache,
		scheduleTTL: scheduleTTL,
		metrics:     m,
		logger:      logger,
		tracer:      otel.Tracer("loancore/loan"),
	}
}

// CreateLoan creates a loan and persists it. With withInstallments the
// repayment schedule is generated up front; otherwise GenerateSchedule can
// produce it later, exactly once.
func (s *Service) CreateLoan(ctx context.Context, customerID id.CustomerID, principal money.Money, rate loan.InterestRate, term loan.Term, withInstallments bool) (*loan.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "loan.create")
	defer span.End()

	now := requestcontext.Now(ctx)
	newLoan := loan.New
	if withInstallments {
		newLoan = loan.NewWithInstallments
	}
	l, err := newLoan(id.NewLoanID(), customerID, principal, rate, term, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, l); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(dErrors.CodeConflict, "loan already exists", err)
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to save loan", err)
	}

	s.metrics.LoansCreated.Inc()
	s.publishEvents(ctx, l.PullEvents())
	return l, nil
}

// GetLoan loads one loan by ID.
func (s *Service) GetLoan(ctx context.Context, loanID id.LoanID) (*loan.Loan, error) {
	return s.load(ctx, loanID)
}

// ListByCustomer returns every loan belonging to a customer.
func (s *Service) ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*loan.Loan, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

// GetSchedule returns the installment schedule, read through the cache when
// one is configured. The schedule is immutable per loan version, so mutating
// operations invalidate the cached entry.
func (s *Service) GetSchedule(ctx context.Context, loanID id.LoanID) ([]loan.Installment, error) {
	ctx, span := s.tracer.Start(ctx, "loan.schedule")
	defer span.End()

	key := scheduleCachePrefix + loanID.String()
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var installments []loan.Installment
			if err := json.Unmarshal(cached, &installments); err == nil {
				return installments, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "schedule cache read failed",
				"error", err,
				"loan_id", loanID,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	l, err := s.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	installments := l.Installments()

	if s.cache != nil {
		if payload, err := json.Marshal(installments); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.scheduleTTL).Err(); err != nil {
				s.logger.WarnContext(ctx, "schedule cache write failed",
					"error", err,
					"loan_id", loanID,
					"request_id", requestcontext.RequestID(ctx),
				)
			}
		}
	}
	return installments, nil
}

// GenerateSchedule produces the installment schedule for a loan created
// without one.
func (s *Service) GenerateSchedule(ctx context.Context, loanID id.LoanID) (*loan.Loan, error) {
	return s.mutate(ctx, "loan.generate_schedule", loanID, func(l *loan.Loan, now time.Time) error {
		return l.GenerateInstallments(now)
	})
}

// Approve moves a loan to APPROVED.
func (s *Service) Approve(ctx context.Context, loanID id.LoanID) (*loan.Loan, error) {
	l, err := s.mutate(ctx, "loan.approve", loanID, func(l *loan.Loan, now time.Time) error {
		return l.Approve(now)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.LoansApproved.Inc()
	return l, nil
}

// Reject moves a loan to REJECTED.
func (s *Service) Reject(ctx context.Context, loanID id.LoanID, reason string) (*loan.Loan, error) {
	l, err := s.mutate(ctx, "loan.reject", loanID, func(l *loan.Loan, now time.Time) error {
		return l.Reject(reason, now)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.LoansRejected.Inc()
	return l, nil
}

// Disburse moves a loan to DISBURSED and fixes its maturity date.
func (s *Service) Disburse(ctx context.Context, loanID id.LoanID) (*loan.Loan, error) {
	l, err := s.mutate(ctx, "loan.disburse", loanID, func(l *loan.Loan, now time.Time) error {
		return l.Disburse(now)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.LoansDisbursed.Inc()
	return l, nil
}

// Cancel moves a loan to CANCELLED.
func (s *Service) Cancel(ctx context.Context, loanID id.LoanID, reason string) (*loan.Loan, error) {
	l, err := s.mutate(ctx, "loan.cancel", loanID, func(l *loan.Loan, now time.Time) error {
		return l.Cancel(reason, now)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.LoansCancelled.Inc()
	return l, nil
}

// MakePayment runs the payment waterfall against a loan, marks the schedule
// and persists the outcome.
func (s *Service) MakePayment(ctx context.Context, loanID id.LoanID, amount money.Money) (loan.Result, error) {
	ctx, span := s.tracer.Start(ctx, "loan.payment")
	defer span.End()

	started := time.Now()
	now := requestcontext.Now(ctx)

	l, err := s.load(ctx, loanID)
	if err != nil {
		s.metrics.RecordPayment("error", time.Since(started).Seconds())
		return loan.Result{}, err
	}
	expectedVersion := l.Version()

	result, err := l.MakePayment(amount, now)
	if err != nil {
		s.metrics.RecordPayment("rejected", time.Since(started).Seconds())
		return result, err
	}
	if _, err := l.ApplyToInstallments(result.Distribution.PrincipalPayment, now); err != nil {
		s.logger.WarnContext(ctx, "installment allocation failed",
			"error", err,
			"loan_id", loanID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	if err := s.save(ctx, l, expectedVersion); err != nil {
		s.metrics.RecordPayment("error", time.Since(started).Seconds())
		return loan.Result{}, err
	}

	fullyPaid := result.IsLoanFullyPaid()
	if fullyPaid {
		s.metrics.LoansFullyPaid.Inc()
	}
	s.metrics.RecordPayment("success", time.Since(started).Seconds())
	s.invalidateSchedule(ctx, loanID)
	s.publishEvents(ctx, l.PullEvents())

	s.logger.InfoContext(ctx, "payment processed",
		"loan_id", loanID,
		"payment_id", result.PaymentID,
		"amount", amount,
		"new_balance", result.NewOutstandingBalance,
		"fully_paid", fullyPaid,
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

// mutate is the shared load, apply, save pipeline for lifecycle transitions.
func (s *Service) mutate(ctx context.Context, spanName string, loanID id.LoanID, op func(*loan.Loan, time.Time) error) (*loan.Loan, error) {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()

	l, err := s.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	expectedVersion := l.Version()

	if err := op(l, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.save(ctx, l, expectedVersion); err != nil {
		return nil, err
	}

	s.invalidateSchedule(ctx, loanID)
	s.publishEvents(ctx, l.PullEvents())
	return l, nil
}

func (s *Service) load(ctx context.Context, loanID id.LoanID) (*loan.Loan, error) {
	l, err := s.store.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "loan not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to load loan", err)
	}
	return l, nil
}

func (s *Service) save(ctx context.Context, l *loan.Loan, expectedVersion int64) error {
	if err := s.store.Update(ctx, l, expectedVersion); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrVersionConflict):
			return dErrors.Wrap(dErrors.CodeConflict, "loan was modified concurrently", err)
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "loan not found")
		default:
			return dErrors.Wrap(dErrors.CodeInternal, "failed to save loan", err)
		}
	}
	return nil
}

// publishEvents hands events to the broker fire-and-forget. Persistence is
// the source of truth; a publish failure is logged, not surfaced.
func (s *Service) publishEvents(ctx context.Context, events []loan.Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to encode domain event",
				"error", err,
				"event_type", event.EventType(),
			)
			continue
		}
		if err := s.publisher.Publish(ctx, event.AggregateID().String(), event.EventType(), payload); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish domain event",
				"error", err,
				"event_type", event.EventType(),
				"event_id", event.EventID(),
			)
			continue
		}
		s.metrics.RecordEvent(event.EventType())
	}
}

func (s *Service) invalidateSchedule(ctx context.Context, loanID id.LoanID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, scheduleCachePrefix+loanID.String()).Err(); err != nil {
		s.logger.WarnContext(ctx, "schedule cache invalidation failed",
			"error", err,
			"loan_id", loanID,
		)
	}
}
