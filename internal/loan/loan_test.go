package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "loancore/pkg/domain"
	dErrors "loancore/pkg/domain-errors"
	"loancore/pkg/money"
)

var testNow = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func newTestLoan(t *testing.T, principal, rate string, termMonths int) *Loan {
	t.Helper()
	l, err := NewWithInstallments(id.NewLoanID(), id.NewCustomerID(),
		money.MustNew(principal, "USD"), MustRate(rate), MustTerm(termMonths), testNow)
	require.NoError(t, err)
	return l
}

// disbursedLoan builds a loan that is accepting payments.
func disbursedLoan(t *testing.T, principal, rate string, termMonths int) *Loan {
	t.Helper()
	l := newTestLoan(t, principal, rate, termMonths)
	require.NoError(t, l.Approve(testNow))
	require.NoError(t, l.Disburse(testNow))
	l.PullEvents()
	return l
}

func TestNewLoan(t *testing.T) {
	t.Run("starts in CREATED with balance equal to principal", func(t *testing.T) {
		principal := money.MustNew("50000", "USD")
		l, err := New(id.NewLoanID(), id.NewCustomerID(), principal, MustRate("0.06"), MustTerm(24), testNow)
		require.NoError(t, err)

		assert.Equal(t, StatusCreated, l.Status())
		assert.True(t, l.OutstandingBalance().Equal(principal))
		assert.Equal(t, testNow, l.ApplicationDate())
		assert.Equal(t, int64(1), l.Version())
		assert.Empty(t, l.Installments())

		events := l.PullEvents()
		require.Len(t, events, 1)
		created, ok := events[0].(CreatedEvent)
		require.True(t, ok)
		assert.Equal(t, l.ID(), created.AggregateID())
		assert.True(t, created.PrincipalAmount.Equal(principal))
	})

	t.Run("rejects missing identifiers and non-positive principal", func(t *testing.T) {
		_, err := New(id.LoanID{}, id.NewCustomerID(), money.MustNew("1000", "USD"), MustRate("0.06"), MustTerm(12), testNow)
		require.Error(t, err)

		_, err = New(id.NewLoanID(), id.CustomerID{}, money.MustNew("1000", "USD"), MustRate("0.06"), MustTerm(12), testNow)
		require.Error(t, err)

		for _, amount := range []string{"0", "-100"} {
			_, err = New(id.NewLoanID(), id.NewCustomerID(), money.MustNew(amount, "USD"), MustRate("0.06"), MustTerm(12), testNow)
			require.Error(t, err, "principal %s", amount)
		}
	})

	t.Run("pull events clears the buffer", func(t *testing.T) {
		l := newTestLoan(t, "10000", "0.06", 12)
		require.NotEmpty(t, l.PullEvents())
		assert.Empty(t, l.PullEvents())
	})
}

func TestProductLimits(t *testing.T) {
	cases := []struct {
		name      string
		principal string
		term      int
	}{
		{"principal below 1000", "999.99", 12},
		{"principal above 500000", "500000.01", 12},
		{"term below 6 months", "10000", 5},
		{"term above 60 months", "10000", 61},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWithInstallments(id.NewLoanID(), id.NewCustomerID(),
				money.MustNew(tc.principal, "USD"), MustRate("0.06"), MustTerm(tc.term), testNow)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}

	t.Run("boundary values are accepted", func(t *testing.T) {
		for _, tc := range []struct {
			principal string
			term      int
		}{{"1000", 6}, {"500000", 60}} {
			_, err := NewWithInstallments(id.NewLoanID(), id.NewCustomerID(),
				money.MustNew(tc.principal, "USD"), MustRate("0.06"), MustTerm(tc.term), testNow)
			require.NoError(t, err)
		}
	})
}

func TestLifecycleTransitions(t *testing.T) {
	t.Run("approve then disburse fixes dates", func(t *testing.T) {
		l := newTestLoan(t, "20000", "0.06", 24)

		approvedAt := testNow.Add(24 * time.Hour)
		require.NoError(t, l.Approve(approvedAt))
		assert.Equal(t, StatusApproved, l.Status())
		assert.Equal(t, approvedAt, l.ApprovalDate())

		disbursedAt := approvedAt.Add(24 * time.Hour)
		require.NoError(t, l.Disburse(disbursedAt))
		assert.Equal(t, StatusDisbursed, l.Status())
		assert.Equal(t, disbursedAt, l.DisbursementDate())
		assert.Equal(t, disbursedAt.AddDate(0, 24, 0), l.MaturityDate())
	})

	t.Run("each transition increments the version", func(t *testing.T) {
		l := newTestLoan(t, "20000", "0.06", 24)
		v := l.Version()

		require.NoError(t, l.Approve(testNow))
		assert.Equal(t, v+1, l.Version())
		require.NoError(t, l.Disburse(testNow))
		assert.Equal(t, v+2, l.Version())
	})

	t.Run("reject is terminal", func(t *testing.T) {
		l := newTestLoan(t, "20000", "0.06", 24)
		require.NoError(t, l.Reject("credit policy", testNow))
		assert.Equal(t, StatusRejected, l.Status())

		require.Error(t, l.Approve(testNow))
		require.Error(t, l.Disburse(testNow))
		require.Error(t, l.Cancel("too late", testNow))
		assert.Equal(t, StatusRejected, l.Status())
	})

	t.Run("cancel before disbursement cancels the schedule", func(t *testing.T) {
		l := newTestLoan(t, "20000", "0.06", 24)
		require.NoError(t, l.Approve(testNow))
		require.NoError(t, l.Cancel("customer withdrew", testNow))

		assert.Equal(t, StatusCancelled, l.Status())
		for _, inst := range l.Installments() {
			assert.Equal(t, InstallmentCancelled, inst.Status)
		}
	})

	t.Run("cancel after disbursement is illegal", func(t *testing.T) {
		l := disbursedLoan(t, "20000", "0.06", 24)
		err := l.Cancel("too late", testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("illegal transition reports the current status", func(t *testing.T) {
		l := newTestLoan(t, "20000", "0.06", 24)
		err := l.Disburse(testNow)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disbursed")
		assert.Contains(t, err.Error(), string(StatusCreated))
	})

	t.Run("transitions raise their events", func(t *testing.T) {
		l := newTestLoan(t, "20000", "0.06", 24)
		l.PullEvents()

		require.NoError(t, l.Approve(testNow))
		require.NoError(t, l.Disburse(testNow))

		events := l.PullEvents()
		require.Len(t, events, 2)
		assert.Equal(t, "loan.approved", events[0].EventType())
		assert.Equal(t, "loan.disbursed", events[1].EventType())
	})
}

func TestMonthlyPayment(t *testing.T) {
	t.Run("standard amortization", func(t *testing.T) {
		// 100000 at 6% over 60 months: the canonical 1933.28.
		l := newTestLoan(t, "100000", "0.06", 60)
		payment := l.MonthlyPayment().Round(2)
		assert.True(t, payment.Equal(money.MustNew("1933.28", "USD")),
			"got %s", payment)
	})

	t.Run("zero rate divides principal evenly", func(t *testing.T) {
		l := newTestLoan(t, "12000", "0", 12)
		assert.True(t, l.MonthlyPayment().Equal(money.MustNew("1000", "USD")))
	})

	t.Run("single-month loan is a balloon payment of the principal", func(t *testing.T) {
		l, err := New(id.NewLoanID(), id.NewCustomerID(),
			money.MustNew("5000", "USD"), MustRate("0.06"), MustTerm(1), testNow)
		require.NoError(t, err)
		assert.True(t, l.MonthlyPayment().Equal(money.MustNew("5000", "USD")))
	})
}

func TestGenerateInstallments(t *testing.T) {
	t.Run("builds term installments due monthly from application date", func(t *testing.T) {
		l := newTestLoan(t, "12000", "0", 12)
		installments := l.Installments()
		require.Len(t, installments, 12)

		for i, inst := range installments {
			assert.Equal(t, i+1, inst.Number)
			assert.Equal(t, testNow.AddDate(0, i+1, 0), inst.DueDate)
			assert.True(t, inst.Amount.Equal(money.MustNew("1000", "USD")))
			assert.Equal(t, InstallmentPending, inst.Status)
		}
	})

	t.Run("schedule total is the monthly payment times the term", func(t *testing.T) {
		l := newTestLoan(t, "100000", "0.06", 60)
		expected := l.MonthlyPayment().Round(2).Multiply(decimal.NewFromInt(60))
		assert.True(t, l.TotalInstallmentAmount().Equal(expected))

		interest, err := l.TotalInstallmentAmount().Subtract(l.PrincipalAmount())
		require.NoError(t, err)
		assert.True(t, l.TotalInterest().Equal(interest))
		assert.True(t, l.TotalInterest().IsPositive())
	})

	t.Run("explicit generation is exactly-once", func(t *testing.T) {
		l, err := New(id.NewLoanID(), id.NewCustomerID(),
			money.MustNew("12000", "USD"), MustRate("0.06"), MustTerm(12), testNow)
		require.NoError(t, err)

		require.NoError(t, l.GenerateInstallments(testNow))
		require.Len(t, l.Installments(), 12)

		err = l.GenerateInstallments(testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("terminal loans cannot be scheduled", func(t *testing.T) {
		l, err := New(id.NewLoanID(), id.NewCustomerID(),
			money.MustNew("12000", "USD"), MustRate("0.06"), MustTerm(12), testNow)
		require.NoError(t, err)
		require.NoError(t, l.Reject("no", testNow))

		require.Error(t, l.GenerateInstallments(testNow))
	})

	t.Run("product limits gate late generation", func(t *testing.T) {
		l, err := New(id.NewLoanID(), id.NewCustomerID(),
			money.MustNew("500", "USD"), MustRate("0.06"), MustTerm(12), testNow)
		require.NoError(t, err)

		err = l.GenerateInstallments(testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestMakePayment(t *testing.T) {
	t.Run("reduces the balance by the principal portion", func(t *testing.T) {
		l := disbursedLoan(t, "10000", "0.06", 12)

		result, err := l.MakePayment(money.MustNew("2500", "USD"), testNow)
		require.NoError(t, err)
		require.True(t, result.Success)

		assert.True(t, result.Distribution.PrincipalPayment.Equal(money.MustNew("2500", "USD")))
		assert.True(t, result.Distribution.InterestPayment.IsZero())
		assert.True(t, result.Distribution.FeePayment.IsZero())
		assert.True(t, result.Distribution.PreviousBalance.Equal(money.MustNew("10000", "USD")))
		assert.True(t, result.NewOutstandingBalance.Equal(money.MustNew("7500", "USD")))
		assert.True(t, l.OutstandingBalance().Equal(money.MustNew("7500", "USD")))
		assert.Equal(t, StatusDisbursed, l.Status())

		events := l.PullEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "loan.payment_made", events[0].EventType())
	})

	t.Run("settling the balance transitions to FULLY_PAID", func(t *testing.T) {
		l := disbursedLoan(t, "10000", "0.06", 12)

		result, err := l.MakePayment(money.MustNew("10000", "USD"), testNow)
		require.NoError(t, err)
		require.True(t, result.IsLoanFullyPaid())
		assert.Equal(t, StatusFullyPaid, l.Status())
		assert.True(t, l.OutstandingBalance().IsZero())

		events := l.PullEvents()
		require.Len(t, events, 2)
		assert.Equal(t, "loan.payment_made", events[0].EventType())
		assert.Equal(t, "loan.fully_paid", events[1].EventType())

		// Terminal: no further payments.
		_, err = l.MakePayment(money.MustNew("1", "USD"), testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("payments before disbursement leave the aggregate untouched", func(t *testing.T) {
		l := newTestLoan(t, "10000", "0.06", 12)
		l.PullEvents()
		version := l.Version()

		result, err := l.MakePayment(money.MustNew("1000", "USD"), testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.ErrorMessage)

		assert.Equal(t, StatusCreated, l.Status())
		assert.True(t, l.OutstandingBalance().Equal(money.MustNew("10000", "USD")))
		assert.Equal(t, version, l.Version())
		assert.Empty(t, l.PullEvents())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		l := disbursedLoan(t, "10000", "0.06", 12)
		for _, amount := range []string{"0", "-50"} {
			_, err := l.MakePayment(money.MustNew(amount, "USD"), testNow)
			require.Error(t, err, "amount %s", amount)
		}
	})

	t.Run("rejects overpayment of the outstanding balance", func(t *testing.T) {
		l := disbursedLoan(t, "10000", "0.06", 12)

		_, err := l.MakePayment(money.MustNew("10000.01", "USD"), testNow)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		assert.True(t, l.OutstandingBalance().Equal(money.MustNew("10000", "USD")))
	})

	t.Run("rejects currency mismatch", func(t *testing.T) {
		l := disbursedLoan(t, "10000", "0.06", 12)
		_, err := l.MakePayment(money.MustNew("100", "EUR"), testNow)
		require.Error(t, err)
	})

	t.Run("sequential payments are additive", func(t *testing.T) {
		l := disbursedLoan(t, "10000", "0.06", 12)

		for _, amount := range []string{"3000", "3000", "4000"} {
			_, err := l.MakePayment(money.MustNew(amount, "USD"), testNow)
			require.NoError(t, err)
		}
		assert.Equal(t, StatusFullyPaid, l.Status())
		assert.True(t, l.OutstandingBalance().IsZero())
	})
}

func TestApplyToInstallments(t *testing.T) {
	t.Run("allocates oldest first across installments", func(t *testing.T) {
		l := disbursedLoan(t, "12000", "0", 12)

		applied, err := l.ApplyToInstallments(money.MustNew("2500", "USD"), testNow)
		require.NoError(t, err)
		assert.True(t, applied.Equal(money.MustNew("2500", "USD")))

		installments := l.Installments()
		assert.Equal(t, InstallmentPaid, installments[0].Status)
		assert.Equal(t, InstallmentPaid, installments[1].Status)
		assert.Equal(t, InstallmentPartiallyPaid, installments[2].Status)
		assert.True(t, installments[2].PaidAmount.Equal(money.MustNew("500", "USD")))
		assert.Equal(t, InstallmentPending, installments[3].Status)
	})

	t.Run("surplus beyond the schedule is not applied", func(t *testing.T) {
		l := disbursedLoan(t, "12000", "0", 12)

		applied, err := l.ApplyToInstallments(money.MustNew("20000", "USD"), testNow)
		require.NoError(t, err)
		assert.True(t, applied.Equal(money.MustNew("12000", "USD")))
		assert.True(t, l.InstallmentsFullyPaid())
		assert.Equal(t, 0, l.RemainingInstallments())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		l := disbursedLoan(t, "12000", "0", 12)
		_, err := l.ApplyToInstallments(money.MustNew("0", "USD"), testNow)
		require.Error(t, err)
	})
}

func TestScheduleQueries(t *testing.T) {
	l := disbursedLoan(t, "12000", "0", 12)

	_, err := l.ApplyToInstallments(money.MustNew("3000", "USD"), testNow)
	require.NoError(t, err)

	assert.Equal(t, 9, l.RemainingInstallments())
	assert.True(t, l.RemainingInstallmentAmount().Equal(money.MustNew("9000", "USD")))
	assert.False(t, l.InstallmentsFullyPaid())

	t.Run("overdue installments are the unpaid ones past due", func(t *testing.T) {
		afterFifth := testNow.AddDate(0, 5, 1)
		overdue := l.OverdueInstallments(afterFifth)
		// Installments 4 and 5 are due and unpaid; 1-3 are settled.
		require.Len(t, overdue, 2)
		assert.Equal(t, 4, overdue[0].Number)
		assert.Equal(t, 5, overdue[1].Number)
	})

	t.Run("loan overdue follows maturity and balance", func(t *testing.T) {
		assert.False(t, l.IsOverdue(testNow))
		afterMaturity := l.MaturityDate().AddDate(0, 0, 1)
		assert.True(t, l.IsOverdue(afterMaturity))
	})

	t.Run("installments accessor returns a copy", func(t *testing.T) {
		copied := l.Installments()
		copied[0].PaidAmount = money.MustNew("99999", "USD")
		assert.False(t, l.Installments()[0].PaidAmount.Equal(money.MustNew("99999", "USD")))
	})
}
