package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"loancore/internal/loan"
	id "loancore/pkg/domain"
	"loancore/pkg/money"
	"loancore/pkg/platform/sentinel"
)

// Postgres persists loan snapshots via pgx. The installment schedule is a
// JSONB column: it is immutable after generation and always read whole, so a
// child table would buy nothing.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Schema is the DDL for the loans table, applied by migrations and the
// integration test container.
const Schema = `
CREATE TABLE IF NOT EXISTS loans (
	id                UUID PRIMARY KEY,
	customer_id       UUID NOT NULL,
	principal         NUMERIC(19, 4) NOT NULL,
	currency          CHAR(3) NOT NULL,
	annual_rate       TEXT NOT NULL,
	term_months       INT NOT NULL,
	status            TEXT NOT NULL,
	outstanding       NUMERIC(19, 4) NOT NULL,
	application_date  TIMESTAMPTZ NOT NULL,
	approval_date     TIMESTAMPTZ,
	disbursement_date TIMESTAMPTZ,
	maturity_date     TIMESTAMPTZ,
	installments      JSONB NOT NULL DEFAULT '[]',
	version           BIGINT NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_loans_customer ON loans (customer_id);
`

func (s *Postgres) Create(ctx context.Context, l *loan.Loan) error {
	snapshot := l.Snapshot()
	installments, err := json.Marshal(snapshot.Installments)
	if err != nil {
		return fmt.Errorf("marshal installments: %w", err)
	}

	const query = `
		INSERT INTO loans (id, customer_id, principal, currency, annual_rate, term_months,
		                   status, outstanding, application_date, approval_date,
		                   disbursement_date, maturity_date, installments, version,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = s.pool.Exec(ctx, query,
		uuid.UUID(snapshot.ID), uuid.UUID(snapshot.CustomerID),
		snapshot.PrincipalAmount.Amount(), snapshot.PrincipalAmount.Currency(),
		snapshot.AnnualRate, snapshot.TermMonths, string(snapshot.Status),
		snapshot.Outstanding.Amount(), snapshot.ApplicationDate,
		nullableTime(snapshot.ApprovalDate), nullableTime(snapshot.DisbursementDate),
		nullableTime(snapshot.MaturityDate), installments, snapshot.Version,
		snapshot.CreatedAt, snapshot.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, l *loan.Loan, expectedVersion int64) error {
	snapshot := l.Snapshot()
	installments, err := json.Marshal(snapshot.Installments)
	if err != nil {
		return fmt.Errorf("marshal installments: %w", err)
	}

	const query = `
		UPDATE loans
		SET status = $2, outstanding = $3, approval_date = $4, disbursement_date = $5,
		    maturity_date = $6, installments = $7, version = $8, updated_at = $9
		WHERE id = $1 AND version = $10`

	tag, err := s.pool.Exec(ctx, query,
		uuid.UUID(snapshot.ID), string(snapshot.Status), snapshot.Outstanding.Amount(),
		nullableTime(snapshot.ApprovalDate), nullableTime(snapshot.DisbursementDate),
		nullableTime(snapshot.MaturityDate), installments, snapshot.Version,
		snapshot.UpdatedAt, expectedVersion)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a stale version.
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM loans WHERE id = $1)`,
			uuid.UUID(snapshot.ID)).Scan(&exists); err != nil {
			return fmt.Errorf("check loan existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionConflict
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, loanID id.LoanID) (*loan.Loan, error) {
	const query = selectColumns + ` WHERE id = $1`
	row := s.pool.QueryRow(ctx, query, uuid.UUID(loanID))
	l, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *Postgres) ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*loan.Loan, error) {
	const query = selectColumns + ` WHERE customer_id = $1 ORDER BY created_at`
	rows, err := s.pool.Query(ctx, query, uuid.UUID(customerID))
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var loans []*loan.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

const selectColumns = `
	SELECT id, customer_id, principal, currency, annual_rate, term_months, status,
	       outstanding, application_date, approval_date, disbursement_date,
	       maturity_date, installments, version, created_at, updated_at
	FROM loans`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*loan.Loan, error) {
	var (
		snapshot        loan.Snapshot
		loanID          uuid.UUID
		customerID      uuid.UUID
		principal       decimal.Decimal
		currency        string
		status          string
		outstanding     decimal.Decimal
		approval        *time.Time
		disbursement    *time.Time
		maturity        *time.Time
		rawInstallments []byte
	)
	err := row.Scan(&loanID, &customerID, &principal, &currency, &snapshot.AnnualRate,
		&snapshot.TermMonths, &status, &outstanding, &snapshot.ApplicationDate,
		&approval, &disbursement, &maturity, &rawInstallments, &snapshot.Version,
		&snapshot.CreatedAt, &snapshot.UpdatedAt)
	if err != nil {
		return nil, err
	}

	snapshot.ID = id.LoanID(loanID)
	snapshot.CustomerID = id.CustomerID(customerID)
	snapshot.Status = loan.Status(status)
	snapshot.ApprovalDate = timeOrZero(approval)
	snapshot.DisbursementDate = timeOrZero(disbursement)
	snapshot.MaturityDate = timeOrZero(maturity)
	if snapshot.PrincipalAmount, err = money.New(principal, currency); err != nil {
		return nil, fmt.Errorf("map principal: %w", err)
	}
	if snapshot.Outstanding, err = money.New(outstanding, currency); err != nil {
		return nil, fmt.Errorf("map outstanding balance: %w", err)
	}
	if err := json.Unmarshal(rawInstallments, &snapshot.Installments); err != nil {
		return nil, fmt.Errorf("unmarshal installments: %w", err)
	}

	return loan.FromSnapshot(snapshot)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
