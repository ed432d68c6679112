package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	id "loancore/pkg/domain"
	"loancore/pkg/money"
	"loancore/pkg/platform/sentinel"
)

// PostgresStore persists customers in PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema is the DDL for the customers table, applied by migrations and the
// integration test container.
const Schema = `
CREATE TABLE IF NOT EXISTS customers (
	id                  UUID PRIMARY KEY,
	full_name           TEXT NOT NULL,
	email               TEXT NOT NULL,
	phone               TEXT NOT NULL DEFAULT '',
	active              BOOLEAN NOT NULL,
	credit_score        INT NOT NULL DEFAULT 0,
	date_of_birth       TIMESTAMPTZ NOT NULL,
	monthly_income      NUMERIC(19, 4) NOT NULL,
	monthly_obligations NUMERIC(19, 4) NOT NULL,
	currency            CHAR(3) NOT NULL
);
`

func (s *PostgresStore) FindByID(ctx context.Context, customerID id.CustomerID) (*Customer, error) {
	const query = `
		SELECT id, full_name, email, phone, active, credit_score, date_of_birth,
		       monthly_income, monthly_obligations, currency
		FROM customers
		WHERE id = $1`

	var (
		c           Customer
		rawID       uuid.UUID
		dateOfBirth time.Time
		income      decimal.Decimal
		obligations decimal.Decimal
		currency    string
	)
	row := s.pool.QueryRow(ctx, query, uuid.UUID(customerID))
	err := row.Scan(&rawID, &c.FullName, &c.Email, &c.Phone, &c.Active, &c.CreditScore,
		&dateOfBirth, &income, &obligations, &currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}

	c.ID = id.CustomerID(rawID)
	c.DateOfBirth = dateOfBirth
	if c.MonthlyIncome, err = money.New(income, currency); err != nil {
		return nil, fmt.Errorf("map customer income: %w", err)
	}
	if c.ExistingMonthlyObligations, err = money.New(obligations, currency); err != nil {
		return nil, fmt.Errorf("map customer obligations: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) Save(ctx context.Context, c *Customer) error {
	const query = `
		INSERT INTO customers (id, full_name, email, phone, active, credit_score,
		                       date_of_birth, monthly_income, monthly_obligations, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			active = EXCLUDED.active,
			credit_score = EXCLUDED.credit_score,
			date_of_birth = EXCLUDED.date_of_birth,
			monthly_income = EXCLUDED.monthly_income,
			monthly_obligations = EXCLUDED.monthly_obligations,
			currency = EXCLUDED.currency`

	_, err := s.pool.Exec(ctx, query,
		uuid.UUID(c.ID), c.FullName, c.Email, c.Phone, c.Active, c.CreditScore,
		c.DateOfBirth, c.MonthlyIncome.Amount(), c.ExistingMonthlyObligations.Amount(),
		c.MonthlyIncome.Currency())
	if err != nil {
		return fmt.Errorf("save customer: %w", err)
	}
	return nil
}
