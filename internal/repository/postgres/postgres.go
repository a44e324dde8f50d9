package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/logger"
	"rental-engine-backend/internal/repository"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
	repository.ItemRepository
	repository.CustomerRepository
	repository.AgreementRepository
	repository.LedgerRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                  db,
		ItemRepository:      NewItemRepository(db),
		CustomerRepository:  NewCustomerRepository(db),
		AgreementRepository: NewAgreementRepository(db),
		LedgerRepository:    NewLedgerRepository(db),
	}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the rental tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	logger.DatabaseCall("migrate", "CREATE TABLE IF NOT EXISTS ...")
	_, err := s.db.ExecContext(ctx, schema)
	logger.DatabaseResult("migrate", 0, err)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	category           TEXT NOT NULL,
	base_price_per_day NUMERIC(12,2) NOT NULL,
	condition          TEXT NOT NULL,
	available          BOOLEAN NOT NULL DEFAULT TRUE,
	rented_count       INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS customers (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	email          TEXT,
	status         TEXT NOT NULL,
	credit_score   INTEGER NOT NULL,
	loyalty_points INTEGER NOT NULL DEFAULT 0,
	blacklisted    BOOLEAN NOT NULL DEFAULT FALSE,
	joined_on      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS agreements (
	id                 TEXT PRIMARY KEY,
	customer_id        TEXT NOT NULL REFERENCES customers(id),
	item_id            TEXT NOT NULL REFERENCES items(id),
	category           TEXT NOT NULL,
	duration_days      INTEGER NOT NULL,
	total_amount       DOUBLE PRECISION NOT NULL,
	security_deposit   DOUBLE PRECISION NOT NULL,
	insurance_included BOOLEAN NOT NULL,
	additional_charges JSONB NOT NULL DEFAULT '{}',
	state              TEXT NOT NULL,
	start_date         TIMESTAMPTZ NOT NULL,
	end_date           TIMESTAMPTZ NOT NULL,
	closed_at          TIMESTAMPTZ,
	return_condition   TEXT
);
CREATE INDEX IF NOT EXISTS idx_agreements_customer ON agreements(customer_id);
CREATE INDEX IF NOT EXISTS idx_agreements_state ON agreements(state);
CREATE TABLE IF NOT EXISTS ledger_entries (
	id           TEXT PRIMARY KEY,
	agreement_id TEXT NOT NULL REFERENCES agreements(id),
	customer_id  TEXT NOT NULL,
	type         TEXT NOT NULL,
	amount       DOUBLE PRECISION NOT NULL,
	description  TEXT,
	created_on   TIMESTAMPTZ NOT NULL
);
`

// mapError turns driver errors the service branches on into domain errors.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s already exists: %w", what, domain.ErrInvalidRequest)
	}
	return err
}

func requireOneRow(result sql.Result, what string, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, notFound)
	}
	return nil
}
