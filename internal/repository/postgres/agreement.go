package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/logger"
	"rental-engine-backend/internal/repository"
)

const agreementColumns = `id, customer_id, item_id, category, duration_days, total_amount, security_deposit, insurance_included, additional_charges, state, start_date, end_date, closed_at, COALESCE(return_condition, '')`

type agreementRepository struct {
	db *sql.DB
}

func NewAgreementRepository(db *sql.DB) repository.AgreementRepository {
	return &agreementRepository{db: db}
}

func (r *agreementRepository) CreateRental(ctx context.Context, a *domain.Agreement, charge *domain.LedgerEntry, loyaltyPoints int) error {
	logger.DatabaseCall("create_rental", "INSERT INTO agreements", "agreement_id", a.ID, "item_id", a.ItemID)
	err := r.createRental(ctx, a, charge, loyaltyPoints)
	logger.DatabaseResult("create_rental", 1, err, "agreement_id", a.ID)
	return err
}

func (r *agreementRepository) createRental(ctx context.Context, a *domain.Agreement, charge *domain.LedgerEntry, loyaltyPoints int) error {
	charges, err := json.Marshal(a.AdditionalCharges)
	if err != nil {
		return fmt.Errorf("encode additional charges: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The item row is the cross-instance guard: only one rental can flip it.
	result, err := tx.ExecContext(ctx, `UPDATE items SET available = FALSE, rented_count = rented_count + 1 WHERE id = $1 AND available = TRUE`, a.ItemID)
	if err != nil {
		return err
	}
	if err := requireOneRow(result, "reserve item "+a.ItemID, domain.ErrUnavailable); err != nil {
		return err
	}

	query := `INSERT INTO agreements (id, customer_id, item_id, category, duration_days, total_amount, security_deposit, insurance_included, additional_charges, state, start_date, end_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = tx.ExecContext(ctx, query, a.ID, a.CustomerID, a.ItemID, a.Category, a.DurationDays, a.TotalAmount, a.SecurityDeposit, a.InsuranceIncluded, charges, a.State, a.StartDate, a.EndDate)
	if err != nil {
		return mapError(err, "agreement "+a.ID)
	}

	if err := insertEntry(ctx, tx, charge); err != nil {
		return err
	}

	result, err = tx.ExecContext(ctx, `UPDATE customers SET loyalty_points = loyalty_points + $1 WHERE id = $2`, loyaltyPoints, a.CustomerID)
	if err != nil {
		return err
	}
	if err := requireOneRow(result, "customer "+a.CustomerID, domain.ErrNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *agreementRepository) CloseRental(ctx context.Context, a *domain.Agreement, adjustments []domain.LedgerEntry) error {
	logger.DatabaseCall("close_rental", "UPDATE agreements", "agreement_id", a.ID)
	err := r.closeRental(ctx, a, adjustments)
	logger.DatabaseResult("close_rental", 1, err, "agreement_id", a.ID)
	return err
}

func (r *agreementRepository) closeRental(ctx context.Context, a *domain.Agreement, adjustments []domain.LedgerEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateActive(ctx, tx, a); err != nil {
		return err
	}
	for i := range adjustments {
		if err := insertEntry(ctx, tx, &adjustments[i]); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, `UPDATE items SET available = TRUE, condition = COALESCE(NULLIF($1, ''), condition) WHERE id = $2`, string(a.ReturnCondition), a.ItemID)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (r *agreementRepository) AddCharge(ctx context.Context, a *domain.Agreement, entry *domain.LedgerEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateActive(ctx, tx, a); err != nil {
		return err
	}
	if err := insertEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

// updateActive writes a's mutable fields over a row that is still ACTIVE.
func updateActive(ctx context.Context, tx *sql.Tx, a *domain.Agreement) error {
	charges, err := json.Marshal(a.AdditionalCharges)
	if err != nil {
		return fmt.Errorf("encode additional charges: %w", err)
	}
	var returnCondition sql.NullString
	if a.ReturnCondition != "" {
		returnCondition = sql.NullString{String: string(a.ReturnCondition), Valid: true}
	}
	query := `UPDATE agreements SET total_amount=$1, security_deposit=$2, additional_charges=$3, state=$4, closed_at=$5, return_condition=$6
	          WHERE id=$7 AND state='ACTIVE'`
	result, err := tx.ExecContext(ctx, query, a.TotalAmount, a.SecurityDeposit, charges, a.State, a.ClosedAt, returnCondition, a.ID)
	if err != nil {
		return err
	}
	return requireOneRow(result, "active agreement "+a.ID, domain.ErrNotFound)
}

func insertEntry(ctx context.Context, tx *sql.Tx, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (id, agreement_id, customer_id, type, amount, description, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := tx.ExecContext(ctx, query, e.ID, e.AgreementID, e.CustomerID, e.Type, e.Amount, e.Description, e.CreatedOn)
	return err
}

func (r *agreementRepository) GetByID(ctx context.Context, id string) (*domain.Agreement, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+agreementColumns+` FROM agreements WHERE id = $1`, id)
	a, err := scanAgreement(row)
	if err != nil {
		return nil, mapError(err, "agreement "+id)
	}
	return a, nil
}

func (r *agreementRepository) ListActive(ctx context.Context) ([]domain.Agreement, error) {
	return r.list(ctx, `SELECT `+agreementColumns+` FROM agreements WHERE state = 'ACTIVE' ORDER BY start_date, id`)
}

func (r *agreementRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Agreement, error) {
	return r.list(ctx, `SELECT `+agreementColumns+` FROM agreements WHERE customer_id = $1 ORDER BY start_date, id`, customerID)
}

func (r *agreementRepository) list(ctx context.Context, query string, args ...any) ([]domain.Agreement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Agreement
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAgreement(s scanner) (*domain.Agreement, error) {
	a := &domain.Agreement{}
	var charges []byte
	var closedAt sql.NullTime
	err := s.Scan(&a.ID, &a.CustomerID, &a.ItemID, &a.Category, &a.DurationDays, &a.TotalAmount, &a.SecurityDeposit,
		&a.InsuranceIncluded, &charges, &a.State, &a.StartDate, &a.EndDate, &closedAt, &a.ReturnCondition)
	if err != nil {
		return nil, err
	}
	a.AdditionalCharges = make(map[string]float64)
	if len(charges) > 0 {
		if err := json.Unmarshal(charges, &a.AdditionalCharges); err != nil {
			return nil, fmt.Errorf("decode additional charges of %s: %w", a.ID, err)
		}
	}
	if closedAt.Valid {
		t := closedAt.Time
		a.ClosedAt = &t
	}
	return a, nil
}
