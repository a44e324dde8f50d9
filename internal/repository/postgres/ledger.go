package postgres

import (
	"context"
	"database/sql"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/repository"
)

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) ListEntries(ctx context.Context, page, pageSize int32) ([]domain.LedgerEntry, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	offset := (int64(page) - 1) * int64(pageSize)
	query := `SELECT id, agreement_id, customer_id, type, amount, COALESCE(description, ''), created_on
	          FROM ledger_entries ORDER BY created_on, id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var count int32
	err = r.db.QueryRowContext(ctx, `SELECT count(*) FROM ledger_entries`).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.AgreementID, &e.CustomerID, &e.Type, &e.Amount, &e.Description, &e.CreatedOn); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, count, rows.Err()
}

func (r *ledgerRepository) GetSummary(ctx context.Context) (*domain.LedgerSummary, error) {
	summary := &domain.LedgerSummary{}

	query := `SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'RENTAL_CHARGE'), 0),
	                 COUNT(*) FILTER (WHERE type = 'RENTAL_CHARGE'),
	                 COALESCE(SUM(amount) FILTER (WHERE type <> 'RENTAL_CHARGE'), 0)
	          FROM ledger_entries`
	err := r.db.QueryRowContext(ctx, query).Scan(&summary.TotalRevenue, &summary.TotalRentalsProcessed, &summary.TotalAdjustments)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, "SELECT count(*) FROM agreements WHERE state = 'ACTIVE'").Scan(&summary.ActiveAgreements)
	if err != nil {
		return nil, err
	}
	return summary, nil
}
