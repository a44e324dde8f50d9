package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"rental-engine-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func finalized(t *testing.T) (*domain.Agreement, *domain.LedgerEntry) {
	t.Helper()
	a := domain.NewAgreement("a1", "c1", "drill-1", domain.ItemCategoryTools, 3)
	require.NoError(t, a.Finalize(42.75, false, time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)))
	charge := &domain.LedgerEntry{
		ID: "l1", AgreementID: a.ID, CustomerID: a.CustomerID,
		Type: domain.LedgerEntryTypeRentalCharge, Amount: a.TotalAmount, CreatedOn: a.StartDate,
	}
	return a, charge
}

func TestAgreementRepository_CreateRental(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewAgreementRepository(db)
		a, charge := finalized(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE items SET available = FALSE").
			WithArgs("drill-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO agreements").
			WithArgs("a1", "c1", "drill-1", domain.ItemCategoryTools, 3, 42.75, sqlmock.AnyArg(), false, sqlmock.AnyArg(), domain.AgreementStateActive, a.StartDate, a.EndDate).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs("l1", "a1", "c1", domain.LedgerEntryTypeRentalCharge, 42.75, "", a.StartDate).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE customers SET loyalty_points").
			WithArgs(42, "c1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CreateRental(ctx, a, charge, 42)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ItemAlreadyRented", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewAgreementRepository(db)
		a, charge := finalized(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE items SET available = FALSE").
			WithArgs("drill-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.CreateRental(ctx, a, charge, 42)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownCustomerRollsBack", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewAgreementRepository(db)
		a, charge := finalized(t)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE items SET available = FALSE").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO agreements").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO ledger_entries").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE customers SET loyalty_points").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.CreateRental(ctx, a, charge, 42)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAgreementRepository_CloseRental(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewAgreementRepository(db)
	a, _ := finalized(t)
	a.ReturnCondition = domain.ItemConditionFair
	require.NoError(t, a.Close(a.EndDate))

	adjustment := domain.LedgerEntry{ID: "l2", AgreementID: "a1", CustomerID: "c1", Type: domain.LedgerEntryTypeDamageCharge, Amount: 25.73, Description: "Damage", CreatedOn: a.EndDate}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE agreements SET").
		WithArgs(a.TotalAmount, a.SecurityDeposit, sqlmock.AnyArg(), domain.AgreementStateClosed, sqlmock.AnyArg(), sqlmock.AnyArg(), "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs("l2", "a1", "c1", domain.LedgerEntryTypeDamageCharge, 25.73, "Damage", a.EndDate).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE items SET available = TRUE").
		WithArgs("FAIR", "drill-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CloseRental(ctx, a, []domain.LedgerEntry{adjustment})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgreementRepository_AddChargeNotActive(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewAgreementRepository(db)
	a, _ := finalized(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE agreements SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.AddCharge(ctx, a, &domain.LedgerEntry{ID: "l3"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgreementRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewAgreementRepository(db)
	start := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	columns := []string{"id", "customer_id", "item_id", "category", "duration_days", "total_amount", "security_deposit", "insurance_included", "additional_charges", "state", "start_date", "end_date", "closed_at", "return_condition"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM agreements WHERE id = ").
			WithArgs("a1").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("a1", "c1", "drill-1", "TOOLS", 3, 52.75, 4.275, false, []byte(`{"Cleaning":10}`), "ACTIVE", start, start.AddDate(0, 0, 3), nil, ""))

		a, err := repo.GetByID(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, domain.AgreementStateActive, a.State)
		assert.Equal(t, domain.ItemCategoryTools, a.Category)
		assert.Equal(t, 10.0, a.AdditionalCharges["Cleaning"])
		assert.Nil(t, a.ClosedAt)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM agreements WHERE id = ").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLedgerRepository_GetSummary(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewLedgerRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM ledger_entries").
		WillReturnRows(sqlmock.NewRows([]string{"revenue", "count", "adjustments"}).AddRow(327.75, 2, 231.5))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM agreements WHERE state = 'ACTIVE'").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	summary, err := repo.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 327.75, summary.TotalRevenue)
	assert.Equal(t, 2, summary.TotalRentalsProcessed)
	assert.Equal(t, 231.5, summary.TotalAdjustments)
	assert.Equal(t, 1, summary.ActiveAgreements)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_ListEntries(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewLedgerRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM ledger_entries ORDER BY").
		WithArgs(int32(10), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "agreement_id", "customer_id", "type", "amount", "description", "created_on"}).
			AddRow("l11", "a5", "c2", "LATE_FEE", 231.5, "Late fee", now))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM ledger_entries").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	entries, total, err := repo.ListEntries(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(11), total)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LedgerEntryTypeLateFee, entries[0].Type)
}

func TestItemRepository(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewItemRepository(db)

	t.Run("Create", func(t *testing.T) {
		item := &domain.Item{ID: "van-1", Name: "Van", Category: domain.ItemCategoryVehicle, BasePricePerDay: 50, Condition: domain.ItemConditionGood, Available: true}
		mock.ExpectExec("INSERT INTO items").
			WithArgs("van-1", "Van", domain.ItemCategoryVehicle, 50.0, domain.ItemConditionGood, true, 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Create(ctx, item))
	})

	t.Run("UpdateConditionUnknown", func(t *testing.T) {
		mock.ExpectExec("UPDATE items SET condition").
			WithArgs(domain.ItemConditionPoor, "ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.UpdateCondition(ctx, "ghost", domain.ItemConditionPoor), domain.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	repo := NewCustomerRepository(db)

	mock.ExpectExec("INSERT INTO customers").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(ctx, &domain.Customer{ID: "c1", Name: "Ada", Status: domain.CustomerStatusNew, CreditScore: 700})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
