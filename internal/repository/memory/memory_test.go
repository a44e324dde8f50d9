package memory

import (
	"context"
	"testing"
	"time"

	"rental-engine-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.ItemRepository.Create(ctx, &domain.Item{
		ID: "drill-1", Name: "Drill", Category: domain.ItemCategoryTools,
		BasePricePerDay: 15, Condition: domain.ItemConditionExcellent, Available: true,
	}))
	require.NoError(t, s.CustomerRepository.Create(ctx, &domain.Customer{
		ID: "c1", Name: "Ada", Status: domain.CustomerStatusRegular, CreditScore: 700,
	}))
	return s
}

func activeAgreement(t *testing.T) *domain.Agreement {
	t.Helper()
	a := domain.NewAgreement("a1", "c1", "drill-1", domain.ItemCategoryTools, 3)
	require.NoError(t, a.Finalize(42.75, false, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	return a
}

func TestAgreementRepository_CreateRental(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		s := seed(t)
		a := activeAgreement(t)
		charge := &domain.LedgerEntry{ID: "l1", AgreementID: a.ID, CustomerID: "c1", Type: domain.LedgerEntryTypeRentalCharge, Amount: 42.75}

		require.NoError(t, s.AgreementRepository.CreateRental(ctx, a, charge, 42))

		item, err := s.ItemRepository.GetByID(ctx, "drill-1")
		require.NoError(t, err)
		assert.False(t, item.Available)
		assert.Equal(t, 1, item.RentedCount)

		c, err := s.CustomerRepository.GetByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 42, c.LoyaltyPoints)

		summary, err := s.LedgerRepository.GetSummary(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 42.75, summary.TotalRevenue, 1e-9)
		assert.Equal(t, 1, summary.TotalRentalsProcessed)
		assert.Equal(t, 1, summary.ActiveAgreements)
	})

	t.Run("ItemAlreadyRented", func(t *testing.T) {
		s := seed(t)
		a := activeAgreement(t)
		require.NoError(t, s.AgreementRepository.CreateRental(ctx, a, &domain.LedgerEntry{ID: "l1", Type: domain.LedgerEntryTypeRentalCharge}, 0))

		b := domain.NewAgreement("a2", "c1", "drill-1", domain.ItemCategoryTools, 1)
		require.NoError(t, b.Finalize(10, false, time.Now()))
		err := s.AgreementRepository.CreateRental(ctx, b, &domain.LedgerEntry{ID: "l2", Type: domain.LedgerEntryTypeRentalCharge}, 0)
		assert.ErrorIs(t, err, domain.ErrUnavailable)

		_, err = s.AgreementRepository.GetByID(ctx, "a2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestAgreementRepository_CloseRental(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	a := activeAgreement(t)
	require.NoError(t, s.AgreementRepository.CreateRental(ctx, a, &domain.LedgerEntry{ID: "l1", Type: domain.LedgerEntryTypeRentalCharge, Amount: 42.75}, 0))

	closed := a.Clone()
	closed.ReturnCondition = domain.ItemConditionFair
	require.NoError(t, closed.Close(time.Now()))
	adj := []domain.LedgerEntry{{ID: "l2", AgreementID: a.ID, Type: domain.LedgerEntryTypeDamageCharge, Amount: 25.73}}

	require.NoError(t, s.AgreementRepository.CloseRental(ctx, closed, adj))

	item, err := s.ItemRepository.GetByID(ctx, "drill-1")
	require.NoError(t, err)
	assert.True(t, item.Available)
	assert.Equal(t, domain.ItemConditionFair, item.Condition)

	active, err := s.AgreementRepository.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	summary, err := s.LedgerRepository.GetSummary(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 42.75, summary.TotalRevenue, 1e-9)
	assert.InDelta(t, 25.73, summary.TotalAdjustments, 1e-9)

	err = s.AgreementRepository.CloseRental(ctx, closed, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerRepository_ListEntries(t *testing.T) {
	ctx := context.Background()
	s := seed(t)
	a := activeAgreement(t)
	require.NoError(t, s.AgreementRepository.CreateRental(ctx, a, &domain.LedgerEntry{ID: "l1", Type: domain.LedgerEntryTypeRentalCharge}, 0))
	for _, id := range []string{"l2", "l3"} {
		require.NoError(t, a.AddAdditionalCharge("cleaning "+id, 5))
		require.NoError(t, s.AgreementRepository.AddCharge(ctx, a, &domain.LedgerEntry{ID: id, Type: domain.LedgerEntryTypeAdditionalCharge, Amount: 5}))
	}

	entries, total, err := s.LedgerRepository.ListEntries(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(3), total)
	require.Len(t, entries, 1)
	assert.Equal(t, "l3", entries[0].ID)

	entries, _, err = s.LedgerRepository.ListEntries(ctx, 5, 2)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.NotPanics(t, func() {
		entries, total, err = s.LedgerRepository.ListEntries(ctx, 1<<30, 4)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), total)
	assert.Empty(t, entries)

	stored, err := s.AgreementRepository.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.InDelta(t, 52.75, stored.TotalAmount, 1e-9)
}

func TestCustomerRepository_Update(t *testing.T) {
	ctx := context.Background()
	s := seed(t)

	require.NoError(t, s.CustomerRepository.SetBlacklisted(ctx, "c1", true))
	require.NoError(t, s.CustomerRepository.UpdateStatus(ctx, "c1", domain.CustomerStatusVIP))
	c, err := s.CustomerRepository.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, c.Blacklisted)
	assert.Equal(t, domain.CustomerStatusVIP, c.Status)

	assert.ErrorIs(t, s.CustomerRepository.SetBlacklisted(ctx, "ghost", true), domain.ErrNotFound)
}
