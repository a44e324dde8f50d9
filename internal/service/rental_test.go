package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"rental-engine-backend/internal/customer"
	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/fees"
	"rental-engine-backend/internal/inventory"
	"rental-engine-backend/internal/payment"
	"rental-engine-backend/internal/pricing"
	"rental-engine-backend/internal/repository"
	"rental-engine-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mid-April: spring pricing, multiplier 1.0.
var testNow = time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, customerID string, amount float64) (*payment.Receipt, error) {
	args := m.Called(ctx, customerID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Receipt), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, chargeID string) error {
	args := m.Called(ctx, chargeID)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendRentalConfirmation(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	return m.Called(ctx, c, a).Error(0)
}

func (m *MockNotifier) SendReturnReceipt(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	return m.Called(ctx, c, a).Error(0)
}

func (m *MockNotifier) SendOverdueReminder(ctx context.Context, c domain.Customer, a *domain.Agreement) error {
	return m.Called(ctx, c, a).Error(0)
}

// failingAgreements fails every rental write with err.
type failingAgreements struct {
	repository.AgreementRepository
	err error
}

func (f *failingAgreements) CreateRental(ctx context.Context, a *domain.Agreement, charge *domain.LedgerEntry, points int) error {
	return f.err
}

// refusingInventory reports every item as already reserved.
type refusingInventory struct {
	Inventory
}

func (refusingInventory) Reserve(string) bool { return false }

type harness struct {
	svc       *Orchestrator
	store     *memory.Store
	inventory *inventory.Store
	customers *customer.Directory
	gateway   *payment.SimulatedGateway
	now       time.Time
}

func newHarness(t *testing.T, configure func(*Deps)) *harness {
	t.Helper()
	h := &harness{now: testNow}

	engine := pricing.NewEngine(nil)
	h.store = memory.NewStore()
	h.inventory = inventory.NewStore(engine)
	h.customers = customer.NewDirectory()
	h.gateway = payment.NewSimulatedGateway(0, []string{"CUST-DECLINED"})

	deps := Deps{
		Inventory:     h.inventory,
		Customers:     h.customers,
		Pricing:       engine,
		Fees:          fees.NewEngine(engine),
		Damage:        fees.NewTableAssessor(engine),
		Gateway:       h.gateway,
		Items:         h.store.ItemRepository,
		CustomerStore: h.store.CustomerRepository,
		Agreements:    h.store.AgreementRepository,
		LedgerStore:   h.store.LedgerRepository,
		Clock:         func() time.Time { return h.now },
	}
	if configure != nil {
		configure(&deps)
	}

	svc, err := NewOrchestrator(deps)
	require.NoError(t, err)
	h.svc = svc

	ctx := context.Background()
	for _, item := range []domain.Item{
		{ID: "VEH001", Name: "Cargo van", Category: domain.ItemCategoryVehicle},
		{ID: "TOOL001", Name: "Hammer drill", Category: domain.ItemCategoryTools},
	} {
		_, err := svc.AddItem(ctx, item)
		require.NoError(t, err)
	}
	for _, c := range []domain.Customer{
		{ID: "CUST001", Name: "Ada", Email: "ada@example.com", Status: domain.CustomerStatusRegular, CreditScore: 500},
		{ID: "CUST002", Name: "Bo", Status: domain.CustomerStatusRegular, CreditScore: 720},
		{ID: "CUST003", Name: "Cy", Status: domain.CustomerStatusVIP, CreditScore: 800},
		{ID: "CUST-DECLINED", Name: "Di", Status: domain.CustomerStatusNew, CreditScore: 650},
	} {
		_, err := svc.RegisterCustomer(ctx, c)
		require.NoError(t, err)
	}
	require.NoError(t, svc.SetBlacklisted(ctx, "CUST002", true))
	return h
}

func TestNewOrchestrator_RequiresCollaborators(t *testing.T) {
	_, err := NewOrchestrator(Deps{})
	assert.Error(t, err)
}

func TestOrchestrator_ProcessRental(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		notifier := new(MockNotifier)
		notifier.On("SendRentalConfirmation", ctx, mock.MatchedBy(func(c domain.Customer) bool { return c.ID == "CUST001" }), mock.AnythingOfType("*domain.Agreement")).Return(nil)
		h := newHarness(t, func(d *Deps) { d.Notifier = notifier })

		a, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 5)
		require.NoError(t, err)
		require.NotNil(t, a)

		// 50/day × 5 days × spring 1.0 × no duration discount × 5% regular discount
		assert.InDelta(t, 237.5, a.TotalAmount, 1e-9)
		assert.InDelta(t, 23.75, a.SecurityDeposit, 1e-9)
		assert.Equal(t, domain.AgreementStateActive, a.State)
		assert.Equal(t, testNow.AddDate(0, 0, 5), a.EndDate)
		assert.False(t, h.inventory.IsAvailable("VEH001"))
		assert.Equal(t, 1, h.svc.TotalRentalsProcessed())
		assert.InDelta(t, 237.5, h.svc.TotalRevenue(), 1e-9)

		active, ok := h.svc.ActiveAgreement(a.ID)
		require.True(t, ok)
		assert.Equal(t, a.ID, active.ID)

		c, _ := h.customers.Get("CUST001")
		assert.Equal(t, 23, c.LoyaltyPoints)
		stored, err := h.store.CustomerRepository.GetByID(ctx, "CUST001")
		require.NoError(t, err)
		assert.Equal(t, 23, stored.LoyaltyPoints)

		history, err := h.svc.RentalHistory(ctx, "CUST001")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, a.ID, history[0].ID)

		notifier.AssertExpectations(t)
	})

	t.Run("WithInsuranceAndStartDate", func(t *testing.T) {
		h := newHarness(t, nil)
		summer := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

		a, err := h.svc.ProcessRental(ctx, "CUST001", "TOOL001", 2, WithInsurance(), WithStartDate(summer))
		require.NoError(t, err)
		// 15 × 2 × 1.3 × 0.95
		assert.InDelta(t, 37.05, a.TotalAmount, 1e-9)
		assert.InDelta(t, 1.8525, a.SecurityDeposit, 1e-9)
		assert.True(t, a.InsuranceIncluded)
		assert.Equal(t, summer, a.StartDate)
	})

	t.Run("Ineligible", func(t *testing.T) {
		gateway := new(MockGateway)
		h := newHarness(t, func(d *Deps) { d.Gateway = gateway })

		a, err := h.svc.ProcessRental(ctx, "CUST002", "VEH001", 5)
		assert.Nil(t, a)
		assert.Equal(t, domain.KindIneligible, domain.KindOf(err))
		assert.ErrorIs(t, err, domain.ErrIneligible)
		assert.True(t, h.inventory.IsAvailable("VEH001"))
		assert.Equal(t, 0, h.svc.TotalRentalsProcessed())
		assert.Zero(t, h.svc.TotalRevenue())
		gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownCustomerIsIneligible", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.ProcessRental(ctx, "NOBODY", "VEH001", 5)
		assert.Equal(t, domain.KindIneligible, domain.KindOf(err))
	})

	t.Run("Unavailable", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 5)
		require.NoError(t, err)

		a, err := h.svc.ProcessRental(ctx, "CUST003", "VEH001", 2)
		assert.Nil(t, a)
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
		assert.Equal(t, 1, h.svc.TotalRentalsProcessed())

		_, err = h.svc.ProcessRental(ctx, "CUST003", "NO-SUCH-ITEM", 2)
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
	})

	t.Run("PaymentDeclined", func(t *testing.T) {
		h := newHarness(t, nil)

		a, err := h.svc.ProcessRental(ctx, "CUST-DECLINED", "VEH001", 3)
		assert.Nil(t, a)
		assert.Equal(t, domain.KindPaymentFailed, domain.KindOf(err))
		assert.ErrorIs(t, err, payment.ErrDeclined)
		assert.True(t, h.inventory.IsAvailable("VEH001"))
		assert.Empty(t, h.svc.ListActive())
		assert.Equal(t, 0, h.svc.TotalRentalsProcessed())

		history, err := h.svc.RentalHistory(ctx, "CUST-DECLINED")
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("GatewayError", func(t *testing.T) {
		gateway := new(MockGateway)
		gateway.On("Charge", mock.Anything, "CUST001", mock.AnythingOfType("float64")).Return(nil, errors.New("connection reset"))
		h := newHarness(t, func(d *Deps) { d.Gateway = gateway })

		_, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 5)
		assert.Equal(t, domain.KindPaymentFailed, domain.KindOf(err))
		assert.Contains(t, err.Error(), "connection reset")
		assert.True(t, h.inventory.IsAvailable("VEH001"))
	})

	t.Run("InvalidDuration", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 0)
		assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
		_, err = h.svc.ProcessRental(ctx, "CUST001", "VEH001", -3)
		assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	})

	t.Run("PersistenceFailureRefunds", func(t *testing.T) {
		h := newHarness(t, func(d *Deps) {
			d.Agreements = &failingAgreements{AgreementRepository: d.Agreements, err: errors.New("disk full")}
		})

		a, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 5)
		assert.Nil(t, a)
		assert.Equal(t, domain.KindInternal, domain.KindOf(err))
		assert.True(t, h.inventory.IsAvailable("VEH001"))
		assert.Equal(t, 0, h.svc.TotalRentalsProcessed())

		receipts := h.gateway.Receipts()
		require.Len(t, receipts, 1)
		assert.True(t, receipts[0].Refunded)
	})

	t.Run("ReserveFailsAfterPersist", func(t *testing.T) {
		h := newHarness(t, func(d *Deps) {
			d.Inventory = refusingInventory{Inventory: d.Inventory}
		})

		a, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 5)
		assert.Nil(t, a)
		assert.Equal(t, domain.KindInternal, domain.KindOf(err))
		assert.Equal(t, 0, h.svc.TotalRentalsProcessed())
		assert.Empty(t, h.svc.ListActive())

		receipts := h.gateway.Receipts()
		require.Len(t, receipts, 1)
		assert.True(t, receipts[0].Refunded)
	})

	t.Run("StoreSaysRentedRefunds", func(t *testing.T) {
		h := newHarness(t, func(d *Deps) {
			d.Agreements = &failingAgreements{AgreementRepository: d.Agreements, err: fmt.Errorf("reserve item VEH001: %w", domain.ErrUnavailable)}
		})

		_, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 5)
		assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
		receipts := h.gateway.Receipts()
		require.Len(t, receipts, 1)
		assert.True(t, receipts[0].Refunded)
	})
}

func TestOrchestrator_ConcurrentRentalsOfOneItem(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	const n = 20
	for i := 0; i < n; i++ {
		_, err := h.svc.RegisterCustomer(ctx, domain.Customer{ID: fmt.Sprintf("RACE%02d", i), Status: domain.CustomerStatusRegular, CreditScore: 700})
		require.NoError(t, err)
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		successes   int
		unavailable int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := h.svc.ProcessRental(ctx, id, "VEH001", 3)
			mu.Lock()
			defer mu.Unlock()
			switch domain.KindOf(err) {
			case "":
				successes++
			case domain.KindUnavailable:
				unavailable++
			default:
				t.Errorf("unexpected error for %s: %v", id, err)
			}
		}(fmt.Sprintf("RACE%02d", i))
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, unavailable)
	assert.Equal(t, 1, h.svc.TotalRentalsProcessed())
	assert.Len(t, h.gateway.Receipts(), 1)
}

func TestOrchestrator_ProcessReturn(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownAgreement", func(t *testing.T) {
		h := newHarness(t, nil)
		_, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 5)
		require.NoError(t, err)
		before := h.svc.Ledger()

		ok, err := h.svc.ProcessReturn(ctx, "does-not-exist", domain.ItemConditionExcellent)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, before, h.svc.Ledger())
		assert.False(t, h.inventory.IsAvailable("VEH001"))
	})

	t.Run("OnTimeExcellent", func(t *testing.T) {
		h := newHarness(t, nil)
		a, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 5)
		require.NoError(t, err)

		h.now = testNow.AddDate(0, 0, 4)
		ok, err := h.svc.ProcessReturn(ctx, a.ID, domain.ItemConditionExcellent)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, h.inventory.IsAvailable("VEH001"))
		_, active := h.svc.ActiveAgreement(a.ID)
		assert.False(t, active)

		summary := h.svc.Ledger()
		assert.InDelta(t, 237.5, summary.TotalRevenue, 1e-9)
		assert.Zero(t, summary.TotalAdjustments)
		assert.Zero(t, summary.ActiveAgreements)

		stored, err := h.store.AgreementRepository.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AgreementStateClosed, stored.State)
		assert.InDelta(t, 237.5, stored.TotalAmount, 1e-9)

		ok, err = h.svc.ProcessReturn(ctx, a.ID, domain.ItemConditionExcellent)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("LateAndDamaged", func(t *testing.T) {
		h := newHarness(t, nil)
		a, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 5)
		require.NoError(t, err)

		// Due back after 5 days, returned after 8: three days late.
		h.now = testNow.AddDate(0, 0, 8)
		ok, err := h.svc.ProcessReturn(ctx, a.ID, domain.ItemConditionFair)
		require.NoError(t, err)
		assert.True(t, ok)

		stored, err := h.store.AgreementRepository.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AgreementStateClosed, stored.State)
		assert.InDelta(t, 231.5, stored.AdditionalCharges["Late fee"], 1e-9)
		// Damage of 100 eats the 23.75 deposit and bills the rest.
		assert.Zero(t, stored.SecurityDeposit)
		assert.InDelta(t, 237.5+231.5+76.25, stored.TotalAmount, 1e-9)
		assert.Equal(t, domain.ItemConditionFair, stored.ReturnCondition)

		item, _ := h.inventory.Get("VEH001")
		assert.True(t, item.Available)
		assert.Equal(t, domain.ItemConditionFair, item.Condition)

		summary := h.svc.Ledger()
		assert.InDelta(t, 237.5, summary.TotalRevenue, 1e-9)
		assert.InDelta(t, 331.5, summary.TotalAdjustments, 1e-9)

		entries, total, err := h.store.LedgerRepository.ListEntries(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int32(3), total)
		assert.Equal(t, domain.LedgerEntryTypeLateFee, entries[1].Type)
		assert.Equal(t, domain.LedgerEntryTypeDamageCharge, entries[2].Type)
	})

	t.Run("InvalidCondition", func(t *testing.T) {
		h := newHarness(t, nil)
		a, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 5)
		require.NoError(t, err)

		ok, err := h.svc.ProcessReturn(ctx, a.ID, "SHINY")
		assert.False(t, ok)
		assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
		_, active := h.svc.ActiveAgreement(a.ID)
		assert.True(t, active)
	})
}

func TestOrchestrator_AddCharge(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	a, err := h.svc.ProcessRental(ctx, "CUST001", "TOOL001", 1)
	require.NoError(t, err)

	updated, err := h.svc.AddCharge(ctx, a.ID, "Cleaning", 12.5)
	require.NoError(t, err)
	assert.InDelta(t, a.TotalAmount+12.5, updated.TotalAmount, 1e-9)
	assert.Equal(t, 12.5, updated.AdditionalCharges["Cleaning"])
	assert.InDelta(t, 12.5, h.svc.Ledger().TotalAdjustments, 1e-9)

	_, err = h.svc.AddCharge(ctx, a.ID, "Cleaning", -1)
	assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))

	_, err = h.svc.AddCharge(ctx, "missing", "Cleaning", 1)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	ok, err := h.svc.ProcessReturn(ctx, a.ID, domain.ItemConditionExcellent)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = h.svc.AddCharge(ctx, a.ID, "Cleaning", 1)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestOrchestrator_OverdueAgreements(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	short, err := h.svc.ProcessRental(ctx, "CUST001", "TOOL001", 1)
	require.NoError(t, err)
	_, err = h.svc.ProcessRental(ctx, "CUST003", "VEH001", 10)
	require.NoError(t, err)

	overdue := h.svc.OverdueAgreements(testNow.AddDate(0, 0, 3))
	require.Len(t, overdue, 1)
	assert.Equal(t, short.ID, overdue[0].ID)
	assert.Len(t, h.svc.ListActive(), 2)
	assert.Empty(t, h.svc.OverdueAgreements(testNow))
}

func TestOrchestrator_Restore(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	a, err := h.svc.ProcessRental(ctx, "CUST001", "VEH001", 5)
	require.NoError(t, err)

	engine := pricing.NewEngine(nil)
	inv := inventory.NewStore(engine)
	dir := customer.NewDirectory()
	restored, err := NewOrchestrator(Deps{
		Inventory:     inv,
		Customers:     dir,
		Pricing:       engine,
		Fees:          fees.NewEngine(engine),
		Damage:        fees.NewTableAssessor(engine),
		Gateway:       h.gateway,
		Items:         h.store.ItemRepository,
		CustomerStore: h.store.CustomerRepository,
		Agreements:    h.store.AgreementRepository,
		LedgerStore:   h.store.LedgerRepository,
	})
	require.NoError(t, err)
	require.NoError(t, restored.Restore(ctx))

	_, ok := restored.ActiveAgreement(a.ID)
	assert.True(t, ok)
	assert.False(t, inv.IsAvailable("VEH001"))
	assert.True(t, inv.IsAvailable("TOOL001"))
	assert.False(t, dir.IsEligible("CUST002"))
	assert.Equal(t, 1, restored.TotalRentalsProcessed())
	assert.InDelta(t, 237.5, restored.TotalRevenue(), 1e-9)
	assert.Equal(t, 1, restored.Ledger().ActiveAgreements)
}

func TestOrchestrator_Catalog(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	t.Run("DuplicateItem", func(t *testing.T) {
		_, err := h.svc.AddItem(ctx, domain.Item{ID: "VEH001", Category: domain.ItemCategoryVehicle})
		assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
	})

	t.Run("UpdateItemCondition", func(t *testing.T) {
		require.NoError(t, h.svc.UpdateItemCondition(ctx, "TOOL001", domain.ItemConditionPoor))
		item, err := h.store.ItemRepository.GetByID(ctx, "TOOL001")
		require.NoError(t, err)
		assert.Equal(t, domain.ItemConditionPoor, item.Condition)

		assert.Equal(t, domain.KindNotFound, domain.KindOf(h.svc.UpdateItemCondition(ctx, "NOPE", domain.ItemConditionPoor)))
		assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(h.svc.UpdateItemCondition(ctx, "TOOL001", "SHINY")))
	})

	t.Run("Unblacklist", func(t *testing.T) {
		require.NoError(t, h.svc.SetBlacklisted(ctx, "CUST002", false))
		assert.True(t, h.customers.IsEligible("CUST002"))
		stored, err := h.store.CustomerRepository.GetByID(ctx, "CUST002")
		require.NoError(t, err)
		assert.False(t, stored.Blacklisted)
	})

	t.Run("UpdateCustomerStatus", func(t *testing.T) {
		require.NoError(t, h.svc.UpdateCustomerStatus(ctx, "CUST001", domain.CustomerStatusVIP))
		c, _ := h.customers.Get("CUST001")
		assert.Equal(t, domain.CustomerStatusVIP, c.Status)
		assert.Equal(t, domain.KindNotFound, domain.KindOf(h.svc.UpdateCustomerStatus(ctx, "NOPE", domain.CustomerStatusVIP)))
	})
}
