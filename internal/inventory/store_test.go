package inventory

import (
	"sync"
	"sync/atomic"
	"testing"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(pricing.NewEngine(nil))
	require.NoError(t, s.AddItem(domain.Item{ID: "VEH001", Name: "Van", Category: domain.ItemCategoryVehicle}))
	require.NoError(t, s.AddItem(domain.Item{ID: "VEH002", Name: "Truck", Category: domain.ItemCategoryVehicle, BasePricePerDay: 80}))
	require.NoError(t, s.AddItem(domain.Item{ID: "TOOL001", Name: "Drill", Category: domain.ItemCategoryTools}))
	return s
}

func TestStore_AddItem(t *testing.T) {
	s := newTestStore(t)

	t.Run("Defaults", func(t *testing.T) {
		item, ok := s.Get("VEH001")
		require.True(t, ok)
		assert.True(t, item.Available)
		assert.Equal(t, 50.0, item.BasePricePerDay)
		assert.Equal(t, domain.ItemConditionExcellent, item.Condition)

		item, _ = s.Get("VEH002")
		assert.Equal(t, 80.0, item.BasePricePerDay)
	})

	t.Run("Duplicate", func(t *testing.T) {
		err := s.AddItem(domain.Item{ID: "VEH001", Category: domain.ItemCategoryVehicle})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("Unknown category", func(t *testing.T) {
		err := s.AddItem(domain.Item{ID: "BOAT1", Category: "BOATS"})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		_, ok := s.Get("BOAT1")
		assert.False(t, ok)
	})

	t.Run("Empty id", func(t *testing.T) {
		assert.ErrorIs(t, s.AddItem(domain.Item{Category: domain.ItemCategoryTools}), domain.ErrInvalidRequest)
	})
}

func TestStore_ReserveRelease(t *testing.T) {
	s := newTestStore(t)

	t.Run("Reserve flips availability", func(t *testing.T) {
		assert.True(t, s.IsAvailable("VEH001"))
		assert.True(t, s.Reserve("VEH001"))
		assert.False(t, s.IsAvailable("VEH001"))

		item, _ := s.Get("VEH001")
		assert.Equal(t, 1, item.RentedCount)
	})

	t.Run("Second reserve fails without mutation", func(t *testing.T) {
		assert.False(t, s.Reserve("VEH001"))
		item, _ := s.Get("VEH001")
		assert.Equal(t, 1, item.RentedCount)
		assert.False(t, item.Available)
	})

	t.Run("Unknown item", func(t *testing.T) {
		assert.False(t, s.IsAvailable("NOPE"))
		assert.False(t, s.Reserve("NOPE"))
		assert.ErrorIs(t, s.Release("NOPE"), domain.ErrUnknownItem)
	})

	t.Run("Release", func(t *testing.T) {
		assert.NoError(t, s.Release("VEH001"))
		assert.True(t, s.IsAvailable("VEH001"))

		// releasing an available item changes nothing
		assert.NoError(t, s.Release("VEH001"))
		item, _ := s.Get("VEH001")
		assert.True(t, item.Available)
		assert.Equal(t, 1, item.RentedCount)

		assert.True(t, s.Reserve("VEH001"))
		item, _ = s.Get("VEH001")
		assert.Equal(t, 2, item.RentedCount)
	})
}

func TestStore_ConcurrentReserve(t *testing.T) {
	s := newTestStore(t)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Reserve("TOOL001") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	item, _ := s.Get("TOOL001")
	assert.Equal(t, 1, item.RentedCount)
}

func TestStore_UtilizationByCategory(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.Reserve("VEH001"))

	util := s.UtilizationByCategory()
	assert.Equal(t, 0.5, util[domain.ItemCategoryVehicle])
	assert.Equal(t, 0.0, util[domain.ItemCategoryTools])
	_, ok := util[domain.ItemCategoryFurniture]
	assert.False(t, ok)

	// read only
	assert.False(t, s.IsAvailable("VEH001"))
	assert.True(t, s.IsAvailable("VEH002"))
}

func TestStore_Load(t *testing.T) {
	s := NewStore(nil)
	s.Load([]domain.Item{
		{ID: "B", Category: domain.ItemCategoryTools, Available: true},
		{ID: "A", Category: domain.ItemCategoryTools, Available: false, RentedCount: 4},
	})

	assert.False(t, s.IsAvailable("A"))
	assert.True(t, s.IsAvailable("B"))

	items := s.List()
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].ID)
	assert.Equal(t, 4, items[0].RentedCount)
}

func TestStore_UpdateCondition(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpdateCondition("VEH001", domain.ItemConditionFair))
	item, _ := s.Get("VEH001")
	assert.Equal(t, domain.ItemConditionFair, item.Condition)
	assert.ErrorIs(t, s.UpdateCondition("NOPE", domain.ItemConditionFair), domain.ErrUnknownItem)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.Reserve("VEH001"))

	assert.ErrorIs(t, s.Remove("VEH001"), domain.ErrUnavailable)
	assert.ErrorIs(t, s.Remove("NOPE"), domain.ErrUnknownItem)
	require.NoError(t, s.Remove("TOOL001"))
	_, ok := s.Get("TOOL001")
	assert.False(t, ok)
}
