package inventory

import (
	"fmt"
	"sort"
	"sync"

	"rental-engine-backend/internal/domain"
)

// BaseRates supplies the default daily price for items added without one.
type BaseRates interface {
	BaseRate(category domain.ItemCategory) float64
}

// Store owns item availability. Every read and write goes through one
// RWMutex, which makes Reserve and Release linearizable per item.
type Store struct {
	mu    sync.RWMutex
	items map[string]*domain.Item
	rates BaseRates
}

func NewStore(rates BaseRates) *Store {
	return &Store{
		items: make(map[string]*domain.Item),
		rates: rates,
	}
}

// AddItem registers a new item as available.
func (s *Store) AddItem(item domain.Item) error {
	if item.ID == "" {
		return fmt.Errorf("add item: empty id: %w", domain.ErrInvalidRequest)
	}
	if !item.Category.Valid() {
		return fmt.Errorf("add item %s: unknown category %q: %w", item.ID, item.Category, domain.ErrInvalidRequest)
	}
	if item.Condition == "" {
		item.Condition = domain.ItemConditionExcellent
	}
	if item.BasePricePerDay <= 0 && s.rates != nil {
		item.BasePricePerDay = s.rates.BaseRate(item.Category)
	}
	item.Available = true

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return fmt.Errorf("add item %s: already exists: %w", item.ID, domain.ErrInvalidRequest)
	}
	s.items[item.ID] = &item
	return nil
}

// Load replaces the item table, keeping the availability flags as given.
// Used to hydrate the store from persistent storage at startup.
func (s *Store) Load(items []domain.Item) {
	table := make(map[string]*domain.Item, len(items))
	for i := range items {
		item := items[i]
		table[item.ID] = &item
	}

	s.mu.Lock()
	s.items = table
	s.mu.Unlock()
}

func (s *Store) Get(itemID string) (domain.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return domain.Item{}, false
	}
	return *item, true
}

// List returns a snapshot of all items ordered by id.
func (s *Store) List() []domain.Item {
	s.mu.RLock()
	items := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, *item)
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// Remove drops an item that is not currently reserved.
func (s *Store) Remove(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("remove %s: %w", itemID, domain.ErrUnknownItem)
	}
	if !item.Available {
		return fmt.Errorf("remove %s: %w", itemID, domain.ErrUnavailable)
	}
	delete(s.items, itemID)
	return nil
}

// IsAvailable is true iff the item exists and is not reserved.
func (s *Store) IsAvailable(itemID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	return ok && item.Available
}

// Reserve takes the item out of circulation. It returns false, changing
// nothing, when the item is unknown or already reserved.
func (s *Store) Reserve(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok || !item.Available {
		return false
	}
	item.Available = false
	item.RentedCount++
	return true
}

// Release puts a reserved item back. Releasing an available item is a no-op;
// releasing an unknown item is a caller bug and returns ErrUnknownItem.
func (s *Store) Release(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("release %s: %w", itemID, domain.ErrUnknownItem)
	}
	item.Available = true
	return nil
}

// UpdateCondition records the condition an item came back in.
func (s *Store) UpdateCondition(itemID string, condition domain.ItemCondition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return fmt.Errorf("update condition of %s: %w", itemID, domain.ErrUnknownItem)
	}
	item.Condition = condition
	return nil
}

// UtilizationByCategory returns reserved/total per category.
func (s *Store) UtilizationByCategory() map[domain.ItemCategory]float64 {
	type counts struct{ reserved, total int }

	s.mu.RLock()
	byCategory := make(map[domain.ItemCategory]*counts)
	for _, item := range s.items {
		c, ok := byCategory[item.Category]
		if !ok {
			c = &counts{}
			byCategory[item.Category] = c
		}
		c.total++
		if !item.Available {
			c.reserved++
		}
	}
	s.mu.RUnlock()

	result := make(map[domain.ItemCategory]float64, len(byCategory))
	for category, c := range byCategory {
		result[category] = float64(c.reserved) / float64(c.total)
	}
	return result
}
