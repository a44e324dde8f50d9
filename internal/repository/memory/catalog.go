package memory

import (
	"context"
	"fmt"
	"sort"

	"rental-engine-backend/internal/domain"
)

type itemRepository struct {
	s *state
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.items[item.ID]; exists {
		return fmt.Errorf("item %s already exists: %w", item.ID, domain.ErrInvalidRequest)
	}
	r.s.items[item.ID] = *item
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return &item, nil
}

func (r *itemRepository) List(ctx context.Context) ([]domain.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := make([]domain.Item, 0, len(r.s.items))
	for _, item := range r.s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *itemRepository) UpdateCondition(ctx context.Context, id string, condition domain.ItemCondition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	item.Condition = condition
	r.s.items[id] = item
	return nil
}

type customerRepository struct {
	s *state
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.customers[c.ID]; exists {
		return fmt.Errorf("customer %s already exists: %w", c.ID, domain.ErrInvalidRequest)
	}
	r.s.customers[c.ID] = *c
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	customers := make([]domain.Customer, 0, len(r.s.customers))
	for _, c := range r.s.customers {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	return customers, nil
}

func (r *customerRepository) UpdateStatus(ctx context.Context, id string, status domain.CustomerStatus) error {
	return r.update(id, func(c *domain.Customer) { c.Status = status })
}

func (r *customerRepository) SetBlacklisted(ctx context.Context, id string, blacklisted bool) error {
	return r.update(id, func(c *domain.Customer) { c.Blacklisted = blacklisted })
}

func (r *customerRepository) update(id string, fn func(*domain.Customer)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	fn(&c)
	r.s.customers[id] = c
	return nil
}
