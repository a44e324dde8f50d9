package service

import (
	"context"
	"fmt"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/logger"
)

// AddItem registers a new item in the inventory and stores it.
func (o *Orchestrator) AddItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	const op = "AddItem"
	if err := o.deps.Inventory.AddItem(item); err != nil {
		return nil, domain.NewRentalError(domain.KindInvalidRequest, op, err)
	}
	stored, _ := o.deps.Inventory.Get(item.ID)
	if err := o.deps.Items.Create(ctx, &stored); err != nil {
		if rmErr := o.deps.Inventory.Remove(item.ID); rmErr != nil {
			logger.ErrorContext(ctx, "Failed to roll back item registration", "itemID", item.ID, "error", rmErr)
		}
		return nil, domain.NewRentalError(domain.KindOf(err), op, err)
	}
	logger.InfoContext(ctx, "Item added", "itemID", stored.ID, "category", stored.Category)
	return &stored, nil
}

func (o *Orchestrator) UpdateItemCondition(ctx context.Context, itemID string, condition domain.ItemCondition) error {
	const op = "UpdateItemCondition"
	if !condition.Valid() {
		return domain.NewRentalError(domain.KindInvalidRequest, op, fmt.Errorf("unknown condition %q", condition))
	}
	if _, ok := o.deps.Inventory.Get(itemID); !ok {
		return domain.NewRentalError(domain.KindNotFound, op, fmt.Errorf("item %s", itemID))
	}
	if err := o.deps.Items.UpdateCondition(ctx, itemID, condition); err != nil {
		return domain.NewRentalError(domain.KindOf(err), op, err)
	}
	return o.deps.Inventory.UpdateCondition(itemID, condition)
}

// RegisterCustomer adds a customer account to the directory and stores it.
func (o *Orchestrator) RegisterCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const op = "RegisterCustomer"
	if err := o.deps.Customers.Register(c); err != nil {
		return nil, domain.NewRentalError(domain.KindInvalidRequest, op, err)
	}
	stored, _ := o.deps.Customers.Get(c.ID)
	if err := o.deps.CustomerStore.Create(ctx, &stored); err != nil {
		o.deps.Customers.Remove(c.ID)
		return nil, domain.NewRentalError(domain.KindOf(err), op, err)
	}
	logger.InfoContext(ctx, "Customer registered", "customerID", stored.ID, "status", stored.Status)
	return &stored, nil
}

func (o *Orchestrator) UpdateCustomerStatus(ctx context.Context, customerID string, status domain.CustomerStatus) error {
	const op = "UpdateCustomerStatus"
	if _, ok := o.deps.Customers.Get(customerID); !ok {
		return domain.NewRentalError(domain.KindNotFound, op, fmt.Errorf("customer %s", customerID))
	}
	if !status.Valid() {
		return domain.NewRentalError(domain.KindInvalidRequest, op, fmt.Errorf("unknown status %q", status))
	}
	if err := o.deps.CustomerStore.UpdateStatus(ctx, customerID, status); err != nil {
		return domain.NewRentalError(domain.KindOf(err), op, err)
	}
	return o.deps.Customers.UpdateStatus(customerID, status)
}

func (o *Orchestrator) SetBlacklisted(ctx context.Context, customerID string, blacklisted bool) error {
	const op = "SetBlacklisted"
	if _, ok := o.deps.Customers.Get(customerID); !ok {
		return domain.NewRentalError(domain.KindNotFound, op, fmt.Errorf("customer %s", customerID))
	}
	if err := o.deps.CustomerStore.SetBlacklisted(ctx, customerID, blacklisted); err != nil {
		return domain.NewRentalError(domain.KindOf(err), op, err)
	}
	if blacklisted {
		return o.deps.Customers.Blacklist(customerID)
	}
	o.deps.Customers.Unblacklist(customerID)
	return nil
}

// Restore reloads items, customers, active agreements and ledger totals from
// the repositories. It replaces whatever is held in memory.
func (o *Orchestrator) Restore(ctx context.Context) error {
	logger.EnterMethod("Orchestrator.Restore")

	items, err := o.deps.Items.List(ctx)
	if err != nil {
		return fmt.Errorf("restore items: %w", err)
	}
	customers, err := o.deps.CustomerStore.List(ctx)
	if err != nil {
		return fmt.Errorf("restore customers: %w", err)
	}
	active, err := o.deps.Agreements.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("restore agreements: %w", err)
	}
	summary, err := o.deps.LedgerStore.GetSummary(ctx)
	if err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}

	o.deps.Inventory.Load(items)
	o.deps.Customers.Load(customers)

	table := make(map[string]*domain.Agreement, len(active))
	for i := range active {
		table[active[i].ID] = &active[i]
	}

	o.mu.Lock()
	o.active = table
	o.summary = *summary
	o.mu.Unlock()

	logger.Info("Rental state restored", "items", len(items), "customers", len(customers), "activeAgreements", len(active))
	logger.ExitMethod("Orchestrator.Restore")
	return nil
}
