// Package memory keeps rental data in process memory. It is the default
// storage backend and the one used by tests.
package memory

import (
	"sync"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/repository"
)

// state is shared by all repositories of one Store so that multi-table
// writes happen under a single lock.
type state struct {
	mu         sync.RWMutex
	items      map[string]domain.Item
	customers  map[string]domain.Customer
	agreements map[string]*domain.Agreement
	ledger     []domain.LedgerEntry
}

type Store struct {
	repository.ItemRepository
	repository.CustomerRepository
	repository.AgreementRepository
	repository.LedgerRepository
}

func NewStore() *Store {
	s := &state{
		items:      make(map[string]domain.Item),
		customers:  make(map[string]domain.Customer),
		agreements: make(map[string]*domain.Agreement),
	}
	return &Store{
		ItemRepository:      &itemRepository{s: s},
		CustomerRepository:  &customerRepository{s: s},
		AgreementRepository: &agreementRepository{s: s},
		LedgerRepository:    &ledgerRepository{s: s},
	}
}
