package postgres

import (
	"context"
	"database/sql"

	"rental-engine-backend/internal/domain"
	"rental-engine-backend/internal/repository"
)

type itemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `INSERT INTO items (id, name, category, base_price_per_day, condition, available, rented_count)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, item.ID, item.Name, item.Category, item.BasePricePerDay, item.Condition, item.Available, item.RentedCount)
	return mapError(err, "item "+item.ID)
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	item := &domain.Item{}
	query := `SELECT id, name, category, base_price_per_day, condition, available, rented_count FROM items WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Name, &item.Category, &item.BasePricePerDay, &item.Condition, &item.Available, &item.RentedCount)
	if err != nil {
		return nil, mapError(err, "item "+id)
	}
	return item, nil
}

func (r *itemRepository) List(ctx context.Context) ([]domain.Item, error) {
	query := `SELECT id, name, category, base_price_per_day, condition, available, rented_count FROM items ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.BasePricePerDay, &item.Condition, &item.Available, &item.RentedCount); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *itemRepository) UpdateCondition(ctx context.Context, id string, condition domain.ItemCondition) error {
	result, err := r.db.ExecContext(ctx, `UPDATE items SET condition = $1 WHERE id = $2`, condition, id)
	if err != nil {
		return err
	}
	return requireOneRow(result, "item "+id, domain.ErrNotFound)
}

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `INSERT INTO customers (id, name, email, status, credit_score, loyalty_points, blacklisted, joined_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Email, c.Status, c.CreditScore, c.LoyaltyPoints, c.Blacklisted, c.JoinedOn)
	return mapError(err, "customer "+c.ID)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	c := &domain.Customer{}
	query := `SELECT id, name, COALESCE(email, ''), status, credit_score, loyalty_points, blacklisted, joined_on FROM customers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.Status, &c.CreditScore, &c.LoyaltyPoints, &c.Blacklisted, &c.JoinedOn)
	if err != nil {
		return nil, mapError(err, "customer "+id)
	}
	return c, nil
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	query := `SELECT id, name, COALESCE(email, ''), status, credit_score, loyalty_points, blacklisted, joined_on FROM customers ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Status, &c.CreditScore, &c.LoyaltyPoints, &c.Blacklisted, &c.JoinedOn); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *customerRepository) UpdateStatus(ctx context.Context, id string, status domain.CustomerStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE customers SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return requireOneRow(result, "customer "+id, domain.ErrNotFound)
}

func (r *customerRepository) SetBlacklisted(ctx context.Context, id string, blacklisted bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE customers SET blacklisted = $1 WHERE id = $2`, blacklisted, id)
	if err != nil {
		return err
	}
	return requireOneRow(result, "customer "+id, domain.ErrNotFound)
}
