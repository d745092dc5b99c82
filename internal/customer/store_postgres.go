// Copyright (c) 2026 Communication LTD. All rights reserved.

package customer

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commltd/commltd-api/internal/platform/dberr"
	"github.com/commltd/commltd-api/pkg/pagination"
)

const resourceCustomer = "Customer"

// PostgresRepository implements [Repository] on PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL-backed customer repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const customerColumns = `
	id, name, email, phone, address, package_type, sector,
	created_by, registration_date, updated_at`

// Create persists a new customer record.
func (repo *PostgresRepository) Create(ctx context.Context, customer *Customer) error {
	query := `
		INSERT INTO customers (
			id, name, email, phone, address, package_type, sector,
			created_by, registration_date, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := repo.db.Exec(ctx, query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Phone,
		customer.Address,
		customer.PackageType,
		customer.Sector,
		customer.CreatedBy,
		customer.RegistrationDate,
		customer.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, resourceCustomer)
	}

	return nil
}

// FindByID returns the customer with the given ID.
func (repo *PostgresRepository) FindByID(ctx context.Context, id string) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var customer Customer
	err := repo.db.QueryRow(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.Address,
		&customer.PackageType,
		&customer.Sector,
		&customer.CreatedBy,
		&customer.RegistrationDate,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, resourceCustomer)
	}

	return &customer, nil
}

// List returns one page of customers, newest registration first, and the
// total count for pagination metadata.
func (repo *PostgresRepository) List(ctx context.Context, params pagination.Params) ([]Customer, int, error) {
	var total int
	if err := repo.db.QueryRow(ctx, `SELECT count(*) FROM customers`).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resourceCustomer)
	}

	query := `
		SELECT ` + customerColumns + `
		FROM customers
		ORDER BY registration_date DESC
		LIMIT $1 OFFSET $2`

	rows, err := repo.db.Query(ctx, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, resourceCustomer)
	}
	defer rows.Close()

	customers := make([]Customer, 0, params.Limit)
	for rows.Next() {
		var customer Customer
		err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.Phone,
			&customer.Address,
			&customer.PackageType,
			&customer.Sector,
			&customer.CreatedBy,
			&customer.RegistrationDate,
			&customer.UpdatedAt,
		)
		if err != nil {
			return nil, 0, dberr.Wrap(err, resourceCustomer)
		}
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, resourceCustomer)
	}

	return customers, total, nil
}
