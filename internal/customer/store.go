// Copyright (c) 2026 Communication LTD. All rights reserved.

package customer

import (
	"context"

	"github.com/commltd/commltd-api/pkg/pagination"
)

// Repository defines persistence operations for customer records.
type Repository interface {
	// Create persists a new customer record.
	Create(ctx context.Context, customer *Customer) error

	// FindByID returns the customer with the given ID.
	FindByID(ctx context.Context, id string) (*Customer, error)

	// List returns one page of customers ordered by registration date,
	// newest first, together with the total record count.
	List(ctx context.Context, params pagination.Params) ([]Customer, int, error)
}
