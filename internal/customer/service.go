// Copyright (c) 2026 Communication LTD. All rights reserved.

package customer

import (
	"context"
	"log/slog"
	"time"

	"github.com/commltd/commltd-api/pkg/pagination"
	"github.com/commltd/commltd-api/pkg/uuid"
)

// Service implements the customer-record operations.
type Service struct {
	customers Repository
	logger    *slog.Logger
}

// NewService creates the customer service.
func NewService(customers Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{customers: customers, logger: logger}
}

// CreateInput carries the fields of a new customer record.
type CreateInput struct {
	Name        string
	Email       string
	Phone       string
	Address     string
	PackageType string
	Sector      string

	// CreatedBy is the account ID taken from the verified session claims,
	// never from the request body.
	CreatedBy string
}

// Create registers a new customer record.
func (service *Service) Create(ctx context.Context, input CreateInput) (*Customer, error) {
	now := time.Now().UTC()
	customer := &Customer{
		ID:               uuid.New(),
		Name:             input.Name,
		Email:            input.Email,
		Phone:            input.Phone,
		Address:          input.Address,
		PackageType:      input.PackageType,
		Sector:           input.Sector,
		CreatedBy:        input.CreatedBy,
		RegistrationDate: now,
		UpdatedAt:        now,
	}

	if err := service.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "customer created",
		slog.String("customer_id", customer.ID),
		slog.String("created_by", customer.CreatedBy),
	)

	return customer, nil
}

// Get returns the customer with the given ID.
func (service *Service) Get(ctx context.Context, id string) (*Customer, error) {
	return service.customers.FindByID(ctx, id)
}

// List returns one page of customers plus pagination metadata.
func (service *Service) List(ctx context.Context, params pagination.Params) ([]Customer, pagination.Meta, error) {
	customers, total, err := service.customers.List(ctx, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	return customers, pagination.NewMeta(params.Page, params.Limit, total), nil
}
