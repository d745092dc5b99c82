// Copyright (c) 2026 Communication LTD. All rights reserved.

/*
Package customer implements the customer-record catalog.

Customers are the business records managed by authenticated staff: contact
details, the subscribed service package, and the market sector. The package
is a plain CRUD collaborator of the security subsystem; every route requires
an authenticated session.
*/
package customer

import (
	"time"
)

// Customer represents one managed customer record.
type Customer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	PackageType string `json:"package_type"`
	Sector      string `json:"sector,omitempty"`

	// CreatedBy is the account ID of the staff member who registered the
	// customer.
	CreatedBy string `json:"created_by"`

	RegistrationDate time.Time `json:"registration_date"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Service packages a customer can subscribe to.
const (
	PackageBasic      = "Basic"
	PackageStandard   = "Standard"
	PackagePremium    = "Premium"
	PackageEnterprise = "Enterprise"
)

// PackageTypes lists the valid service packages.
var PackageTypes = []string{PackageBasic, PackageStandard, PackagePremium, PackageEnterprise}

// Field names for validation in the customer domain.
const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldAddress     = "address"
	FieldPackageType = "package_type"
	FieldSector      = "sector"
)
