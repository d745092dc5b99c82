// Copyright (c) 2026 Communication LTD. All rights reserved.

package customer

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commltd/commltd-api/internal/platform/middleware"
	requestutil "github.com/commltd/commltd-api/internal/platform/request"
	"github.com/commltd/commltd-api/internal/platform/respond"
	"github.com/commltd/commltd-api/internal/platform/validate"
	"github.com/commltd/commltd-api/pkg/pagination"
)

// Handler exposes the customer endpoints over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the customer HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes assembles the customer router. Every route requires authentication.
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/", h.create)
	router.Get("/", h.list)
	router.Get("/{id}", h.get)

	return router
}

type createRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	PackageType string `json:"package_type"`
	Sector      string `json:"sector"`
}

// create handles POST /customers.
func (h *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload createRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required(FieldName, payload.Name).
		MaxLen(FieldName, payload.Name, 100).
		Required(FieldEmail, payload.Email).
		Required(FieldPackageType, payload.PackageType)
	if payload.Email != "" {
		validator.Email(FieldEmail, payload.Email)
	}
	if payload.PackageType != "" {
		validator.OneOf(FieldPackageType, payload.PackageType, PackageTypes...)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	customer, err := h.service.Create(request.Context(), CreateInput{
		Name:        payload.Name,
		Email:       payload.Email,
		Phone:       payload.Phone,
		Address:     payload.Address,
		PackageType: payload.PackageType,
		Sector:      payload.Sector,
		CreatedBy:   userID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, customer)
}

// list handles GET /customers.
func (h *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	customers, meta, err := h.service.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, customers, meta)
}

// get handles GET /customers/{id}.
func (h *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	customer, err := h.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, customer)
}
