// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentalapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"cinerent.io/cinerent/rental/booking"
	"cinerent.io/cinerent/rental/equipment"
)

// ErrEquipmentAPI is the equipment api error class.
var ErrEquipmentAPI = errs.Class("equipment api")

// Equipment is an api controller for the equipment inventory.
type Equipment struct {
	log      *zap.Logger
	service  *equipment.Service
	bookings *booking.Service
}

// NewEquipment creates a new equipment api controller.
func NewEquipment(log *zap.Logger, service *equipment.Service, bookings *booking.Service) *Equipment {
	return &Equipment{log: log, service: service, bookings: bookings}
}

type equipmentPayload struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	SerialNumber    *string          `json:"serial_number,omitempty"`
	Barcode         string           `json:"barcode"`
	CategoryID      int64            `json:"category_id"`
	Category        *categoryPayload `json:"category,omitempty"`
	Status          string           `json:"status"`
	ReplacementCost decimal.Decimal  `json:"replacement_cost"`
	Notes           *string          `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       *time.Time       `json:"deleted_at,omitempty"`
}

func toEquipmentPayload(eq equipment.Equipment) equipmentPayload {
	payload := equipmentPayload{
		ID:              eq.ID,
		Name:            eq.Name,
		Description:     eq.Description,
		SerialNumber:    eq.SerialNumber,
		Barcode:         eq.Barcode,
		CategoryID:      eq.CategoryID,
		Status:          string(eq.Status),
		ReplacementCost: eq.ReplacementCost,
		Notes:           eq.Notes,
		CreatedAt:       eq.CreatedAt,
		UpdatedAt:       eq.UpdatedAt,
		DeletedAt:       eq.DeletedAt,
	}
	if eq.Category != nil {
		category := toCategoryPayload(*eq.Category)
		payload.Category = &category
	}
	return payload
}

type equipmentPagePayload struct {
	Items  []equipmentPayload `json:"items"`
	Total  int64              `json:"total"`
	Offset int64              `json:"offset"`
	Limit  int64              `json:"limit"`
}

// List returns a filtered page of equipment. A category filter covers the
// category's whole subtree; available_from/available_to narrow to units free
// for the window.
func (a *Equipment) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	filter := equipment.ListFilter{
		Query:          r.URL.Query().Get("query"),
		IncludeDeleted: queryBool(r, "include_deleted"),
	}
	filter.Offset, filter.Limit = queryPaging(r)

	if raw := r.URL.Query().Get("status"); raw != "" {
		status := equipment.Status(raw)
		if !status.Valid() {
			serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("unknown status %q", raw))
			return
		}
		filter.Status = &status
	}
	categoryID, err := queryInt64(r, "category_id")
	if err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("invalid category_id"))
		return
	}
	if filter.AvailableFrom, err = queryTime(r, "available_from"); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("invalid available_from"))
		return
	}
	if filter.AvailableTo, err = queryTime(r, "available_to"); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("invalid available_to"))
		return
	}
	if (filter.AvailableFrom == nil) != (filter.AvailableTo == nil) {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("available_from and available_to go together"))
		return
	}

	page, err := a.service.List(ctx, filter, categoryID)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}

	payload := equipmentPagePayload{
		Items:  make([]equipmentPayload, 0, len(page.Items)),
		Total:  page.Total,
		Offset: page.Offset,
		Limit:  page.Limit,
	}
	for _, eq := range page.Items {
		payload.Items = append(payload.Items, toEquipmentPayload(eq))
	}
	serveJSON(a.log, w, http.StatusOK, payload)
}

// Get returns one equipment unit.
func (a *Equipment) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("invalid equipment id"))
		return
	}

	eq, err := a.service.Get(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toEquipmentPayload(*eq))
}

// GetByBarcode resolves an equipment unit by its barcode.
func (a *Equipment) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	code, ok := mux.Vars(r)["barcode"]
	if !ok || code == "" {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("barcode missing"))
		return
	}

	eq, err := a.service.GetByBarcode(ctx, code)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toEquipmentPayload(*eq))
}

type equipmentCreateBody struct {
	Name            string          `json:"name"`
	Description     *string         `json:"description"`
	SerialNumber    *string         `json:"serial_number"`
	CategoryID      int64           `json:"category_id"`
	ReplacementCost decimal.Decimal `json:"replacement_cost"`
	Notes           *string         `json:"notes"`
	CustomBarcode   *string         `json:"custom_barcode"`
	ValidateBarcode bool            `json:"validate_barcode"`
}

// Create registers new equipment, minting a barcode unless a custom one is
// supplied.
func (a *Equipment) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	var body equipmentCreateBody
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.Wrap(err))
		return
	}

	created, err := a.service.Create(ctx, equipment.CreateRequest{
		Name:            body.Name,
		Description:     body.Description,
		SerialNumber:    body.SerialNumber,
		CategoryID:      body.CategoryID,
		ReplacementCost: body.ReplacementCost,
		Notes:           body.Notes,
		CustomBarcode:   body.CustomBarcode,
		ValidateBarcode: body.ValidateBarcode,
	})
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusCreated, toEquipmentPayload(*created))
}

// Update patches an equipment unit. The barcode is immutable through this
// path.
func (a *Equipment) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("invalid equipment id"))
		return
	}

	var body struct {
		Name            *string          `json:"name"`
		Description     *string          `json:"description"`
		SerialNumber    *string          `json:"serial_number"`
		CategoryID      *int64           `json:"category_id"`
		ReplacementCost *decimal.Decimal `json:"replacement_cost"`
		Notes           *string          `json:"notes"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.Wrap(err))
		return
	}

	updated, err := a.service.Update(ctx, id, equipment.UpdateRequest{
		Name:            body.Name,
		Description:     body.Description,
		SerialNumber:    body.SerialNumber,
		CategoryID:      body.CategoryID,
		ReplacementCost: body.ReplacementCost,
		Notes:           body.Notes,
	})
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toEquipmentPayload(*updated))
}

// SetStatus transitions equipment to a new status. RENTED is refused; only the
// booking lifecycle moves equipment in and out of RENTED.
func (a *Equipment) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("invalid equipment id"))
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.Wrap(err))
		return
	}

	updated, err := a.service.SetStatus(ctx, id, equipment.Status(body.Status))
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toEquipmentPayload(*updated))
}

// Delete soft-deletes an equipment unit.
func (a *Equipment) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("invalid equipment id"))
		return
	}

	if err = a.service.Delete(ctx, id); err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegenerateBarcode mints a fresh barcode; the previous one stops resolving.
func (a *Equipment) RegenerateBarcode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("invalid equipment id"))
		return
	}

	updated, err := a.service.RegenerateBarcode(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toEquipmentPayload(*updated))
}

// Availability reports whether the equipment unit is free for a window and
// lists the conflicting bookings.
func (a *Equipment) Availability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("invalid equipment id"))
		return
	}
	from, err := queryTime(r, "start_date")
	if err != nil || from == nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("start_date missing"))
		return
	}
	to, err := queryTime(r, "end_date")
	if err != nil || to == nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("end_date missing"))
		return
	}

	info, err := a.bookings.Availability(ctx, id, *from, *to)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, info)
}

// Bookings returns the full booking history of one equipment unit.
func (a *Equipment) Bookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrEquipmentAPI.New("invalid equipment id"))
		return
	}
	if _, err = a.service.Get(ctx, id); err != nil {
		serveJSONError(a.log, w, err)
		return
	}

	history, err := a.bookings.ListForEquipment(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	payload := make([]bookingPayload, 0, len(history))
	for _, b := range history {
		payload = append(payload, toBookingPayload(b))
	}
	serveJSON(a.log, w, http.StatusOK, payload)
}
