// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentalapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"cinerent.io/cinerent/rental/booking"
)

// ErrBookingsAPI is the bookings api error class.
var ErrBookingsAPI = errs.Class("bookings api")

// Bookings is an api controller for the booking lifecycle.
type Bookings struct {
	log     *zap.Logger
	service *booking.Service
}

// NewBookings creates a new bookings api controller.
func NewBookings(log *zap.Logger, service *booking.Service) *Bookings {
	return &Bookings{log: log, service: service}
}

type bookingPayload struct {
	ID            int64               `json:"id"`
	ClientID      int64               `json:"client_id"`
	EquipmentID   int64               `json:"equipment_id"`
	ProjectID     *int64              `json:"project_id,omitempty"`
	StartDate     time.Time           `json:"start_date"`
	EndDate       time.Time           `json:"end_date"`
	Quantity      int                 `json:"quantity"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	DepositAmount decimal.Decimal     `json:"deposit_amount"`
	Status        string              `json:"booking_status"`
	PaymentStatus string              `json:"payment_status"`
	Notes         *string             `json:"notes,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Client        *clientPayload      `json:"client,omitempty"`
	Equipment     *equipmentPayload   `json:"equipment,omitempty"`
	Project       *booking.ProjectRef `json:"project,omitempty"`
}

func toBookingPayload(b booking.Booking) bookingPayload {
	payload := bookingPayload{
		ID:            b.ID,
		ClientID:      b.ClientID,
		EquipmentID:   b.EquipmentID,
		ProjectID:     b.ProjectID,
		StartDate:     b.StartDate,
		EndDate:       b.EndDate,
		Quantity:      b.Quantity,
		TotalAmount:   b.TotalAmount,
		DepositAmount: b.DepositAmount,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		Notes:         b.Notes,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		Project:       b.Project,
	}
	if b.Client != nil {
		client := toClientPayload(*b.Client)
		payload.Client = &client
	}
	if b.Equipment != nil {
		eq := toEquipmentPayload(*b.Equipment)
		payload.Equipment = &eq
	}
	return payload
}

type bookingPagePayload struct {
	Items  []bookingPayload `json:"items"`
	Total  int64            `json:"total"`
	Offset int64            `json:"offset"`
	Limit  int64            `json:"limit"`
}

type bookingCreateBody struct {
	ClientID      int64            `json:"client_id"`
	EquipmentID   int64            `json:"equipment_id"`
	ProjectID     *int64           `json:"project_id"`
	StartDate     time.Time        `json:"start_date"`
	EndDate       time.Time        `json:"end_date"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	DepositAmount *decimal.Decimal `json:"deposit_amount"`
	Quantity      int              `json:"quantity"`
	Notes         *string          `json:"notes"`
}

func (body bookingCreateBody) toRequest() booking.CreateRequest {
	return booking.CreateRequest{
		ClientID:      body.ClientID,
		EquipmentID:   body.EquipmentID,
		ProjectID:     body.ProjectID,
		StartDate:     body.StartDate,
		EndDate:       body.EndDate,
		TotalAmount:   body.TotalAmount,
		DepositAmount: body.DepositAmount,
		Quantity:      body.Quantity,
		Notes:         body.Notes,
	}
}

// List returns a filtered page of bookings.
func (a *Bookings) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	filter := booking.ListFilter{
		Query:          r.URL.Query().Get("query"),
		EquipmentQuery: r.URL.Query().Get("equipment_query"),
		ActiveOnly:     queryBool(r, "active_only"),
	}
	filter.Offset, filter.Limit = queryPaging(r)

	if filter.EquipmentID, err = queryInt64(r, "equipment_id"); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.New("invalid equipment_id"))
		return
	}
	if filter.ClientID, err = queryInt64(r, "client_id"); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.New("invalid client_id"))
		return
	}
	if filter.ProjectID, err = queryInt64(r, "project_id"); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.New("invalid project_id"))
		return
	}
	if raw := r.URL.Query().Get("booking_status"); raw != "" {
		status := booking.Status(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("payment_status"); raw != "" {
		status := booking.PaymentStatus(raw)
		filter.PaymentStatus = &status
	}
	if filter.StartDate, err = queryTime(r, "start_date"); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.New("invalid start_date"))
		return
	}
	if filter.EndDate, err = queryTime(r, "end_date"); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.New("invalid end_date"))
		return
	}

	page, err := a.service.List(ctx, filter)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}

	payload := bookingPagePayload{
		Items:  make([]bookingPayload, 0, len(page.Items)),
		Total:  page.Total,
		Offset: page.Offset,
		Limit:  page.Limit,
	}
	for _, b := range page.Items {
		payload.Items = append(payload.Items, toBookingPayload(b))
	}
	serveJSON(a.log, w, http.StatusOK, payload)
}

// Get returns one booking.
func (a *Bookings) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.New("invalid booking id"))
		return
	}

	b, err := a.service.Get(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toBookingPayload(*b))
}

// Create creates one booking after the availability check.
func (a *Bookings) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	var body bookingCreateBody
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.Wrap(err))
		return
	}

	created, err := a.service.Create(ctx, body.toRequest())
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusCreated, toBookingPayload(*created))
}

// decodeBatchBody reads a batch create request: a bare array of bookings in
// the body, the optional project as a query parameter.
func decodeBatchBody(r *http.Request) ([]booking.CreateRequest, *int64, error) {
	var bodies []bookingCreateBody
	if err := json.NewDecoder(r.Body).Decode(&bodies); err != nil {
		return nil, nil, ErrBookingsAPI.Wrap(err)
	}
	projectID, err := queryInt64(r, "project_id")
	if err != nil {
		return nil, nil, ErrBookingsAPI.New("invalid project_id")
	}

	items := make([]booking.CreateRequest, 0, len(bodies))
	for _, item := range bodies {
		items = append(items, item.toRequest())
	}
	return items, projectID, nil
}

// CreateBatch creates up to 100 bookings at once; successes commit even when
// some items fail, and the response reports both sides.
func (a *Bookings) CreateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	items, projectID, err := decodeBatchBody(r)
	if err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, err)
		return
	}

	result, err := a.service.CreateBatch(ctx, items, projectID)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}

	created := make([]bookingPayload, 0, len(result.Created))
	for _, b := range result.Created {
		created = append(created, toBookingPayload(b))
	}
	serveJSON(a.log, w, http.StatusCreated, struct {
		CreatedCount    int                      `json:"created_count"`
		FailedCount     int                      `json:"failed_count"`
		CreatedBookings []bookingPayload         `json:"created_bookings"`
		FailedBookings  []booking.BatchItemError `json:"failed_bookings"`
	}{
		CreatedCount:    len(result.Created),
		FailedCount:     len(result.Failed),
		CreatedBookings: created,
		FailedBookings:  result.Failed,
	})
}

// Update patches a booking's window, quantity or amounts.
func (a *Bookings) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.New("invalid booking id"))
		return
	}

	var body struct {
		StartDate     *time.Time       `json:"start_date"`
		EndDate       *time.Time       `json:"end_date"`
		Quantity      *int             `json:"quantity"`
		TotalAmount   *decimal.Decimal `json:"total_amount"`
		DepositAmount *decimal.Decimal `json:"deposit_amount"`
		Notes         *string          `json:"notes"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.Wrap(err))
		return
	}

	updated, err := a.service.Update(ctx, id, booking.UpdateRequest{
		StartDate:     body.StartDate,
		EndDate:       body.EndDate,
		Quantity:      body.Quantity,
		TotalAmount:   body.TotalAmount,
		DepositAmount: body.DepositAmount,
		Notes:         body.Notes,
	})
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toBookingPayload(*updated))
}

// SetStatus transitions a booking through its lifecycle.
func (a *Bookings) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.New("invalid booking id"))
		return
	}

	var body struct {
		Status string `json:"booking_status"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.Wrap(err))
		return
	}

	updated, err := a.service.SetStatus(ctx, id, booking.Status(body.Status))
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toBookingPayload(*updated))
}

// SetPaymentStatus transitions a booking's payment state.
func (a *Bookings) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.New("invalid booking id"))
		return
	}

	var body struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.Wrap(err))
		return
	}

	updated, err := a.service.SetPaymentStatus(ctx, id, booking.PaymentStatus(body.PaymentStatus))
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toBookingPayload(*updated))
}

// Delete soft-deletes a booking and releases the equipment when no other
// blocking booking remains.
func (a *Bookings) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrBookingsAPI.New("invalid booking id"))
		return
	}

	if err = a.service.Delete(ctx, id); err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
