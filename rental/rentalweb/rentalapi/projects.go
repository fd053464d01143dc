// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentalapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"cinerent.io/cinerent/rental/category"
	"cinerent.io/cinerent/rental/project"
)

// ErrProjectsAPI is the projects api error class.
var ErrProjectsAPI = errs.Class("projects api")

// Projects is an api controller for project aggregation.
type Projects struct {
	log     *zap.Logger
	service *project.Service
}

// NewProjects creates a new projects api controller.
func NewProjects(log *zap.Logger, service *project.Service) *Projects {
	return &Projects{log: log, service: service}
}

type projectPayload struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	ClientID      int64      `json:"client_id"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	Description   *string    `json:"description,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

func toProjectPayload(p project.Project) projectPayload {
	return projectPayload{
		ID:            p.ID,
		Name:          p.Name,
		ClientID:      p.ClientID,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		Status:        string(p.Status),
		PaymentStatus: string(p.PaymentStatus),
		Description:   p.Description,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		DeletedAt:     p.DeletedAt,
	}
}

// List returns a filtered page of projects.
func (a *Projects) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	filter := project.ListFilter{
		Query:          r.URL.Query().Get("query"),
		IncludeDeleted: queryBool(r, "include_deleted"),
	}
	filter.Offset, filter.Limit = queryPaging(r)
	if filter.ClientID, err = queryInt64(r, "client_id"); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrProjectsAPI.New("invalid client_id"))
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := project.Status(raw)
		filter.Status = &status
	}

	page, err := a.service.List(ctx, filter)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}

	payload := struct {
		Items  []projectPayload `json:"items"`
		Total  int64            `json:"total"`
		Offset int64            `json:"offset"`
		Limit  int64            `json:"limit"`
	}{
		Items:  make([]projectPayload, 0, len(page.Items)),
		Total:  page.Total,
		Offset: page.Offset,
		Limit:  page.Limit,
	}
	for _, p := range page.Items {
		payload.Items = append(payload.Items, toProjectPayload(p))
	}
	serveJSON(a.log, w, http.StatusOK, payload)
}

// Get returns one project.
func (a *Projects) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrProjectsAPI.New("invalid project id"))
		return
	}

	p, err := a.service.Get(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toProjectPayload(*p))
}

// Create creates a project in DRAFT with payment status UNPAID.
func (a *Projects) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	var body struct {
		Name        string    `json:"name"`
		ClientID    int64     `json:"client_id"`
		StartDate   time.Time `json:"start_date"`
		EndDate     time.Time `json:"end_date"`
		Description *string   `json:"description"`
		Notes       *string   `json:"notes"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrProjectsAPI.Wrap(err))
		return
	}

	created, err := a.service.Create(ctx, project.CreateRequest{
		Name:        body.Name,
		ClientID:    body.ClientID,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
		Description: body.Description,
		Notes:       body.Notes,
	})
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusCreated, toProjectPayload(*created))
}

// Update patches a project.
func (a *Projects) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrProjectsAPI.New("invalid project id"))
		return
	}

	var body struct {
		Name        *string    `json:"name"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
		Status      *string    `json:"status"`
		Description *string    `json:"description"`
		Notes       *string    `json:"notes"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrProjectsAPI.Wrap(err))
		return
	}

	req := project.UpdateRequest{
		Name:        body.Name,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
		Description: body.Description,
		Notes:       body.Notes,
	}
	if body.Status != nil {
		status := project.Status(*body.Status)
		req.Status = &status
	}

	updated, err := a.service.Update(ctx, id, req)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toProjectPayload(*updated))
}

// Delete soft-deletes a project; member bookings survive detached.
func (a *Projects) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrProjectsAPI.New("invalid project id"))
		return
	}

	if err = a.service.Delete(ctx, id); err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Bookings returns the member bookings annotated with equipment name and
// printable category breadcrumbs.
func (a *Projects) Bookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrProjectsAPI.New("invalid project id"))
		return
	}

	members, err := a.service.GetBookings(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}

	type memberPayload struct {
		bookingPayload
		EquipmentName string              `json:"equipment_name"`
		Breadcrumbs   []category.PathNode `json:"breadcrumbs"`
	}
	payload := make([]memberPayload, 0, len(members))
	for _, member := range members {
		payload = append(payload, memberPayload{
			bookingPayload: toBookingPayload(member.Booking),
			EquipmentName:  member.EquipmentName,
			Breadcrumbs:    member.Breadcrumbs,
		})
	}
	serveJSON(a.log, w, http.StatusOK, payload)
}

// AddBooking groups a booking into the project.
func (a *Projects) AddBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	projectID, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrProjectsAPI.New("invalid project id"))
		return
	}
	bookingID, ok := pathID(r, "bookingID")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrProjectsAPI.New("invalid booking id"))
		return
	}

	if err = a.service.AddBooking(ctx, projectID, bookingID); err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveBooking detaches a booking from the project.
func (a *Projects) RemoveBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	projectID, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrProjectsAPI.New("invalid project id"))
		return
	}
	bookingID, ok := pathID(r, "bookingID")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrProjectsAPI.New("invalid booking id"))
		return
	}

	if err = a.service.RemoveBooking(ctx, projectID, bookingID); err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
