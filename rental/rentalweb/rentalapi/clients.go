// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentalapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"cinerent.io/cinerent/rental/client"
)

// ErrClientsAPI is the clients api error class.
var ErrClientsAPI = errs.Class("clients api")

// Clients is an api controller for client management.
type Clients struct {
	log     *zap.Logger
	service *client.Service
}

// NewClients creates a new clients api controller.
func NewClients(log *zap.Logger, service *client.Service) *Clients {
	return &Clients{log: log, service: service}
}

type clientPayload struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Company   *string    `json:"company,omitempty"`
	Status    string     `json:"status"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func toClientPayload(c client.Client) clientPayload {
	return clientPayload{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		Status:    string(c.Status),
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		DeletedAt: c.DeletedAt,
	}
}

// List returns a filtered page of clients.
func (a *Clients) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	filter := client.ListFilter{
		Query:          r.URL.Query().Get("query"),
		IncludeDeleted: queryBool(r, "include_deleted"),
	}
	filter.Offset, filter.Limit = queryPaging(r)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := client.Status(raw)
		filter.Status = &status
	}

	page, err := a.service.List(ctx, filter)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}

	payload := struct {
		Items  []clientPayload `json:"items"`
		Total  int64           `json:"total"`
		Offset int64           `json:"offset"`
		Limit  int64           `json:"limit"`
	}{
		Items:  make([]clientPayload, 0, len(page.Items)),
		Total:  page.Total,
		Offset: page.Offset,
		Limit:  page.Limit,
	}
	for _, c := range page.Items {
		payload.Items = append(payload.Items, toClientPayload(c))
	}
	serveJSON(a.log, w, http.StatusOK, payload)
}

// Get returns one client.
func (a *Clients) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrClientsAPI.New("invalid client id"))
		return
	}

	c, err := a.service.Get(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toClientPayload(*c))
}

// Create registers a client.
func (a *Clients) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	var body struct {
		Name    string  `json:"name"`
		Email   *string `json:"email"`
		Phone   *string `json:"phone"`
		Company *string `json:"company"`
		Notes   *string `json:"notes"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrClientsAPI.Wrap(err))
		return
	}

	created, err := a.service.Create(ctx, client.CreateRequest{
		Name:    body.Name,
		Email:   body.Email,
		Phone:   body.Phone,
		Company: body.Company,
		Notes:   body.Notes,
	})
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusCreated, toClientPayload(*created))
}

// Update patches a client.
func (a *Clients) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrClientsAPI.New("invalid client id"))
		return
	}

	var body struct {
		Name    *string `json:"name"`
		Email   *string `json:"email"`
		Phone   *string `json:"phone"`
		Company *string `json:"company"`
		Status  *string `json:"status"`
		Notes   *string `json:"notes"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrClientsAPI.Wrap(err))
		return
	}

	req := client.UpdateRequest{
		Name:    body.Name,
		Email:   body.Email,
		Phone:   body.Phone,
		Company: body.Company,
		Notes:   body.Notes,
	}
	if body.Status != nil {
		status := client.Status(*body.Status)
		req.Status = &status
	}

	updated, err := a.service.Update(ctx, id, req)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toClientPayload(*updated))
}

// Delete soft-deletes a client without active bookings.
func (a *Clients) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrClientsAPI.New("invalid client id"))
		return
	}

	if err = a.service.Delete(ctx, id); err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
