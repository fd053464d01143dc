// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentalapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"cinerent.io/cinerent/rental/scansession"
)

// ErrScanSessionsAPI is the scan sessions api error class.
var ErrScanSessionsAPI = errs.Class("scan sessions api")

// ScanSessions is an api controller for the scan session carts.
type ScanSessions struct {
	log     *zap.Logger
	service *scansession.Service
}

// NewScanSessions creates a new scan sessions api controller.
func NewScanSessions(log *zap.Logger, service *scansession.Service) *ScanSessions {
	return &ScanSessions{log: log, service: service}
}

type sessionPayload struct {
	ID        int64              `json:"id"`
	UserID    *int64             `json:"user_id,omitempty"`
	Name      string             `json:"name"`
	Items     []scansession.Item `json:"items"`
	ExpiresAt time.Time          `json:"expires_at"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func toSessionPayload(s scansession.Session) sessionPayload {
	items := s.Items
	if items == nil {
		items = []scansession.Item{}
	}
	return sessionPayload{
		ID:        s.ID,
		UserID:    s.UserID,
		Name:      s.Name,
		Items:     items,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// List returns the live sessions of the user named by user_id. Requests
// without one get an empty list.
func (a *ScanSessions) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	userID, err := queryInt64(r, "user_id")
	if err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrScanSessionsAPI.New("invalid user_id"))
		return
	}

	sessions, err := a.service.List(ctx, userID)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	payload := make([]sessionPayload, 0, len(sessions))
	for _, s := range sessions {
		payload = append(payload, toSessionPayload(s))
	}
	serveJSON(a.log, w, http.StatusOK, payload)
}

// Get returns one live session.
func (a *ScanSessions) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrScanSessionsAPI.New("invalid session id"))
		return
	}

	s, err := a.service.Get(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toSessionPayload(*s))
}

// Create opens a session expiring a week from now.
func (a *ScanSessions) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	var body struct {
		UserID *int64             `json:"user_id"`
		Name   string             `json:"name"`
		Items  []scansession.Item `json:"items"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrScanSessionsAPI.Wrap(err))
		return
	}

	created, err := a.service.Create(ctx, scansession.CreateRequest{
		UserID: body.UserID,
		Name:   body.Name,
		Items:  body.Items,
	})
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusCreated, toSessionPayload(*created))
}

// ReplaceItems swaps the session's items wholesale.
func (a *ScanSessions) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrScanSessionsAPI.New("invalid session id"))
		return
	}

	var body struct {
		Items []scansession.Item `json:"items"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrScanSessionsAPI.Wrap(err))
		return
	}

	updated, err := a.service.ReplaceItems(ctx, id, body.Items)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toSessionPayload(*updated))
}

// Rename changes the session name.
func (a *ScanSessions) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrScanSessionsAPI.New("invalid session id"))
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrScanSessionsAPI.Wrap(err))
		return
	}

	updated, err := a.service.Rename(ctx, id, body.Name)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toSessionPayload(*updated))
}

// Delete removes a session.
func (a *ScanSessions) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrScanSessionsAPI.New("invalid session id"))
		return
	}

	if err = a.service.Delete(ctx, id); err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
