// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentalapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"cinerent.io/cinerent/rental/document"
)

// ErrDocumentsAPI is the documents api error class.
var ErrDocumentsAPI = errs.Class("documents api")

// Documents is an api controller for document metadata.
type Documents struct {
	log     *zap.Logger
	service *document.Service
}

// NewDocuments creates a new documents api controller.
func NewDocuments(log *zap.Logger, service *document.Service) *Documents {
	return &Documents{log: log, service: service}
}

type documentPayload struct {
	ID        int64      `json:"id"`
	ClientID  int64      `json:"client_id"`
	BookingID *int64     `json:"booking_id,omitempty"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	FilePath  string     `json:"file_path"`
	FileName  string     `json:"file_name"`
	FileSize  int64      `json:"file_size"`
	MimeType  string     `json:"mime_type"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func toDocumentPayload(d document.Document) documentPayload {
	return documentPayload{
		ID:        d.ID,
		ClientID:  d.ClientID,
		BookingID: d.BookingID,
		Type:      string(d.Type),
		Title:     d.Title,
		FilePath:  d.FilePath,
		FileName:  d.FileName,
		FileSize:  d.FileSize,
		MimeType:  d.MimeType,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		DeletedAt: d.DeletedAt,
	}
}

// List returns a filtered page of documents.
func (a *Documents) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	filter := document.ListFilter{IncludeDeleted: queryBool(r, "include_deleted")}
	filter.Offset, filter.Limit = queryPaging(r)
	if filter.ClientID, err = queryInt64(r, "client_id"); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrDocumentsAPI.New("invalid client_id"))
		return
	}
	if filter.BookingID, err = queryInt64(r, "booking_id"); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrDocumentsAPI.New("invalid booking_id"))
		return
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		docType := document.Type(raw)
		filter.Type = &docType
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := document.Status(raw)
		filter.Status = &status
	}

	page, err := a.service.List(ctx, filter)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}

	payload := struct {
		Items  []documentPayload `json:"items"`
		Total  int64             `json:"total"`
		Offset int64             `json:"offset"`
		Limit  int64             `json:"limit"`
	}{
		Items:  make([]documentPayload, 0, len(page.Items)),
		Total:  page.Total,
		Offset: page.Offset,
		Limit:  page.Limit,
	}
	for _, d := range page.Items {
		payload.Items = append(payload.Items, toDocumentPayload(d))
	}
	serveJSON(a.log, w, http.StatusOK, payload)
}

// Get returns one document's metadata.
func (a *Documents) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrDocumentsAPI.New("invalid document id"))
		return
	}

	d, err := a.service.Get(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toDocumentPayload(*d))
}

// Create registers document metadata with status DRAFT.
func (a *Documents) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	var body struct {
		ClientID  int64  `json:"client_id"`
		BookingID *int64 `json:"booking_id"`
		Type      string `json:"type"`
		Title     string `json:"title"`
		FilePath  string `json:"file_path"`
		FileName  string `json:"file_name"`
		FileSize  int64  `json:"file_size"`
		MimeType  string `json:"mime_type"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrDocumentsAPI.Wrap(err))
		return
	}

	created, err := a.service.Create(ctx, document.CreateRequest{
		ClientID:  body.ClientID,
		BookingID: body.BookingID,
		Type:      document.Type(body.Type),
		Title:     body.Title,
		FilePath:  body.FilePath,
		FileName:  body.FileName,
		FileSize:  body.FileSize,
		MimeType:  body.MimeType,
	})
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusCreated, toDocumentPayload(*created))
}

// SetStatus moves a document through its review workflow.
func (a *Documents) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrDocumentsAPI.New("invalid document id"))
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrDocumentsAPI.Wrap(err))
		return
	}

	updated, err := a.service.SetStatus(ctx, id, document.Status(body.Status))
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toDocumentPayload(*updated))
}

// Delete soft-deletes a document.
func (a *Documents) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrDocumentsAPI.New("invalid document id"))
		return
	}

	if err = a.service.Delete(ctx, id); err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
