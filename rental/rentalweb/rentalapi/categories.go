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
)

// ErrCategoriesAPI is the categories api error class.
var ErrCategoriesAPI = errs.Class("categories api")

// Categories is an api controller for the category hierarchy.
type Categories struct {
	log     *zap.Logger
	service *category.Service
}

// NewCategories creates a new categories api controller.
func NewCategories(log *zap.Logger, service *category.Service) *Categories {
	return &Categories{log: log, service: service}
}

type categoryPayload struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Description         *string    `json:"description,omitempty"`
	ParentID            *int64     `json:"parent_id,omitempty"`
	ShowInPrintOverview bool       `json:"show_in_print_overview"`
	EquipmentCount      *int64     `json:"equipment_count,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty"`
}

func toCategoryPayload(c category.Category) categoryPayload {
	return categoryPayload{
		ID:                  c.ID,
		Name:                c.Name,
		Description:         c.Description,
		ParentID:            c.ParentID,
		ShowInPrintOverview: c.ShowInPrintOverview,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
		DeletedAt:           c.DeletedAt,
	}
}

// List returns all categories; with_counts=true annotates each with its direct
// equipment count.
func (a *Categories) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	if queryBool(r, "with_counts") {
		annotated, err := a.service.ListWithEquipmentCount(ctx)
		if err != nil {
			serveJSONError(a.log, w, err)
			return
		}
		payload := make([]categoryPayload, 0, len(annotated))
		for _, entry := range annotated {
			p := toCategoryPayload(entry.Category)
			count := entry.EquipmentCount
			p.EquipmentCount = &count
			payload = append(payload, p)
		}
		serveJSON(a.log, w, http.StatusOK, payload)
		return
	}

	all, err := a.service.List(ctx)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	payload := make([]categoryPayload, 0, len(all))
	for _, c := range all {
		payload = append(payload, toCategoryPayload(c))
	}
	serveJSON(a.log, w, http.StatusOK, payload)
}

// Get returns one category.
func (a *Categories) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrCategoriesAPI.New("invalid category id"))
		return
	}

	c, err := a.service.Get(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toCategoryPayload(*c))
}

// Create creates a category.
func (a *Categories) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	var body struct {
		Name                string  `json:"name"`
		Description         *string `json:"description"`
		ParentID            *int64  `json:"parent_id"`
		ShowInPrintOverview bool    `json:"show_in_print_overview"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrCategoriesAPI.Wrap(err))
		return
	}

	created, err := a.service.Create(ctx, category.CreateRequest{
		Name:                body.Name,
		Description:         body.Description,
		ParentID:            body.ParentID,
		ShowInPrintOverview: body.ShowInPrintOverview,
	})
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusCreated, toCategoryPayload(*created))
}

// Update patches a category. A null parent_id explicitly present in the body
// clears the parent.
func (a *Categories) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrCategoriesAPI.New("invalid category id"))
		return
	}

	var body struct {
		Name                *string          `json:"name"`
		Description         *string          `json:"description"`
		ParentID            *json.RawMessage `json:"parent_id"`
		ShowInPrintOverview *bool            `json:"show_in_print_overview"`
	}
	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrCategoriesAPI.Wrap(err))
		return
	}

	req := category.UpdateRequest{
		Name:                body.Name,
		Description:         body.Description,
		ShowInPrintOverview: body.ShowInPrintOverview,
	}
	if body.ParentID != nil {
		if string(*body.ParentID) == "null" {
			req.ClearParent = true
		} else {
			var parentID int64
			if err = json.Unmarshal(*body.ParentID, &parentID); err != nil {
				serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrCategoriesAPI.Wrap(err))
				return
			}
			req.ParentID = &parentID
		}
	}

	updated, err := a.service.Update(ctx, id, req)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, toCategoryPayload(*updated))
}

// Delete soft-deletes a category.
func (a *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrCategoriesAPI.New("invalid category id"))
		return
	}

	if err = a.service.Delete(ctx, id); err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Children returns the direct children of a category.
func (a *Categories) Children(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrCategoriesAPI.New("invalid category id"))
		return
	}
	if _, err = a.service.Get(ctx, id); err != nil {
		serveJSONError(a.log, w, err)
		return
	}

	children, err := a.service.GetChildren(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	payload := make([]categoryPayload, 0, len(children))
	for _, c := range children {
		payload = append(payload, toCategoryPayload(c))
	}
	serveJSON(a.log, w, http.StatusOK, payload)
}

// Path returns the ordered chain from the root down to the category.
func (a *Categories) Path(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrCategoriesAPI.New("invalid category id"))
		return
	}

	path, err := a.service.GetPathFromRoot(ctx, id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	payload := make([]categoryPayload, 0, len(path))
	for _, c := range path {
		payload = append(payload, toCategoryPayload(c))
	}
	serveJSON(a.log, w, http.StatusOK, payload)
}

// PrintHierarchy returns the full sort path and the printable subset of a
// category's chain from the root.
func (a *Categories) PrintHierarchy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var err error
	defer mon.Task()(&ctx)(&err)

	id, ok := pathID(r, "id")
	if !ok {
		serveJSONErrorWithStatus(a.log, w, http.StatusBadRequest, ErrCategoriesAPI.New("invalid category id"))
		return
	}

	sortPath, printable, err := a.service.GetPrintHierarchyAndSortPath(ctx, &id)
	if err != nil {
		serveJSONError(a.log, w, err)
		return
	}
	serveJSON(a.log, w, http.StatusOK, struct {
		SortPath       []category.PathNode `json:"sort_path"`
		PrintHierarchy []category.PathNode `json:"print_hierarchy"`
	}{SortPath: sortPath, PrintHierarchy: printable})
}
