// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package rentalapi implements the JSON api controllers of the rental server.
package rentalapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"

	"cinerent.io/cinerent/rental/booking"
	"cinerent.io/cinerent/rental/category"
	"cinerent.io/cinerent/rental/client"
	"cinerent.io/cinerent/rental/document"
	"cinerent.io/cinerent/rental/equipment"
	"cinerent.io/cinerent/rental/project"
	"cinerent.io/cinerent/rental/rentaldb"
	"cinerent.io/cinerent/rental/scansession"
)

var mon = monkit.Package()

// statusOf maps a service error onto an HTTP status code.
func statusOf(err error) int {
	switch {
	case category.ErrNotFound.Has(err),
		equipment.ErrNotFound.Has(err),
		client.ErrNotFound.Has(err),
		booking.ErrNotFound.Has(err),
		project.ErrNotFound.Has(err),
		document.ErrNotFound.Has(err),
		scansession.ErrNotFound.Has(err):
		return http.StatusNotFound

	case category.ErrNameTaken.Has(err),
		equipment.ErrBarcodeTaken.Has(err),
		equipment.ErrStatusTransition.Has(err),
		booking.ErrAvailability.Has(err),
		booking.ErrStatusTransition.Has(err),
		document.ErrStatusTransition.Has(err),
		rentaldb.ErrTxConflict.Has(err):
		return http.StatusConflict

	// Domain-rule refusals (delete a category that still owns equipment,
	// delete a client with blocking bookings) are client errors, not
	// conflicts.
	case category.ErrInUse.Has(err),
		equipment.ErrInUse.Has(err),
		client.ErrInUse.Has(err),
		category.ErrValidation.Has(err),
		equipment.ErrValidation.Has(err),
		client.ErrValidation.Has(err),
		booking.ErrValidation.Has(err),
		project.ErrValidation.Has(err),
		document.ErrValidation.Has(err),
		scansession.ErrValidation.Has(err):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// serveJSON writes v as the JSON response body.
func serveJSON(log *zap.Logger, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write json response", zap.Error(err))
	}
}

// serveJSONError writes a service error to the response, mapping the error
// class onto the status code.
func serveJSONError(log *zap.Logger, w http.ResponseWriter, err error) {
	serveJSONErrorWithStatus(log, w, statusOf(err), err)
}

func serveJSONErrorWithStatus(log *zap.Logger, w http.ResponseWriter, status int, err error) {
	if status == http.StatusInternalServerError {
		log.Error("returning internal server error to client", zap.Int("code", status), zap.Error(err))
	} else {
		log.Debug("returning error to client", zap.Int("code", status), zap.Error(err))
	}

	var response struct {
		Error string `json:"error"`
	}
	response.Error = err.Error()
	serveJSON(log, w, status, response)
}

// pathID extracts a numeric {id}-style path variable.
func pathID(r *http.Request, name string) (int64, bool) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// Date-only values are accepted too.
		t, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func queryPaging(r *http.Request) (offset, limit int64) {
	offset, _ = strconv.ParseInt(r.URL.Query().Get("skip"), 10, 64)
	limit, _ = strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	return offset, limit
}
