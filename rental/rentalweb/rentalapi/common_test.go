// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentalapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/errs"
	"go.uber.org/zap/zaptest"

	"cinerent.io/cinerent/rental/booking"
	"cinerent.io/cinerent/rental/category"
	"cinerent.io/cinerent/rental/client"
	"cinerent.io/cinerent/rental/document"
	"cinerent.io/cinerent/rental/equipment"
	"cinerent.io/cinerent/rental/rentaldb"
	"cinerent.io/cinerent/rental/scansession"
)

func TestStatusOf(t *testing.T) {
	for _, tt := range []struct {
		err  error
		want int
	}{
		{category.ErrNotFound.New("id 1"), http.StatusNotFound},
		{booking.ErrNotFound.New("id 1"), http.StatusNotFound},
		{scansession.ErrNotFound.New("id 1"), http.StatusNotFound},

		{category.ErrNameTaken.New("x"), http.StatusConflict},
		{equipment.ErrBarcodeTaken.New("x"), http.StatusConflict},
		{booking.ErrAvailability.New("x"), http.StatusConflict},
		{booking.ErrStatusTransition.New("x"), http.StatusConflict},
		{document.ErrStatusTransition.New("x"), http.StatusConflict},
		{rentaldb.ErrTxConflict.New("x"), http.StatusConflict},

		// Domain-rule refusals render as 400, not 409.
		{category.ErrInUse.New("category still has equipment"), http.StatusBadRequest},
		{equipment.ErrInUse.New("x"), http.StatusBadRequest},
		{client.ErrInUse.New("x"), http.StatusBadRequest},

		{booking.ErrValidation.New("x"), http.StatusBadRequest},
		{equipment.ErrValidation.New("x"), http.StatusBadRequest},

		{errs.New("boom"), http.StatusInternalServerError},
	} {
		assert.Equal(t, tt.want, statusOf(tt.err), "%v", tt.err)
	}

	// Wrapping by another class keeps the mapping of the inner class.
	wrapped := booking.Error.Wrap(booking.ErrAvailability.New("x"))
	assert.Equal(t, http.StatusConflict, statusOf(wrapped))
}

func TestQueryTime(t *testing.T) {
	request := func(raw string) *http.Request {
		return &http.Request{URL: &url.URL{RawQuery: url.Values{"from": {raw}}.Encode()}}
	}

	parsed, err := queryTime(request("2026-03-01"), "from")
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, 2026, parsed.Year())

	parsed, err = queryTime(request("2026-03-01T10:30:00Z"), "from")
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, 10, parsed.Hour())

	_, err = queryTime(request("yesterday"), "from")
	require.Error(t, err)

	parsed, err = queryTime(&http.Request{URL: &url.URL{}}, "from")
	require.NoError(t, err)
	assert.Nil(t, parsed)
}

func TestQueryInt64(t *testing.T) {
	request := func(raw string) *http.Request {
		return &http.Request{URL: &url.URL{RawQuery: url.Values{"client_id": {raw}}.Encode()}}
	}

	parsed, err := queryInt64(request("42"), "client_id")
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, int64(42), *parsed)

	parsed, err = queryInt64(&http.Request{URL: &url.URL{}}, "client_id")
	require.NoError(t, err)
	assert.Nil(t, parsed)

	_, err = queryInt64(request("many"), "client_id")
	require.Error(t, err)
}

func TestQueryPaging(t *testing.T) {
	r := &http.Request{URL: &url.URL{RawQuery: "skip=20&limit=10"}}
	offset, limit := queryPaging(r)
	assert.Equal(t, int64(20), offset)
	assert.Equal(t, int64(10), limit)

	offset, limit = queryPaging(&http.Request{URL: &url.URL{}})
	assert.Zero(t, offset)
	assert.Zero(t, limit)
}

func TestServeJSONError(t *testing.T) {
	log := zaptest.NewLogger(t)

	w := httptest.NewRecorder()
	serveJSONError(log, w, equipment.ErrNotFound.New("id 7"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "equipment not found")
}
