// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentalapi

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBatchBody(t *testing.T) {
	body := `[
		{"client_id": 1, "equipment_id": 2, "total_amount": "100"},
		{"client_id": 1, "equipment_id": 3, "total_amount": "250.50", "quantity": 2}
	]`

	// The batch body is a bare array; the project comes from the query.
	r := httptest.NewRequest("POST", "/bookings/batch?project_id=9", strings.NewReader(body))
	items, projectID, err := decodeBatchBody(r)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, projectID)
	assert.Equal(t, int64(9), *projectID)
	assert.Equal(t, int64(2), items[0].EquipmentID)
	assert.Equal(t, 2, items[1].Quantity)

	r = httptest.NewRequest("POST", "/bookings/batch", strings.NewReader(`[]`))
	items, projectID, err = decodeBatchBody(r)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Nil(t, projectID)

	// A wrapper object is rejected outright.
	r = httptest.NewRequest("POST", "/bookings/batch", strings.NewReader(`{"bookings": []}`))
	_, _, err = decodeBatchBody(r)
	require.Error(t, err)

	r = httptest.NewRequest("POST", "/bookings/batch?project_id=nine", strings.NewReader(`[]`))
	_, _, err = decodeBatchBody(r)
	require.Error(t, err)
}
