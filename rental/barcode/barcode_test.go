// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package barcode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinerent.io/cinerent/rental/barcode"
)

func TestChecksumFrozen(t *testing.T) {
	// These values are depended on by deployed scanners. Do not change them.
	for _, tt := range []struct {
		sequence int64
		barcode  string
	}{
		{1, "00000000101"},
		{2, "00000000202"},
		{9, "00000000909"},
		{10, "00000001003"},
		{12, "00000001205"},
		{123, "00000012316"},
		{999999999, "99999999997"},
	} {
		composed, err := barcode.Compose(tt.sequence)
		require.NoError(t, err)
		assert.Equal(t, tt.barcode, composed, "sequence %d", tt.sequence)
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, sequence := range []int64{0, 1, 7, 42, 100000000, 999999999} {
		composed, err := barcode.Compose(sequence)
		require.NoError(t, err)
		require.Len(t, composed, barcode.Length)

		parsed, err := barcode.Parse(composed)
		require.NoError(t, err)
		assert.Equal(t, sequence, parsed)
	}
}

func TestParseRejects(t *testing.T) {
	for _, tt := range []struct {
		name    string
		barcode string
	}{
		{"empty", ""},
		{"short", "0000000011"},
		{"long", "000000001011"},
		{"letters", "00000000a01"},
		{"bad checksum", "00000000199"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := barcode.Parse(tt.barcode)
			require.Error(t, err)
			assert.True(t, barcode.ErrInvalid.Has(err))
		})
	}
}

func TestComposeRange(t *testing.T) {
	_, err := barcode.Compose(-1)
	require.Error(t, err)
	_, err = barcode.Compose(1000000000)
	require.Error(t, err)
}
