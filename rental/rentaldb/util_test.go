// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentaldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%camera%`, likePattern("camera"))

	// LIKE metacharacters in the query match themselves, not everything.
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%EOS\_R5%`, likePattern("EOS_R5"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}

func TestLimitClause(t *testing.T) {
	offset, limit := limitClause(0, 0)
	assert.Equal(t, int64(0), offset)
	assert.Equal(t, int64(50), limit)

	offset, limit = limitClause(-5, 10000)
	assert.Equal(t, int64(0), offset)
	assert.Equal(t, int64(250), limit)

	offset, limit = limitClause(20, 10)
	assert.Equal(t, int64(20), offset)
	assert.Equal(t, int64(10), limit)
}
