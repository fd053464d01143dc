// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package scansession_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cinerent.io/cinerent/private/testcontext"
	"cinerent.io/cinerent/rental/scansession"
)

func TestSweeperPurgesExpired(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	c := &clock{now: time.Now()}
	db := newFakeDB(c.Now)

	userID := int64(1)
	expired, err := db.Create(ctx, scansession.CreateRequest{UserID: &userID, Name: "stale"}, c.now.Add(-time.Hour))
	require.NoError(t, err)
	live, err := db.Create(ctx, scansession.CreateRequest{UserID: &userID, Name: "fresh"}, c.now.Add(time.Hour))
	require.NoError(t, err)

	sweeper := scansession.NewSweeper(zaptest.NewLogger(t), db, scansession.SweeperConfig{
		Enabled:  true,
		Interval: time.Hour,
	})
	ctx.Go(func() error {
		return sweeper.Run(ctx)
	})
	defer ctx.Check(sweeper.Close)

	sweeper.Loop.TriggerWait()

	_, ok := db.sessions[expired.ID]
	assert.False(t, ok, "expired session is hard-purged")
	_, ok = db.sessions[live.ID]
	assert.True(t, ok, "live session survives the sweep")
}
