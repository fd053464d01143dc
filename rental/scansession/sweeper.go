// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package scansession

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cinerent.io/cinerent/private/sync2"
)

// SweeperConfig contains configurable values for the expired session sweeper.
type SweeperConfig struct {
	Enabled  bool          `help:"whether expired scan sessions are reaped in the background" default:"true"`
	Interval time.Duration `help:"the time between expired session sweeps" default:"1h"`
}

// Sweeper hard-purges expired scan sessions in the background. Deleting
// already-deleted rows is a no-op, so runs are idempotent.
//
// architecture: Chore
type Sweeper struct {
	log   *zap.Logger
	db    DB
	Loop  *sync2.Cycle
	nowFn func() time.Time
}

// NewSweeper creates a new sweeper.
func NewSweeper(log *zap.Logger, db DB, config SweeperConfig) *Sweeper {
	return &Sweeper{
		log:   log,
		db:    db,
		Loop:  sync2.NewCycle(config.Interval),
		nowFn: time.Now,
	}
}

// Run starts the sweeper loop. Failures are logged, not fatal.
func (sweeper *Sweeper) Run(ctx context.Context) error {
	return sweeper.Loop.Run(ctx, func(ctx context.Context) error {
		removed, err := sweeper.db.DeleteExpired(ctx, sweeper.nowFn())
		if err != nil {
			sweeper.log.Error("expired session sweep failed", zap.Error(err))
			return nil
		}
		if removed > 0 {
			sweeper.log.Info("expired scan sessions removed", zap.Int64("count", removed))
		}
		return nil
	})
}

// Close stops the sweeper loop.
func (sweeper *Sweeper) Close() error {
	sweeper.Loop.Stop()
	return nil
}
