// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package live implements the side cache of live scan session ids.
package live

import (
	"context"
	"strings"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"cinerent.io/cinerent/rental/scansession"
)

var (
	// Error is the default live cache errs class.
	Error = errs.Class("live cache")

	mon = monkit.Package()
)

// Config contains configurable values for the live session cache.
type Config struct {
	StorageBackend string `help:"what to use for tracking live scan sessions (none or redis://...)" default:"none"`
}

// OpenCache creates a scansession.Live of the type specified in the provided
// config.
func OpenCache(ctx context.Context, log *zap.Logger, config Config) (scansession.Live, error) {
	backend := config.StorageBackend
	switch {
	case backend == "" || backend == "none":
		return noopCache{}, nil
	case strings.HasPrefix(backend, "redis://"):
		return openRedisCache(ctx, log, backend)
	default:
		return nil, Error.New("unrecognized live session backend specifier %q", backend)
	}
}

// noopCache ignores every call. It backs deployments without redis.
type noopCache struct{}

func (noopCache) Touch(ctx context.Context, sessionID int64, expiresAt time.Time) error { return nil }
func (noopCache) Forget(ctx context.Context, sessionID int64) error                     { return nil }
