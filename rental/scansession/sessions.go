// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package scansession implements ephemeral carts that users accumulate
// scanned items into before committing them as a booking batch.
package scansession

import (
	"context"
	"time"

	"github.com/zeebo/errs"
)

var (
	// Error is the default scan session errs class.
	Error = errs.Class("scan session service")
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errs.Class("scan session not found")
	// ErrValidation is returned for malformed session input.
	ErrValidation = errs.Class("scan session validation")
)

// DefaultTTL is how long a session stays visible after creation.
const DefaultTTL = 7 * 24 * time.Hour

// Item is one scanned equipment entry of a session.
type Item struct {
	EquipmentID      int64      `json:"equipment_id"`
	Barcode          string     `json:"barcode"`
	Name             string     `json:"name"`
	CategoryID       *int64     `json:"category_id,omitempty"`
	BookingStartDate *time.Time `json:"booking_start_date,omitempty"`
	BookingEndDate   *time.Time `json:"booking_end_date,omitempty"`
}

// Session is an ephemeral scratch area owned by a user.
type Session struct {
	ID        int64
	UserID    *int64
	Name      string
	Items     []Item
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateRequest holds the fields for opening a session.
type CreateRequest struct {
	UserID *int64
	Name   string
	Items  []Item
}

// DB exposes methods to manage the scan_sessions table. All reads hide
// sessions whose expires_at has passed.
//
// architecture: Database
type DB interface {
	Get(ctx context.Context, id int64) (*Session, error)
	// ListForUser returns the live sessions of one user. A nil userID
	// matches nothing.
	ListForUser(ctx context.Context, userID *int64) ([]Session, error)
	Create(ctx context.Context, req CreateRequest, expiresAt time.Time) (*Session, error)
	// ReplaceItems swaps the items list wholesale.
	ReplaceItems(ctx context.Context, id int64, items []Item) (*Session, error)
	Rename(ctx context.Context, id int64, name string) (*Session, error)
	Delete(ctx context.Context, id int64) error
	// DeleteExpired hard-purges expired sessions and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Live is an opaque side cache of live session ids, kept off the booking hot
// path. Implementations must tolerate being absent.
type Live interface {
	Touch(ctx context.Context, sessionID int64, expiresAt time.Time) error
	Forget(ctx context.Context, sessionID int64) error
}
