// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package client implements the renter records.
package client

import (
	"context"
	"time"

	"github.com/zeebo/errs"
)

var (
	// Error is the default client errs class.
	Error = errs.Class("client service")
	// ErrNotFound is returned when a client does not exist or is soft-deleted.
	ErrNotFound = errs.Class("client not found")
	// ErrValidation is returned for malformed client input.
	ErrValidation = errs.Class("client validation")
	// ErrInUse is returned when deleting a client with active bookings.
	ErrInUse = errs.Class("client in use")
)

// Status is the standing of a client.
type Status string

// Client statuses.
const (
	StatusActive   Status = "ACTIVE"
	StatusBlocked  Status = "BLOCKED"
	StatusArchived Status = "ARCHIVED"
)

// Valid reports whether the status is a known client status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusBlocked, StatusArchived:
		return true
	}
	return false
}

// Client is a renter. Name is free-form, historically combining first and
// last name. Email and phone are not unique.
type Client struct {
	ID        int64
	Name      string
	Email     *string
	Phone     *string
	Company   *string
	Status    Status
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// CreateRequest holds the fields for registering a client.
type CreateRequest struct {
	Name    string
	Email   *string
	Phone   *string
	Company *string
	Notes   *string
}

// UpdateRequest holds updatable client fields. Nil fields are unchanged.
type UpdateRequest struct {
	Name    *string
	Email   *string
	Phone   *string
	Company *string
	Status  *Status
	Notes   *string
}

// Page is one page of clients with the window total.
type Page struct {
	Items  []Client
	Total  int64
	Offset int64
	Limit  int64
}

// ListFilter selects clients for listing.
type ListFilter struct {
	Status         *Status
	Query          string
	IncludeDeleted bool
	Offset         int64
	Limit          int64
}

// DB exposes methods to manage the clients table.
//
// architecture: Database
type DB interface {
	Get(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context, filter ListFilter) (*Page, error)
	Create(ctx context.Context, req CreateRequest) (*Client, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Client, error)
	SoftDelete(ctx context.Context, id int64) error
}

// BookingGuard answers whether bookings block a client operation.
type BookingGuard interface {
	HasActiveForClient(ctx context.Context, clientID int64) (bool, error)
}

// Store is the transactional scope the client service operates in.
type Store interface {
	Clients() DB
	BookingGuard() BookingGuard
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
}
