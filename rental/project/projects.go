// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package project implements named collections of bookings with aggregate
// payment rollup.
package project

import (
	"context"
	"time"

	"github.com/zeebo/errs"

	"cinerent.io/cinerent/rental/booking"
)

var (
	// Error is the default project errs class.
	Error = errs.Class("project service")
	// ErrNotFound is returned when a project does not exist or is soft-deleted.
	ErrNotFound = errs.Class("project not found")
	// ErrValidation is returned for malformed project input.
	ErrValidation = errs.Class("project validation")
)

// Status is the lifecycle state of a project.
type Status string

// Project statuses.
const (
	StatusDraft     Status = "DRAFT"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether the status is a known project status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the derived aggregate payment state of a project.
type PaymentStatus string

// Project payment statuses.
const (
	PaymentUnpaid        PaymentStatus = "UNPAID"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
)

// DerivePaymentStatus computes the aggregate payment status from the payment
// statuses of the member bookings: PAID iff all paid, UNPAID iff all pending
// (or no members), PARTIALLY_PAID otherwise.
func DerivePaymentStatus(statuses []booking.PaymentStatus) PaymentStatus {
	if len(statuses) == 0 {
		return PaymentUnpaid
	}
	allPaid, allPending := true, true
	for _, s := range statuses {
		if s != booking.PaymentPaid {
			allPaid = false
		}
		if s != booking.PaymentPending {
			allPending = false
		}
	}
	switch {
	case allPaid:
		return PaymentPaid
	case allPending:
		return PaymentUnpaid
	default:
		return PaymentPartiallyPaid
	}
}

// Project is a named collection of bookings for one client.
type Project struct {
	ID            int64
	Name          string
	ClientID      int64
	StartDate     time.Time
	EndDate       time.Time
	Status        Status
	PaymentStatus PaymentStatus
	Description   *string
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// CreateRequest holds the fields for creating a project.
type CreateRequest struct {
	Name        string
	ClientID    int64
	StartDate   time.Time
	EndDate     time.Time
	Description *string
	Notes       *string
}

// UpdateRequest holds updatable project fields. Nil fields are unchanged.
type UpdateRequest struct {
	Name        *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *Status
	Description *string
	Notes       *string
}

// ListFilter selects projects for listing.
type ListFilter struct {
	ClientID       *int64
	Status         *Status
	Query          string
	IncludeDeleted bool
	Offset         int64
	Limit          int64
}

// Page is one page of projects with the window total.
type Page struct {
	Items  []Project
	Total  int64
	Offset int64
	Limit  int64
}

// DB exposes methods to manage the projects table.
//
// architecture: Database
type DB interface {
	Get(ctx context.Context, id int64) (*Project, error)
	List(ctx context.Context, filter ListFilter) (*Page, error)
	Create(ctx context.Context, req CreateRequest) (*Project, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Project, error)
	SoftDelete(ctx context.Context, id int64) error
	// ClearBookings detaches every booking from the project.
	ClearBookings(ctx context.Context, id int64) error
}

// Store is the transactional scope the project service operates in.
type Store interface {
	Projects() DB
	Bookings() booking.DB
	ProjectRollup() booking.ProjectRollup
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
}
