// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package booking implements reservations of equipment for time windows,
// their availability rules and their lifecycle.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/errs"

	"cinerent.io/cinerent/rental/client"
	"cinerent.io/cinerent/rental/equipment"
)

var (
	// Error is the default booking errs class.
	Error = errs.Class("booking service")
	// ErrNotFound is returned when a booking does not exist or is soft-deleted.
	ErrNotFound = errs.Class("booking not found")
	// ErrValidation is returned for malformed booking input.
	ErrValidation = errs.Class("booking validation")
	// ErrAvailability is returned when the target equipment is unavailable.
	ErrAvailability = errs.Class("equipment unavailable")
	// ErrStatusTransition is returned for illegal state machine transitions.
	ErrStatusTransition = errs.Class("booking status transition")
)

// Unavailable carries the details of an availability rejection.
type Unavailable struct {
	EquipmentID int64
	// ConflictID is the first conflicting booking, 0 when the equipment
	// status alone blocks the reservation.
	ConflictID      int64
	EquipmentStatus equipment.Status
}

// Error implements error.
func (u *Unavailable) Error() string {
	if u.ConflictID != 0 {
		return fmt.Sprintf("equipment %d conflicts with booking %d", u.EquipmentID, u.ConflictID)
	}
	return fmt.Sprintf("equipment %d is %s", u.EquipmentID, u.EquipmentStatus)
}

// Booking reserves one equipment item for a time window on behalf of a
// client, optionally grouped into a project. The interval is closed-closed.
type Booking struct {
	ID            int64
	ClientID      int64
	EquipmentID   int64
	ProjectID     *int64
	StartDate     time.Time
	EndDate       time.Time
	Quantity      int
	TotalAmount   decimal.Decimal
	DepositAmount decimal.Decimal
	Status        Status
	PaymentStatus PaymentStatus
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time

	// Eagerly resolved references.
	Client    *client.Client
	Equipment *equipment.Equipment
	Project   *ProjectRef
}

// ProjectRef is a light reference to the project a booking belongs to.
type ProjectRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateRequest holds the fields for creating a booking.
type CreateRequest struct {
	ClientID    int64
	EquipmentID int64
	ProjectID   *int64
	StartDate   time.Time
	EndDate     time.Time
	TotalAmount decimal.Decimal
	// DepositAmount defaults to 20% of TotalAmount when nil.
	DepositAmount *decimal.Decimal
	Quantity      int
	Notes         *string
}

// UpdateRequest holds updatable booking fields. Nil fields are unchanged.
type UpdateRequest struct {
	StartDate     *time.Time
	EndDate       *time.Time
	Quantity      *int
	TotalAmount   *decimal.Decimal
	DepositAmount *decimal.Decimal
	Notes         *string
}

// ListFilter selects bookings for listing.
type ListFilter struct {
	Query          string
	EquipmentQuery string
	EquipmentID    *int64
	ClientID       *int64
	ProjectID      *int64
	Status         *Status
	PaymentStatus  *PaymentStatus
	StartDate      *time.Time
	EndDate        *time.Time
	ActiveOnly     bool
	Offset         int64
	Limit          int64
}

// Page is one page of bookings with the window total.
type Page struct {
	Items  []Booking
	Total  int64
	Offset int64
	Limit  int64
}

// BatchItemError reports one failed item of a batch create.
type BatchItemError struct {
	EquipmentID int64  `json:"equipment_id"`
	Error       string `json:"error"`
}

// BatchResult is the outcome of a batch create.
type BatchResult struct {
	Created []Booking
	Failed  []BatchItemError
}

// DB exposes methods to manage the bookings table.
//
// Reads resolve client, equipment and project eagerly and exclude
// soft-deleted rows.
//
// architecture: Database
type DB interface {
	Get(ctx context.Context, id int64) (*Booking, error)
	List(ctx context.Context, filter ListFilter) (*Page, error)
	// Create inserts a booking with the repository defaults
	// booking_status=ACTIVE and payment_status=PENDING.
	Create(ctx context.Context, req CreateRequest, deposit decimal.Decimal) (*Booking, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Booking, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Booking, error)
	UpdatePayment(ctx context.Context, id int64, status PaymentStatus) (*Booking, error)
	// SetProject sets or clears the project association.
	SetProject(ctx context.Context, id int64, projectID *int64) error
	// SoftDelete stamps deleted_at on a booking and detaches its documents.
	SoftDelete(ctx context.Context, id int64) error

	// ListBlockingOverlaps returns bookings of this equipment in a blocking
	// state overlapping the closed-closed window, excluding excludeID when
	// non-nil, ordered by id.
	ListBlockingOverlaps(ctx context.Context, equipmentID int64, from, to time.Time, excludeID *int64) ([]Booking, error)
	// ListForEquipment returns all bookings of one equipment unit.
	ListForEquipment(ctx context.Context, equipmentID int64) ([]Booking, error)
	// ListForProject returns all bookings grouped into a project.
	ListForProject(ctx context.Context, projectID int64) ([]Booking, error)

	HasBlockingForEquipment(ctx context.Context, equipmentID int64) (bool, error)
	HasActiveForClient(ctx context.Context, clientID int64) (bool, error)
}

// ProjectRollup recomputes the stored aggregate payment status of a project
// from its member bookings.
type ProjectRollup interface {
	RecomputePayment(ctx context.Context, projectID int64) error
}

// Store is the transactional scope the booking service operates in.
type Store interface {
	Bookings() DB
	Equipment() equipment.DB
	Clients() client.DB
	ProjectRollup() ProjectRollup
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
}
