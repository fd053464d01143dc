// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package equipment implements the rentable inventory and its lifecycle.
package equipment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/errs"

	"cinerent.io/cinerent/rental/barcode"
	"cinerent.io/cinerent/rental/category"
)

var (
	// Error is the default equipment errs class.
	Error = errs.Class("equipment service")
	// ErrNotFound is returned when equipment does not exist or is soft-deleted.
	ErrNotFound = errs.Class("equipment not found")
	// ErrValidation is returned for malformed equipment input.
	ErrValidation = errs.Class("equipment validation")
	// ErrBarcodeTaken is returned when a barcode is already assigned.
	ErrBarcodeTaken = errs.Class("barcode taken")
	// ErrStatusTransition is returned for illegal status transitions.
	ErrStatusTransition = errs.Class("equipment status transition")
	// ErrInUse is returned when deleting equipment with blocking bookings.
	ErrInUse = errs.Class("equipment in use")
)

// Status is the lifecycle state of an equipment unit.
type Status string

// Equipment statuses.
const (
	StatusAvailable   Status = "AVAILABLE"
	StatusRented      Status = "RENTED"
	StatusMaintenance Status = "MAINTENANCE"
	StatusBroken      Status = "BROKEN"
	StatusRetired     Status = "RETIRED"
)

// maxReplacementCost is the exclusive upper bound for replacement costs.
var maxReplacementCost = decimal.New(1, 8)

// statusTransitions is the full transition table. RENTED is entered and left
// only through the booking engine.
var statusTransitions = map[Status][]Status{
	StatusAvailable:   {StatusRented, StatusMaintenance, StatusBroken, StatusRetired},
	StatusRented:      {StatusAvailable, StatusBroken},
	StatusMaintenance: {StatusAvailable, StatusBroken, StatusRetired},
	StatusBroken:      {StatusMaintenance, StatusRetired},
	StatusRetired:     {},
}

// Valid reports whether the status is a known equipment status.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition s -> next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s.
func (s Status) AllowedTransitions() []Status {
	return append([]Status(nil), statusTransitions[s]...)
}

// Equipment is one physical rentable item tracked by a unique barcode.
type Equipment struct {
	ID              int64
	Name            string
	Description     *string
	SerialNumber    *string
	Barcode         string
	CategoryID      int64
	Status          Status
	ReplacementCost decimal.Decimal
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time

	// Category is eagerly resolved for detail responses.
	Category *category.Category
}

// CreateRequest holds the fields for registering equipment.
type CreateRequest struct {
	Name            string
	Description     *string
	CategoryID      int64
	CustomBarcode   *string
	ValidateBarcode bool
	SerialNumber    *string
	ReplacementCost decimal.Decimal
	Notes           *string
}

// UpdateRequest holds updatable equipment fields. Nil fields are unchanged.
// Barcode is immutable here; it changes only through RegenerateBarcode.
type UpdateRequest struct {
	Name            *string
	Description     *string
	CategoryID      *int64
	SerialNumber    *string
	ReplacementCost *decimal.Decimal
	Notes           *string
}

// ListFilter selects equipment for listing.
type ListFilter struct {
	Status         *Status
	CategoryIDs    []int64
	Query          string
	AvailableFrom  *time.Time
	AvailableTo    *time.Time
	IncludeDeleted bool
	Offset         int64
	Limit          int64
}

// Page is one page of equipment with the window total.
type Page struct {
	Items  []Equipment
	Total  int64
	Offset int64
	Limit  int64
}

// DB exposes methods to manage the equipment table.
//
// architecture: Database
type DB interface {
	// Get returns equipment by id with its category resolved.
	Get(ctx context.Context, id int64) (*Equipment, error)
	// GetByBarcode returns non-deleted equipment by barcode.
	GetByBarcode(ctx context.Context, code string) (*Equipment, error)
	// List returns a filtered page of equipment.
	List(ctx context.Context, filter ListFilter) (*Page, error)
	// Create inserts new equipment.
	Create(ctx context.Context, req CreateRequest, code string) (*Equipment, error)
	// Update applies a patch to equipment.
	Update(ctx context.Context, id int64, req UpdateRequest) (*Equipment, error)
	// UpdateStatus sets the equipment status.
	UpdateStatus(ctx context.Context, id int64, status Status) (*Equipment, error)
	// UpdateBarcode replaces the barcode of equipment.
	UpdateBarcode(ctx context.Context, id int64, code string) (*Equipment, error)
	// SoftDelete stamps deleted_at on equipment.
	SoftDelete(ctx context.Context, id int64) error
}

// BookingGuard answers whether bookings block an equipment operation. It is
// implemented by the booking repository; declared here to keep the package
// dependency one-directional.
type BookingGuard interface {
	HasBlockingForEquipment(ctx context.Context, equipmentID int64) (bool, error)
}

// Store is the transactional scope the equipment service operates in.
type Store interface {
	Equipment() DB
	Sequences() barcode.Sequences
	BookingGuard() BookingGuard
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
}
