// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package category implements the equipment classification tree.
package category

import (
	"context"
	"time"

	"github.com/zeebo/errs"
)

var (
	// Error is the default category errs class.
	Error = errs.Class("category service")
	// ErrNotFound is returned when a category does not exist or is soft-deleted.
	ErrNotFound = errs.Class("category not found")
	// ErrValidation is returned for malformed category input.
	ErrValidation = errs.Class("category validation")
	// ErrNameTaken is returned when a non-deleted category already uses the name.
	ErrNameTaken = errs.Class("category name taken")
	// ErrInUse is returned when deleting a category that still owns equipment
	// or subcategories.
	ErrInUse = errs.Class("category in use")
)

// Category is a node in the classification tree. The tree has unbounded depth.
type Category struct {
	ID                  int64
	Name                string
	Description         *string
	ParentID            *int64
	ShowInPrintOverview bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

// CreateRequest holds the fields for creating a category.
type CreateRequest struct {
	Name                string
	Description         *string
	ParentID            *int64
	ShowInPrintOverview bool
}

// UpdateRequest holds the updatable category fields. Nil fields are unchanged.
type UpdateRequest struct {
	Name                *string
	Description         *string
	ParentID            *int64
	ClearParent         bool
	ShowInPrintOverview *bool
}

// WithEquipmentCount annotates a category with the count of its direct
// non-deleted equipment.
type WithEquipmentCount struct {
	Category
	EquipmentCount int64
}

// PathNode is one step of a category path used for sorting and print layouts.
type PathNode struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// DB exposes methods to manage the categories table.
//
// All reads exclude soft-deleted rows.
//
// architecture: Database
type DB interface {
	// Get returns a category by id.
	Get(ctx context.Context, id int64) (*Category, error)
	// All returns every non-deleted category.
	All(ctx context.Context) ([]Category, error)
	// GetByName returns a non-deleted category by exact name.
	GetByName(ctx context.Context, name string) (*Category, error)
	// Create inserts a new category.
	Create(ctx context.Context, req CreateRequest) (*Category, error)
	// Update applies a patch to a category.
	Update(ctx context.Context, id int64, req UpdateRequest) (*Category, error)
	// SoftDelete stamps deleted_at on a category.
	SoftDelete(ctx context.Context, id int64) error
	// CountEquipment returns the number of direct non-deleted equipment per category.
	CountEquipment(ctx context.Context) (map[int64]int64, error)
	// HasEquipment reports whether the category directly owns non-deleted equipment.
	HasEquipment(ctx context.Context, id int64) (bool, error)
	// HasSubcategories reports whether any non-deleted category has this parent.
	HasSubcategories(ctx context.Context, id int64) (bool, error)
}

// Store is the transactional scope the category service operates in.
type Store interface {
	Categories() DB
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
}
