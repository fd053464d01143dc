// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package document implements file metadata attached to clients and bookings.
package document

import (
	"context"
	"time"

	"github.com/zeebo/errs"
)

var (
	// Error is the default document errs class.
	Error = errs.Class("document service")
	// ErrNotFound is returned when a document does not exist or is soft-deleted.
	ErrNotFound = errs.Class("document not found")
	// ErrValidation is returned for malformed document input.
	ErrValidation = errs.Class("document validation")
	// ErrStatusTransition is returned for illegal document status transitions.
	ErrStatusTransition = errs.Class("document status transition")
)

// Type classifies a document.
type Type string

// Document types.
const (
	TypeContract     Type = "CONTRACT"
	TypeInvoice      Type = "INVOICE"
	TypeReceipt      Type = "RECEIPT"
	TypePassport     Type = "PASSPORT"
	TypeDamageReport Type = "DAMAGE_REPORT"
	TypeInsurance    Type = "INSURANCE"
	TypeOther        Type = "OTHER"
)

// Valid reports whether the type is known.
func (t Type) Valid() bool {
	switch t {
	case TypeContract, TypeInvoice, TypeReceipt, TypePassport, TypeDamageReport, TypeInsurance, TypeOther:
		return true
	}
	return false
}

// Status is the review state of a document.
type Status string

// Document statuses.
const (
	StatusDraft       Status = "DRAFT"
	StatusPending     Status = "PENDING"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusExpired     Status = "EXPIRED"
	StatusCancelled   Status = "CANCELLED"
)

var statusTransitions = map[Status][]Status{
	StatusDraft:       {StatusPending, StatusCancelled},
	StatusPending:     {StatusUnderReview, StatusCancelled},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusExpired, StatusCancelled},
	StatusRejected:    {StatusPending},
	StatusExpired:     {},
	StatusCancelled:   {},
}

// Valid reports whether the status is known.
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

// Document is stored file metadata. The file itself lives on the filesystem
// under the configured upload directory.
type Document struct {
	ID        int64
	ClientID  int64
	BookingID *int64
	Type      Type
	Title     string
	FilePath  string
	FileName  string
	FileSize  int64
	MimeType  string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// CreateRequest holds the fields for registering a document.
type CreateRequest struct {
	ClientID  int64
	BookingID *int64
	Type      Type
	Title     string
	FilePath  string
	FileName  string
	FileSize  int64
	MimeType  string
}

// ListFilter selects documents for listing.
type ListFilter struct {
	ClientID       *int64
	BookingID      *int64
	Type           *Type
	Status         *Status
	IncludeDeleted bool
	Offset         int64
	Limit          int64
}

// Page is one page of documents with the window total.
type Page struct {
	Items  []Document
	Total  int64
	Offset int64
	Limit  int64
}

// DB exposes methods to manage the documents table.
//
// architecture: Database
type DB interface {
	Get(ctx context.Context, id int64) (*Document, error)
	List(ctx context.Context, filter ListFilter) (*Page, error)
	Create(ctx context.Context, req CreateRequest) (*Document, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Document, error)
	SoftDelete(ctx context.Context, id int64) error
}

// Store is the transactional scope the document service operates in.
type Store interface {
	Documents() DB
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
}
