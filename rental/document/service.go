// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package document

import (
	"context"
	"strings"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"
)

var mon = monkit.Package()

// Service implements document management.
//
// architecture: Service
type Service struct {
	log   *zap.Logger
	store Store
}

// NewService creates a new document service.
func NewService(log *zap.Logger, store Store) *Service {
	return &Service{log: log, store: store}
}

// Get returns a document by id.
func (s *Service) Get(ctx context.Context, id int64) (_ *Document, err error) {
	defer mon.Task()(&ctx)(&err)
	return s.store.Documents().Get(ctx, id)
}

// List returns a filtered page of documents.
func (s *Service) List(ctx context.Context, filter ListFilter) (_ *Page, err error) {
	defer mon.Task()(&ctx)(&err)

	if filter.Type != nil && !filter.Type.Valid() {
		return nil, ErrValidation.New("unknown type %q", *filter.Type)
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrValidation.New("unknown status %q", *filter.Status)
	}
	return s.store.Documents().List(ctx, filter)
}

// Create registers document metadata with status DRAFT.
func (s *Service) Create(ctx context.Context, req CreateRequest) (_ *Document, err error) {
	defer mon.Task()(&ctx)(&err)

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, ErrValidation.New("title is required")
	}
	if !req.Type.Valid() {
		return nil, ErrValidation.New("unknown type %q", req.Type)
	}
	if req.FileSize < 0 {
		return nil, ErrValidation.New("file size must not be negative")
	}
	return s.store.Documents().Create(ctx, req)
}

// SetStatus transitions a document through its review workflow.
func (s *Service) SetStatus(ctx context.Context, id int64, next Status) (updated *Document, err error) {
	defer mon.Task()(&ctx)(&err)

	if !next.Valid() {
		return nil, ErrValidation.New("unknown status %q", next)
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		current, err := tx.Documents().Get(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == next {
			updated = current
			return nil
		}
		if !current.Status.CanTransitionTo(next) {
			return ErrStatusTransition.New("cannot transition from %s to %s (allowed: %v)",
				current.Status, next, current.Status.AllowedTransitions())
		}
		updated, err = tx.Documents().UpdateStatus(ctx, id, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a document.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	if _, err := s.store.Documents().Get(ctx, id); err != nil {
		return err
	}
	return s.store.Documents().SoftDelete(ctx, id)
}
