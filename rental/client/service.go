// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package client

import (
	"context"
	"strings"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"
)

var mon = monkit.Package()

const maxQueryLength = 255

// Service implements client management.
//
// architecture: Service
type Service struct {
	log   *zap.Logger
	store Store
}

// NewService creates a new client service.
func NewService(log *zap.Logger, store Store) *Service {
	return &Service{log: log, store: store}
}

// Get returns a client by id.
func (s *Service) Get(ctx context.Context, id int64) (_ *Client, err error) {
	defer mon.Task()(&ctx)(&err)
	return s.store.Clients().Get(ctx, id)
}

// List returns a filtered page of clients.
func (s *Service) List(ctx context.Context, filter ListFilter) (_ *Page, err error) {
	defer mon.Task()(&ctx)(&err)

	if len(filter.Query) > maxQueryLength {
		return nil, ErrValidation.New("search query longer than %d characters", maxQueryLength)
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrValidation.New("unknown status %q", *filter.Status)
	}
	return s.store.Clients().List(ctx, filter)
}

// Create registers a new client with status ACTIVE.
func (s *Service) Create(ctx context.Context, req CreateRequest) (_ *Client, err error) {
	defer mon.Task()(&ctx)(&err)

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrValidation.New("name is required")
	}
	return s.store.Clients().Create(ctx, req)
}

// Update applies a patch to a client.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (_ *Client, err error) {
	defer mon.Task()(&ctx)(&err)

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, ErrValidation.New("name is required")
		}
		req.Name = &trimmed
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, ErrValidation.New("unknown status %q", *req.Status)
	}
	return s.store.Clients().Update(ctx, id, req)
}

// Delete soft-deletes a client. It refuses while the client has bookings in a
// blocking state.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Clients().Get(ctx, id); err != nil {
			return err
		}
		active, err := tx.BookingGuard().HasActiveForClient(ctx, id)
		if err != nil {
			return err
		}
		if active {
			return ErrInUse.New("client has active bookings")
		}
		return tx.Clients().SoftDelete(ctx, id)
	})
}
