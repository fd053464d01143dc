// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package project

import (
	"context"
	"strings"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"

	"cinerent.io/cinerent/rental/booking"
	"cinerent.io/cinerent/rental/category"
	"cinerent.io/cinerent/rental/client"
)

var mon = monkit.Package()

// Service implements the project aggregator.
//
// architecture: Service
type Service struct {
	log        *zap.Logger
	store      Store
	clients    *client.Service
	categories *category.Service
}

// NewService creates a new project service.
func NewService(log *zap.Logger, store Store, clients *client.Service, categories *category.Service) *Service {
	return &Service{log: log, store: store, clients: clients, categories: categories}
}

// AnnotatedBooking is a member booking with equipment name and printable
// category breadcrumbs for aggregate views.
type AnnotatedBooking struct {
	booking.Booking
	EquipmentName string              `json:"equipment_name"`
	Breadcrumbs   []category.PathNode `json:"breadcrumbs"`
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id int64) (_ *Project, err error) {
	defer mon.Task()(&ctx)(&err)
	return s.store.Projects().Get(ctx, id)
}

// List returns a filtered page of projects.
func (s *Service) List(ctx context.Context, filter ListFilter) (_ *Page, err error) {
	defer mon.Task()(&ctx)(&err)

	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrValidation.New("unknown status %q", *filter.Status)
	}
	return s.store.Projects().List(ctx, filter)
}

// Create creates a project with status DRAFT and payment status UNPAID.
func (s *Service) Create(ctx context.Context, req CreateRequest) (_ *Project, err error) {
	defer mon.Task()(&ctx)(&err)

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrValidation.New("name is required")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, ErrValidation.New("end date must be after start date")
	}
	if _, err := s.clients.Get(ctx, req.ClientID); err != nil {
		return nil, err
	}
	return s.store.Projects().Create(ctx, req)
}

// Update applies a patch to a project.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (updated *Project, err error) {
	defer mon.Task()(&ctx)(&err)

	if req.Status != nil && !req.Status.Valid() {
		return nil, ErrValidation.New("unknown status %q", *req.Status)
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		current, err := tx.Projects().Get(ctx, id)
		if err != nil {
			return err
		}
		from, to := current.StartDate, current.EndDate
		if req.StartDate != nil {
			from = *req.StartDate
		}
		if req.EndDate != nil {
			to = *req.EndDate
		}
		if !from.Before(to) {
			return ErrValidation.New("end date must be after start date")
		}
		updated, err = tx.Projects().Update(ctx, id, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a project. Member bookings survive; the association is
// cleared.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Projects().Get(ctx, id); err != nil {
			return err
		}
		if err := tx.Projects().ClearBookings(ctx, id); err != nil {
			return err
		}
		return tx.Projects().SoftDelete(ctx, id)
	})
}

// AddBooking groups a booking into a project and recomputes the aggregate
// payment status.
func (s *Service) AddBooking(ctx context.Context, projectID, bookingID int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Projects().Get(ctx, projectID); err != nil {
			return err
		}
		if _, err := tx.Bookings().Get(ctx, bookingID); err != nil {
			return err
		}
		if err := tx.Bookings().SetProject(ctx, bookingID, &projectID); err != nil {
			return err
		}
		return tx.ProjectRollup().RecomputePayment(ctx, projectID)
	})
}

// RemoveBooking detaches a booking from a project and recomputes the
// aggregate payment status.
func (s *Service) RemoveBooking(ctx context.Context, projectID, bookingID int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		member, err := tx.Bookings().Get(ctx, bookingID)
		if err != nil {
			return err
		}
		if member.ProjectID == nil || *member.ProjectID != projectID {
			return ErrValidation.New("booking %d is not part of project %d", bookingID, projectID)
		}
		if err := tx.Bookings().SetProject(ctx, bookingID, nil); err != nil {
			return err
		}
		return tx.ProjectRollup().RecomputePayment(ctx, projectID)
	})
}

// GetBookings returns the member bookings annotated with equipment name and
// printable category breadcrumbs.
func (s *Service) GetBookings(ctx context.Context, projectID int64) (_ []AnnotatedBooking, err error) {
	defer mon.Task()(&ctx)(&err)

	if _, err := s.store.Projects().Get(ctx, projectID); err != nil {
		return nil, err
	}
	members, err := s.store.Bookings().ListForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	annotated := make([]AnnotatedBooking, 0, len(members))
	for _, member := range members {
		entry := AnnotatedBooking{Booking: member, Breadcrumbs: []category.PathNode{}}
		if member.Equipment != nil {
			entry.EquipmentName = member.Equipment.Name
			_, printable, err := s.categories.GetPrintHierarchyAndSortPath(ctx, &member.Equipment.CategoryID)
			if err != nil && !category.ErrNotFound.Has(err) {
				return nil, err
			}
			if err == nil {
				entry.Breadcrumbs = printable
			}
		}
		annotated = append(annotated, entry)
	}
	return annotated, nil
}
