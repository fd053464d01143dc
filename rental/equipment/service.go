// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package equipment

import (
	"context"
	"strings"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"

	"cinerent.io/cinerent/rental/barcode"
	"cinerent.io/cinerent/rental/category"
)

var mon = monkit.Package()

// maxQueryLength caps substring search input.
const maxQueryLength = 255

// Service implements the equipment lifecycle engine.
//
// architecture: Service
type Service struct {
	log        *zap.Logger
	store      Store
	categories *category.Service
}

// NewService creates a new equipment service.
func NewService(log *zap.Logger, store Store, categories *category.Service) *Service {
	return &Service{log: log, store: store, categories: categories}
}

// Get returns equipment by id.
func (s *Service) Get(ctx context.Context, id int64) (_ *Equipment, err error) {
	defer mon.Task()(&ctx)(&err)
	return s.store.Equipment().Get(ctx, id)
}

// GetByBarcode returns equipment by barcode.
func (s *Service) GetByBarcode(ctx context.Context, code string) (_ *Equipment, err error) {
	defer mon.Task()(&ctx)(&err)
	return s.store.Equipment().GetByBarcode(ctx, code)
}

// List returns a filtered page of equipment. When a category filter is set it
// expands to the category's whole subtree.
func (s *Service) List(ctx context.Context, filter ListFilter, categoryID *int64) (_ *Page, err error) {
	defer mon.Task()(&ctx)(&err)

	if len(filter.Query) > maxQueryLength {
		return nil, ErrValidation.New("search query longer than %d characters", maxQueryLength)
	}
	if categoryID != nil {
		ids, err := s.categories.GetAllSubcategoryIDs(ctx, *categoryID)
		if err != nil {
			return nil, err
		}
		filter.CategoryIDs = ids
	}
	return s.store.Equipment().List(ctx, filter)
}

// Create registers new equipment. Unless a custom barcode is supplied, a new
// one is minted from the global sequence inside the same transaction.
func (s *Service) Create(ctx context.Context, req CreateRequest) (created *Equipment, err error) {
	defer mon.Task()(&ctx)(&err)

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrValidation.New("name is required")
	}
	if req.ReplacementCost.IsNegative() {
		return nil, ErrValidation.New("replacement cost must not be negative")
	}
	if req.ReplacementCost.GreaterThanOrEqual(maxReplacementCost) {
		return nil, ErrValidation.New("replacement cost out of range")
	}
	if req.CustomBarcode != nil && req.ValidateBarcode {
		if _, err := barcode.Parse(*req.CustomBarcode); err != nil {
			return nil, ErrValidation.Wrap(err)
		}
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := s.categories.Get(ctx, req.CategoryID); err != nil {
			return err
		}

		code := ""
		if req.CustomBarcode != nil {
			code = *req.CustomBarcode
			existing, err := tx.Equipment().GetByBarcode(ctx, code)
			if err != nil && !ErrNotFound.Has(err) {
				return err
			}
			if existing != nil {
				return ErrBarcodeTaken.New("%q", code)
			}
		} else {
			sequence, err := tx.Sequences().Next(ctx)
			if err != nil {
				return err
			}
			code, err = barcode.Compose(sequence)
			if err != nil {
				return err
			}
		}

		created, err = tx.Equipment().Create(ctx, req, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies a patch to equipment. The barcode is immutable through this
// path.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (updated *Equipment, err error) {
	defer mon.Task()(&ctx)(&err)

	if req.ReplacementCost != nil {
		if req.ReplacementCost.IsNegative() || req.ReplacementCost.GreaterThanOrEqual(maxReplacementCost) {
			return nil, ErrValidation.New("replacement cost out of range")
		}
	}
	if req.CategoryID != nil {
		if _, err := s.categories.Get(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}
	return s.store.Equipment().Update(ctx, id, req)
}

// SetStatus transitions equipment to a new status on behalf of an external
// caller. RENTED cannot be requested directly; only the booking engine moves
// equipment in and out of RENTED.
func (s *Service) SetStatus(ctx context.Context, id int64, next Status) (updated *Equipment, err error) {
	defer mon.Task()(&ctx)(&err)

	if !next.Valid() {
		return nil, ErrValidation.New("unknown status %q", next)
	}
	if next == StatusRented {
		return nil, ErrValidation.New("status RENTED is set only through bookings")
	}
	return s.transition(ctx, s.store, id, next)
}

func (s *Service) transition(ctx context.Context, tx Store, id int64, next Status) (*Equipment, error) {
	current, err := tx.Equipment().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == next {
		return current, nil
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, ErrStatusTransition.New("cannot transition from %s to %s (allowed: %v)",
			current.Status, next, current.Status.AllowedTransitions())
	}
	return tx.Equipment().UpdateStatus(ctx, id, next)
}

// Delete soft-deletes equipment. It refuses while any blocking booking
// (PENDING, CONFIRMED, ACTIVE) exists.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Equipment().Get(ctx, id); err != nil {
			return err
		}
		blocked, err := tx.BookingGuard().HasBlockingForEquipment(ctx, id)
		if err != nil {
			return err
		}
		if blocked {
			return ErrInUse.New("equipment has active bookings")
		}
		return tx.Equipment().SoftDelete(ctx, id)
	})
}

// RegenerateBarcode mints a fresh barcode for the equipment and replaces the
// old one. The old barcode stops resolving.
func (s *Service) RegenerateBarcode(ctx context.Context, id int64) (updated *Equipment, err error) {
	defer mon.Task()(&ctx)(&err)

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Equipment().Get(ctx, id); err != nil {
			return err
		}
		sequence, err := tx.Sequences().Next(ctx)
		if err != nil {
			return err
		}
		code, err := barcode.Compose(sequence)
		if err != nil {
			return err
		}
		updated, err = tx.Equipment().UpdateBarcode(ctx, id, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("barcode regenerated", zap.Int64("equipment_id", id), zap.String("barcode", updated.Barcode))
	return updated, nil
}
