// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package booking

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"

	"cinerent.io/cinerent/rental/equipment"
)

var mon = monkit.Package()

// maxBatchSize caps batch creates.
const maxBatchSize = 100

// depositRate is the default deposit share of the total amount.
var depositRate = decimal.New(2, -1)

// Service implements the booking lifecycle engine.
//
// architecture: Service
type Service struct {
	log   *zap.Logger
	store Store
}

// NewService creates a new booking service.
func NewService(log *zap.Logger, store Store) *Service {
	return &Service{log: log, store: store}
}

// Get returns a booking by id with client, equipment and project resolved.
func (s *Service) Get(ctx context.Context, id int64) (_ *Booking, err error) {
	defer mon.Task()(&ctx)(&err)
	return s.store.Bookings().Get(ctx, id)
}

// List returns a filtered page of bookings.
func (s *Service) List(ctx context.Context, filter ListFilter) (_ *Page, err error) {
	defer mon.Task()(&ctx)(&err)

	if filter.Status != nil && !filter.Status.Valid() {
		return nil, ErrValidation.New("unknown booking status %q", *filter.Status)
	}
	if filter.PaymentStatus != nil && !filter.PaymentStatus.Valid() {
		return nil, ErrValidation.New("unknown payment status %q", *filter.PaymentStatus)
	}
	return s.store.Bookings().List(ctx, filter)
}

// ListForEquipment returns all bookings of one equipment unit.
func (s *Service) ListForEquipment(ctx context.Context, equipmentID int64) (_ []Booking, err error) {
	defer mon.Task()(&ctx)(&err)
	return s.store.Bookings().ListForEquipment(ctx, equipmentID)
}

// Create validates and creates a single booking atomically.
func (s *Service) Create(ctx context.Context, req CreateRequest) (created *Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		created, err = s.createInTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// createInTx runs the full per-item validation and insert inside tx. Earlier
// inserts in the same transaction are visible to the availability check.
func (s *Service) createInTx(ctx context.Context, tx Store, req CreateRequest) (*Booking, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}
	if _, err := tx.Clients().Get(ctx, req.ClientID); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, tx, req.EquipmentID, req.StartDate, req.EndDate, nil); err != nil {
		return nil, err
	}

	deposit := req.TotalAmount.Mul(depositRate)
	if req.DepositAmount != nil {
		deposit = *req.DepositAmount
	}

	created, err := tx.Bookings().Create(ctx, req, deposit)
	if err != nil {
		return nil, err
	}
	if req.ProjectID != nil {
		if err := tx.ProjectRollup().RecomputePayment(ctx, *req.ProjectID); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (s *Service) validateCreate(req CreateRequest) error {
	if !req.StartDate.Before(req.EndDate) {
		return ErrValidation.New("start date must be before end date")
	}
	if req.TotalAmount.IsNegative() {
		return ErrValidation.New("total amount must not be negative")
	}
	if req.Quantity < 1 {
		return ErrValidation.New("quantity must be at least 1")
	}
	if req.DepositAmount != nil && req.DepositAmount.IsNegative() {
		return ErrValidation.New("deposit must not be negative")
	}
	return nil
}

// CreateBatch creates up to 100 bookings in a single transactional scope.
// Successes commit even when some items fail; when every item fails the
// transaction rolls back and the batch is rejected as a whole.
func (s *Service) CreateBatch(ctx context.Context, items []CreateRequest, projectID *int64) (result *BatchResult, err error) {
	defer mon.Task()(&ctx)(&err)

	if len(items) == 0 {
		return nil, ErrValidation.New("empty batch")
	}
	if len(items) > maxBatchSize {
		return nil, ErrValidation.New("batch larger than %d items", maxBatchSize)
	}

	result = &BatchResult{Created: []Booking{}, Failed: []BatchItemError{}}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		result.Created = result.Created[:0]
		result.Failed = result.Failed[:0]

		for _, item := range items {
			if projectID != nil {
				item.ProjectID = projectID
			}
			created, err := s.createInTx(ctx, tx, item)
			if err != nil {
				result.Failed = append(result.Failed, BatchItemError{
					EquipmentID: item.EquipmentID,
					Error:       err.Error(),
				})
				continue
			}
			result.Created = append(result.Created, *created)
		}

		if len(result.Created) == 0 {
			return ErrValidation.New("no bookings could be created")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("batch create finished",
		zap.Int("created", len(result.Created)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// Update patches a booking's window, quantity or amounts. Window changes
// re-run the availability check excluding the booking itself.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (updated *Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	if req.Quantity != nil && *req.Quantity < 1 {
		return nil, ErrValidation.New("quantity must be at least 1")
	}
	if req.TotalAmount != nil && req.TotalAmount.IsNegative() {
		return nil, ErrValidation.New("total amount must not be negative")
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		current, err := tx.Bookings().Get(ctx, id)
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
			return ErrValidation.New("start date must be before end date")
		}
		if req.StartDate != nil || req.EndDate != nil {
			if err := s.checkAvailable(ctx, tx, current.EquipmentID, from, to, &id); err != nil {
				return err
			}
		}

		updated, err = tx.Bookings().Update(ctx, id, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetStatus transitions a booking and cascades into the equipment lifecycle:
// activation pushes the equipment into RENTED, completion and cancellation
// return it to AVAILABLE once no other blocking booking remains.
func (s *Service) SetStatus(ctx context.Context, id int64, next Status) (updated *Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	if !next.Valid() {
		return nil, ErrValidation.New("unknown booking status %q", next)
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		current, err := tx.Bookings().Get(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == next {
			updated = current
			return nil
		}
		if !current.Status.CanTransitionTo(next) {
			return ErrStatusTransition.Wrap(&TransitionError{
				Current: string(current.Status),
				Next:    string(next),
				Allowed: statusStrings(current.Status.AllowedTransitions()),
			})
		}

		updated, err = tx.Bookings().UpdateStatus(ctx, id, next)
		if err != nil {
			return err
		}

		switch next {
		case StatusActive:
			return s.setEquipmentStatus(ctx, tx, current.EquipmentID, equipment.StatusRented)
		case StatusCompleted, StatusCancelled:
			blocked, err := tx.Bookings().HasBlockingForEquipment(ctx, current.EquipmentID)
			if err != nil {
				return err
			}
			if !blocked {
				return s.setEquipmentStatus(ctx, tx, current.EquipmentID, equipment.StatusAvailable)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetPaymentStatus transitions a booking's payment state and recomputes the
// aggregate payment status of its project, if any.
func (s *Service) SetPaymentStatus(ctx context.Context, id int64, next PaymentStatus) (updated *Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	if !next.Valid() {
		return nil, ErrValidation.New("unknown payment status %q", next)
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		current, err := tx.Bookings().Get(ctx, id)
		if err != nil {
			return err
		}
		if current.PaymentStatus == next {
			updated = current
			return nil
		}
		if !current.PaymentStatus.CanTransitionTo(next) {
			return ErrStatusTransition.Wrap(&TransitionError{
				Current: string(current.PaymentStatus),
				Next:    string(next),
				Allowed: paymentStrings(current.PaymentStatus.AllowedTransitions()),
			})
		}

		updated, err = tx.Bookings().UpdatePayment(ctx, id, next)
		if err != nil {
			return err
		}
		if current.ProjectID != nil {
			return tx.ProjectRollup().RecomputePayment(ctx, *current.ProjectID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a booking and detaches its documents. Equipment status
// is released the same way as a cancellation.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		current, err := tx.Bookings().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Bookings().SoftDelete(ctx, id); err != nil {
			return err
		}
		if current.ProjectID != nil {
			if err := tx.ProjectRollup().RecomputePayment(ctx, *current.ProjectID); err != nil {
				return err
			}
		}
		blocked, err := tx.Bookings().HasBlockingForEquipment(ctx, current.EquipmentID)
		if err != nil {
			return err
		}
		if !blocked {
			return s.setEquipmentStatus(ctx, tx, current.EquipmentID, equipment.StatusAvailable)
		}
		return nil
	})
}

// setEquipmentStatus flips the equipment status inside the booking's
// transaction. The booking engine is the only caller allowed to move
// equipment in and out of RENTED.
func (s *Service) setEquipmentStatus(ctx context.Context, tx Store, equipmentID int64, next equipment.Status) error {
	eq, err := tx.Equipment().Get(ctx, equipmentID)
	if err != nil {
		return err
	}
	if eq.Status == next {
		return nil
	}
	if !eq.Status.CanTransitionTo(next) {
		// Equipment moved out from under the booking (broken, retired).
		// The booking transition stands; leave equipment alone.
		s.log.Warn("skipping equipment cascade",
			zap.Int64("equipment_id", equipmentID),
			zap.String("from", string(eq.Status)),
			zap.String("to", string(next)))
		return nil
	}
	_, err = tx.Equipment().UpdateStatus(ctx, equipmentID, next)
	return err
}
