// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package booking

import (
	"context"
	"time"

	"cinerent.io/cinerent/rental/equipment"
)

// Overlap reports whether two closed-closed intervals intersect. Sharing a
// single instant counts as an overlap.
func Overlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// Conflict is a reference to a booking blocking a window.
type Conflict struct {
	BookingID   int64     `json:"booking_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Status      Status    `json:"booking_status"`
	ProjectID   *int64    `json:"project_id,omitempty"`
	ProjectName *string   `json:"project_name,omitempty"`
}

// AvailabilityInfo is the result of an availability query.
type AvailabilityInfo struct {
	Available       bool             `json:"is_available"`
	EquipmentStatus equipment.Status `json:"equipment_status"`
	Conflicts       []Conflict       `json:"conflicts"`
}

// Availability checks one equipment unit for a window and lists every
// conflicting blocking booking. The unit is available iff no blocking booking
// overlaps the window and the equipment status is AVAILABLE.
func (s *Service) Availability(ctx context.Context, equipmentID int64, from, to time.Time) (_ *AvailabilityInfo, err error) {
	defer mon.Task()(&ctx)(&err)

	if !from.Before(to) {
		return nil, ErrValidation.New("start date must be before end date")
	}

	return s.availability(ctx, s.store, equipmentID, from, to, nil)
}

func (s *Service) availability(ctx context.Context, tx Store, equipmentID int64, from, to time.Time, excludeID *int64) (*AvailabilityInfo, error) {
	eq, err := tx.Equipment().Get(ctx, equipmentID)
	if err != nil {
		return nil, err
	}

	overlapping, err := tx.Bookings().ListBlockingOverlaps(ctx, equipmentID, from, to, excludeID)
	if err != nil {
		return nil, err
	}

	info := &AvailabilityInfo{
		EquipmentStatus: eq.Status,
		Available:       len(overlapping) == 0 && eq.Status == equipment.StatusAvailable,
		Conflicts:       make([]Conflict, 0, len(overlapping)),
	}
	for _, b := range overlapping {
		conflict := Conflict{
			BookingID: b.ID,
			StartDate: b.StartDate,
			EndDate:   b.EndDate,
			Status:    b.Status,
			ProjectID: b.ProjectID,
		}
		if b.Project != nil {
			conflict.ProjectName = &b.Project.Name
		}
		info.Conflicts = append(info.Conflicts, conflict)
	}
	return info, nil
}

// checkAvailable runs the availability predicate inside tx and converts a
// negative result into ErrAvailability carrying the first conflict.
func (s *Service) checkAvailable(ctx context.Context, tx Store, equipmentID int64, from, to time.Time, excludeID *int64) error {
	info, err := s.availability(ctx, tx, equipmentID, from, to, excludeID)
	if err != nil {
		return err
	}
	if info.Available {
		return nil
	}
	unavailable := &Unavailable{EquipmentID: equipmentID, EquipmentStatus: info.EquipmentStatus}
	if len(info.Conflicts) > 0 {
		unavailable.ConflictID = info.Conflicts[0].BookingID
	}
	return ErrAvailability.Wrap(unavailable)
}
