// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentaldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/errs"

	"cinerent.io/cinerent/rental/booking"
	"cinerent.io/cinerent/rental/client"
	"cinerent.io/cinerent/rental/equipment"
)

type bookings struct {
	db *DB
}

const bookingColumns = `b.id, b.client_id, b.equipment_id, b.project_id,
	b.start_date, b.end_date, b.quantity, b.total_amount, b.deposit_amount,
	b.booking_status, b.payment_status, b.notes,
	b.created_at, b.updated_at, b.deleted_at,
	c.name, c.email, c.phone, c.company, c.status, c.notes,
	c.created_at, c.updated_at, c.deleted_at,
	e.name, e.description, e.serial_number, e.barcode, e.category_id,
	e.status, e.replacement_cost, e.notes, e.created_at, e.updated_at, e.deleted_at,
	p.id, p.name`

const bookingFrom = ` FROM bookings b
	JOIN clients c ON c.id = b.client_id
	JOIN equipment e ON e.id = b.equipment_id
	LEFT JOIN projects p ON p.id = b.project_id `

const blockingStatuses = `('PENDING', 'CONFIRMED', 'ACTIVE')`

func (repo *bookings) Get(ctx context.Context, id int64) (_ *booking.Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		SELECT `+bookingColumns+bookingFrom+`
		WHERE b.id = $1 AND b.deleted_at IS NULL`, id)

	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return b, nil
}

func (repo *bookings) List(ctx context.Context, filter booking.ListFilter) (_ *booking.Page, err error) {
	defer mon.Task()(&ctx)(&err)

	var qa args
	conditions := []string{"b.deleted_at IS NULL"}

	if filter.EquipmentID != nil {
		conditions = append(conditions, "b.equipment_id = "+qa.add(*filter.EquipmentID))
	}
	if filter.ClientID != nil {
		conditions = append(conditions, "b.client_id = "+qa.add(*filter.ClientID))
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, "b.project_id = "+qa.add(*filter.ProjectID))
	}
	if filter.Status != nil {
		conditions = append(conditions, "b.booking_status = "+qa.add(string(*filter.Status))+"::booking_status")
	}
	if filter.PaymentStatus != nil {
		conditions = append(conditions, "b.payment_status = "+qa.add(string(*filter.PaymentStatus))+"::booking_payment_status")
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "b.booking_status IN "+blockingStatuses)
	}
	if filter.StartDate != nil && filter.EndDate != nil {
		from := qa.add(*filter.StartDate)
		to := qa.add(*filter.EndDate)
		conditions = append(conditions, "b.start_date <= "+to+" AND "+from+" <= b.end_date")
	} else if filter.StartDate != nil {
		conditions = append(conditions, "b.end_date >= "+qa.add(*filter.StartDate))
	} else if filter.EndDate != nil {
		conditions = append(conditions, "b.start_date <= "+qa.add(*filter.EndDate))
	}
	if filter.Query != "" {
		pattern := qa.add(likePattern(filter.Query))
		conditions = append(conditions, `(c.name ILIKE `+pattern+` OR b.notes ILIKE `+pattern+`)`)
	}
	if filter.EquipmentQuery != "" {
		pattern := qa.add(likePattern(filter.EquipmentQuery))
		conditions = append(conditions, `(e.name ILIKE `+pattern+` OR e.barcode ILIKE `+pattern+`)`)
	}

	offset, limit := limitClause(filter.Offset, filter.Limit)
	query := `
		SELECT ` + bookingColumns + `, count(*) OVER()` + bookingFrom + `
		WHERE ` + whereClause(conditions) + `
		ORDER BY b.start_date DESC, b.id DESC
		LIMIT ` + qa.add(limit) + ` OFFSET ` + qa.add(offset)

	rows, err := repo.db.q.QueryContext(ctx, query, qa...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = Error.Wrap(errs.Combine(err, rows.Close())) }()

	page := &booking.Page{Items: []booking.Booking{}, Offset: offset, Limit: limit}
	for rows.Next() {
		b, total, err := scanBookingWithTotal(rows)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		page.Total = total
		page.Items = append(page.Items, *b)
	}
	return page, Error.Wrap(rows.Err())
}

func (repo *bookings) Create(ctx context.Context, req booking.CreateRequest, deposit decimal.Decimal) (_ *booking.Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	var id int64
	err = repo.db.q.QueryRowContext(ctx, `
		INSERT INTO bookings (client_id, equipment_id, project_id, start_date, end_date,
			quantity, total_amount, deposit_amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		req.ClientID, req.EquipmentID, nullInt64(req.ProjectID),
		req.StartDate, req.EndDate, quantity,
		req.TotalAmount, deposit, nullString(req.Notes)).Scan(&id)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return repo.Get(ctx, id)
}

func (repo *bookings) Update(ctx context.Context, id int64, req booking.UpdateRequest) (_ *booking.Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	var quantity sql.NullInt64
	if req.Quantity != nil {
		quantity = sql.NullInt64{Int64: int64(*req.Quantity), Valid: true}
	}
	var total, depositAmount interface{}
	if req.TotalAmount != nil {
		total = *req.TotalAmount
	}
	if req.DepositAmount != nil {
		depositAmount = *req.DepositAmount
	}

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE bookings SET
			start_date = COALESCE($2, start_date),
			end_date = COALESCE($3, end_date),
			quantity = COALESCE($4, quantity),
			total_amount = COALESCE($5, total_amount),
			deposit_amount = COALESCE($6, deposit_amount),
			notes = COALESCE($7, notes),
			updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		id, nullTime(req.StartDate), nullTime(req.EndDate), quantity,
		total, depositAmount, nullString(req.Notes))
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := requireAffected(result, booking.ErrNotFound.New("id %d", id)); err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

func (repo *bookings) UpdateStatus(ctx context.Context, id int64, status booking.Status) (_ *booking.Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE bookings SET booking_status = $2::booking_status, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id, string(status))
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := requireAffected(result, booking.ErrNotFound.New("id %d", id)); err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

func (repo *bookings) UpdatePayment(ctx context.Context, id int64, status booking.PaymentStatus) (_ *booking.Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE bookings SET payment_status = $2::booking_payment_status, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id, string(status))
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := requireAffected(result, booking.ErrNotFound.New("id %d", id)); err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

func (repo *bookings) SetProject(ctx context.Context, id int64, projectID *int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE bookings SET project_id = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id, nullInt64(projectID))
	if err != nil {
		return Error.Wrap(err)
	}
	return requireAffected(result, booking.ErrNotFound.New("id %d", id))
}

func (repo *bookings) SoftDelete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE bookings SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return Error.Wrap(err)
	}
	if err := requireAffected(result, booking.ErrNotFound.New("id %d", id)); err != nil {
		return err
	}

	// Documents survive a booking deletion as client-level documents.
	_, err = repo.db.q.ExecContext(ctx, `
		UPDATE documents SET booking_id = NULL, updated_at = now()
		WHERE booking_id = $1`, id)
	return Error.Wrap(err)
}

func (repo *bookings) ListBlockingOverlaps(ctx context.Context, equipmentID int64, from, to time.Time, excludeID *int64) (_ []booking.Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	var qa args
	conditions := []string{
		"b.deleted_at IS NULL",
		"b.equipment_id = " + qa.add(equipmentID),
		"b.booking_status IN " + blockingStatuses,
		"b.start_date <= " + qa.add(to),
		qa.add(from) + " <= b.end_date",
	}
	if excludeID != nil {
		conditions = append(conditions, "b.id <> "+qa.add(*excludeID))
	}

	return repo.list(ctx, whereClause(conditions), "b.id", qa)
}

func (repo *bookings) ListForEquipment(ctx context.Context, equipmentID int64) (_ []booking.Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	var qa args
	where := "b.deleted_at IS NULL AND b.equipment_id = " + qa.add(equipmentID)
	return repo.list(ctx, where, "b.start_date, b.id", qa)
}

func (repo *bookings) ListForProject(ctx context.Context, projectID int64) (_ []booking.Booking, err error) {
	defer mon.Task()(&ctx)(&err)

	var qa args
	where := "b.deleted_at IS NULL AND b.project_id = " + qa.add(projectID)
	return repo.list(ctx, where, "b.start_date, b.id", qa)
}

func (repo *bookings) list(ctx context.Context, where, order string, qa args) (_ []booking.Booking, err error) {
	rows, err := repo.db.q.QueryContext(ctx, `
		SELECT `+bookingColumns+bookingFrom+`
		WHERE `+where+`
		ORDER BY `+order, qa...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = Error.Wrap(errs.Combine(err, rows.Close())) }()

	var all []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		all = append(all, *b)
	}
	return all, Error.Wrap(rows.Err())
}

func (repo *bookings) HasBlockingForEquipment(ctx context.Context, equipmentID int64) (has bool, err error) {
	defer mon.Task()(&ctx)(&err)

	err = repo.db.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE equipment_id = $1
				AND deleted_at IS NULL
				AND booking_status IN `+blockingStatuses+`
		)`, equipmentID).Scan(&has)
	return has, Error.Wrap(err)
}

func (repo *bookings) HasActiveForClient(ctx context.Context, clientID int64) (has bool, err error) {
	defer mon.Task()(&ctx)(&err)

	err = repo.db.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE client_id = $1
				AND deleted_at IS NULL
				AND booking_status IN `+blockingStatuses+`
		)`, clientID).Scan(&has)
	return has, Error.Wrap(err)
}

func scanBooking(row scanner) (*booking.Booking, error) {
	b, _, err := scanBookingRow(row, false)
	return b, err
}

func scanBookingWithTotal(row scanner) (*booking.Booking, int64, error) {
	return scanBookingRow(row, true)
}

func scanBookingRow(row scanner, withTotal bool) (*booking.Booking, int64, error) {
	var b booking.Booking
	var projectID sql.NullInt64
	var status, payment string
	var notes sql.NullString
	var deletedAt sql.NullTime

	var cl client.Client
	var clEmail, clPhone, clCompany, clNotes sql.NullString
	var clStatus string
	var clDeleted sql.NullTime

	var eq equipment.Equipment
	var eqDescription, eqSerial, eqNotes sql.NullString
	var eqStatus string
	var eqDeleted sql.NullTime

	var prID sql.NullInt64
	var prName sql.NullString

	var total int64
	dest := []interface{}{
		&b.ID, &b.ClientID, &b.EquipmentID, &projectID,
		&b.StartDate, &b.EndDate, &b.Quantity, &b.TotalAmount, &b.DepositAmount,
		&status, &payment, &notes,
		&b.CreatedAt, &b.UpdatedAt, &deletedAt,
		&cl.Name, &clEmail, &clPhone, &clCompany, &clStatus, &clNotes,
		&cl.CreatedAt, &cl.UpdatedAt, &clDeleted,
		&eq.Name, &eqDescription, &eqSerial, &eq.Barcode, &eq.CategoryID,
		&eqStatus, &eq.ReplacementCost, &eqNotes, &eq.CreatedAt, &eq.UpdatedAt, &eqDeleted,
		&prID, &prName,
	}
	if withTotal {
		dest = append(dest, &total)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}

	b.ProjectID = int64Ptr(projectID)
	b.Status = booking.Status(status)
	b.PaymentStatus = booking.PaymentStatus(payment)
	b.Notes = stringPtr(notes)
	b.DeletedAt = timePtr(deletedAt)

	cl.ID = b.ClientID
	cl.Email = stringPtr(clEmail)
	cl.Phone = stringPtr(clPhone)
	cl.Company = stringPtr(clCompany)
	cl.Status = client.Status(clStatus)
	cl.Notes = stringPtr(clNotes)
	cl.DeletedAt = timePtr(clDeleted)
	b.Client = &cl

	eq.ID = b.EquipmentID
	eq.Description = stringPtr(eqDescription)
	eq.SerialNumber = stringPtr(eqSerial)
	eq.Status = equipment.Status(eqStatus)
	eq.Notes = stringPtr(eqNotes)
	eq.DeletedAt = timePtr(eqDeleted)
	b.Equipment = &eq

	if prID.Valid {
		b.Project = &booking.ProjectRef{ID: prID.Int64, Name: prName.String}
	}
	return &b, total, nil
}
