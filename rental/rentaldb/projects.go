// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentaldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/zeebo/errs"

	"cinerent.io/cinerent/rental/booking"
	"cinerent.io/cinerent/rental/project"
)

type projects struct {
	db *DB
}

const projectColumns = `id, name, client_id, start_date, end_date,
	status, payment_status, description, notes,
	created_at, updated_at, deleted_at`

func (repo *projects) Get(ctx context.Context, id int64) (_ *project.Project, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1 AND deleted_at IS NULL`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, project.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return p, nil
}

func (repo *projects) List(ctx context.Context, filter project.ListFilter) (_ *project.Page, err error) {
	defer mon.Task()(&ctx)(&err)

	var qa args
	var conditions []string

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if filter.ClientID != nil {
		conditions = append(conditions, "client_id = "+qa.add(*filter.ClientID))
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = "+qa.add(string(*filter.Status))+"::project_status")
	}
	if filter.Query != "" {
		pattern := qa.add(likePattern(filter.Query))
		conditions = append(conditions, `(name ILIKE `+pattern+` OR description ILIKE `+pattern+`)`)
	}

	offset, limit := limitClause(filter.Offset, filter.Limit)
	query := `
		SELECT ` + projectColumns + `, count(*) OVER()
		FROM projects
		WHERE ` + whereClause(conditions) + `
		ORDER BY start_date DESC, id DESC
		LIMIT ` + qa.add(limit) + ` OFFSET ` + qa.add(offset)

	rows, err := repo.db.q.QueryContext(ctx, query, qa...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = Error.Wrap(errs.Combine(err, rows.Close())) }()

	page := &project.Page{Items: []project.Project{}, Offset: offset, Limit: limit}
	for rows.Next() {
		var p project.Project
		var description, notes sql.NullString
		var status, payment string
		var deletedAt sql.NullTime
		err := rows.Scan(&p.ID, &p.Name, &p.ClientID, &p.StartDate, &p.EndDate,
			&status, &payment, &description, &notes,
			&p.CreatedAt, &p.UpdatedAt, &deletedAt, &page.Total)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		p.Status = project.Status(status)
		p.PaymentStatus = project.PaymentStatus(payment)
		p.Description = stringPtr(description)
		p.Notes = stringPtr(notes)
		p.DeletedAt = timePtr(deletedAt)
		page.Items = append(page.Items, p)
	}
	return page, Error.Wrap(rows.Err())
}

func (repo *projects) Create(ctx context.Context, req project.CreateRequest) (_ *project.Project, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		INSERT INTO projects (name, client_id, start_date, end_date, description, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+projectColumns,
		req.Name, req.ClientID, req.StartDate, req.EndDate,
		nullString(req.Description), nullString(req.Notes))

	p, err := scanProject(row)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return p, nil
}

func (repo *projects) Update(ctx context.Context, id int64, req project.UpdateRequest) (_ *project.Project, err error) {
	defer mon.Task()(&ctx)(&err)

	var status sql.NullString
	if req.Status != nil {
		status = sql.NullString{String: string(*req.Status), Valid: true}
	}

	row := repo.db.q.QueryRowContext(ctx, `
		UPDATE projects SET
			name = COALESCE($2, name),
			start_date = COALESCE($3, start_date),
			end_date = COALESCE($4, end_date),
			status = COALESCE($5::project_status, status),
			description = COALESCE($6, description),
			notes = COALESCE($7, notes),
			updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+projectColumns,
		id, nullString(req.Name), nullTime(req.StartDate), nullTime(req.EndDate),
		status, nullString(req.Description), nullString(req.Notes))

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, project.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return p, nil
}

func (repo *projects) SoftDelete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE projects SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return Error.Wrap(err)
	}
	return requireAffected(result, project.ErrNotFound.New("id %d", id))
}

func (repo *projects) ClearBookings(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = repo.db.q.ExecContext(ctx, `
		UPDATE bookings SET project_id = NULL, updated_at = now()
		WHERE project_id = $1 AND deleted_at IS NULL`, id)
	return Error.Wrap(err)
}

// RecomputePayment rolls the member booking payment statuses up into the
// stored project payment status. It implements booking.ProjectRollup.
func (repo *projects) RecomputePayment(ctx context.Context, projectID int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := repo.db.q.QueryContext(ctx, `
		SELECT payment_status FROM bookings
		WHERE project_id = $1 AND deleted_at IS NULL`, projectID)
	if err != nil {
		return Error.Wrap(err)
	}

	var statuses []booking.PaymentStatus
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return Error.Wrap(errs.Combine(err, rows.Close()))
		}
		statuses = append(statuses, booking.PaymentStatus(s))
	}
	if err := errs.Combine(rows.Err(), rows.Close()); err != nil {
		return Error.Wrap(err)
	}

	derived := project.DerivePaymentStatus(statuses)
	_, err = repo.db.q.ExecContext(ctx, `
		UPDATE projects SET payment_status = $2::project_payment_status, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, projectID, string(derived))
	return Error.Wrap(err)
}

func scanProject(row scanner) (*project.Project, error) {
	var p project.Project
	var description, notes sql.NullString
	var status, payment string
	var deletedAt sql.NullTime

	err := row.Scan(&p.ID, &p.Name, &p.ClientID, &p.StartDate, &p.EndDate,
		&status, &payment, &description, &notes,
		&p.CreatedAt, &p.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	p.Status = project.Status(status)
	p.PaymentStatus = project.PaymentStatus(payment)
	p.Description = stringPtr(description)
	p.Notes = stringPtr(notes)
	p.DeletedAt = timePtr(deletedAt)
	return &p, nil
}
