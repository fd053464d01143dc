// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentaldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/zeebo/errs"

	"cinerent.io/cinerent/rental/client"
)

type clients struct {
	db *DB
}

const clientColumns = `id, name, email, phone, company, status, notes,
	created_at, updated_at, deleted_at`

func (repo *clients) Get(ctx context.Context, id int64) (_ *client.Client, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE id = $1 AND deleted_at IS NULL`, id)

	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, client.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return c, nil
}

func (repo *clients) List(ctx context.Context, filter client.ListFilter) (_ *client.Page, err error) {
	defer mon.Task()(&ctx)(&err)

	var qa args
	var conditions []string

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = "+qa.add(string(*filter.Status))+"::client_status")
	}
	if filter.Query != "" {
		pattern := qa.add(likePattern(filter.Query))
		conditions = append(conditions, `(name ILIKE `+pattern+
			` OR email ILIKE `+pattern+
			` OR phone ILIKE `+pattern+
			` OR company ILIKE `+pattern+`)`)
	}

	offset, limit := limitClause(filter.Offset, filter.Limit)
	query := `
		SELECT ` + clientColumns + `, count(*) OVER()
		FROM clients
		WHERE ` + whereClause(conditions) + `
		ORDER BY name, id
		LIMIT ` + qa.add(limit) + ` OFFSET ` + qa.add(offset)

	rows, err := repo.db.q.QueryContext(ctx, query, qa...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = Error.Wrap(errs.Combine(err, rows.Close())) }()

	page := &client.Page{Items: []client.Client{}, Offset: offset, Limit: limit}
	for rows.Next() {
		var c client.Client
		var email, phone, company, notes sql.NullString
		var status string
		var deletedAt sql.NullTime
		err := rows.Scan(&c.ID, &c.Name, &email, &phone, &company, &status, &notes,
			&c.CreatedAt, &c.UpdatedAt, &deletedAt, &page.Total)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		c.Email = stringPtr(email)
		c.Phone = stringPtr(phone)
		c.Company = stringPtr(company)
		c.Notes = stringPtr(notes)
		c.Status = client.Status(status)
		c.DeletedAt = timePtr(deletedAt)
		page.Items = append(page.Items, c)
	}
	return page, Error.Wrap(rows.Err())
}

func (repo *clients) Create(ctx context.Context, req client.CreateRequest) (_ *client.Client, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		INSERT INTO clients (name, email, phone, company, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+clientColumns,
		req.Name, nullString(req.Email), nullString(req.Phone),
		nullString(req.Company), nullString(req.Notes))

	c, err := scanClient(row)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return c, nil
}

func (repo *clients) Update(ctx context.Context, id int64, req client.UpdateRequest) (_ *client.Client, err error) {
	defer mon.Task()(&ctx)(&err)

	var status sql.NullString
	if req.Status != nil {
		status = sql.NullString{String: string(*req.Status), Valid: true}
	}

	row := repo.db.q.QueryRowContext(ctx, `
		UPDATE clients SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			company = COALESCE($5, company),
			status = COALESCE($6::client_status, status),
			notes = COALESCE($7, notes),
			updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+clientColumns,
		id, nullString(req.Name), nullString(req.Email), nullString(req.Phone),
		nullString(req.Company), status, nullString(req.Notes))

	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, client.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return c, nil
}

func (repo *clients) SoftDelete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE clients SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return Error.Wrap(err)
	}
	return requireAffected(result, client.ErrNotFound.New("id %d", id))
}

func scanClient(row scanner) (*client.Client, error) {
	var c client.Client
	var email, phone, company, notes sql.NullString
	var status string
	var deletedAt sql.NullTime

	err := row.Scan(&c.ID, &c.Name, &email, &phone, &company, &status, &notes,
		&c.CreatedAt, &c.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	c.Email = stringPtr(email)
	c.Phone = stringPtr(phone)
	c.Company = stringPtr(company)
	c.Notes = stringPtr(notes)
	c.Status = client.Status(status)
	c.DeletedAt = timePtr(deletedAt)
	return &c, nil
}
