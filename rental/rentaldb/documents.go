// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentaldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/zeebo/errs"

	"cinerent.io/cinerent/rental/document"
)

type documents struct {
	db *DB
}

const documentColumns = `id, client_id, booking_id, type, title,
	file_path, file_name, file_size, mime_type, status,
	created_at, updated_at, deleted_at`

func (repo *documents) Get(ctx context.Context, id int64) (_ *document.Document, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE id = $1 AND deleted_at IS NULL`, id)

	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, document.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return d, nil
}

func (repo *documents) List(ctx context.Context, filter document.ListFilter) (_ *document.Page, err error) {
	defer mon.Task()(&ctx)(&err)

	var qa args
	var conditions []string

	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}
	if filter.ClientID != nil {
		conditions = append(conditions, "client_id = "+qa.add(*filter.ClientID))
	}
	if filter.BookingID != nil {
		conditions = append(conditions, "booking_id = "+qa.add(*filter.BookingID))
	}
	if filter.Type != nil {
		conditions = append(conditions, "type = "+qa.add(string(*filter.Type))+"::document_type")
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = "+qa.add(string(*filter.Status))+"::document_status")
	}

	offset, limit := limitClause(filter.Offset, filter.Limit)
	query := `
		SELECT ` + documentColumns + `, count(*) OVER()
		FROM documents
		WHERE ` + whereClause(conditions) + `
		ORDER BY created_at DESC, id DESC
		LIMIT ` + qa.add(limit) + ` OFFSET ` + qa.add(offset)

	rows, err := repo.db.q.QueryContext(ctx, query, qa...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = Error.Wrap(errs.Combine(err, rows.Close())) }()

	page := &document.Page{Items: []document.Document{}, Offset: offset, Limit: limit}
	for rows.Next() {
		var d document.Document
		var bookingID sql.NullInt64
		var docType, status string
		var deletedAt sql.NullTime
		err := rows.Scan(&d.ID, &d.ClientID, &bookingID, &docType, &d.Title,
			&d.FilePath, &d.FileName, &d.FileSize, &d.MimeType, &status,
			&d.CreatedAt, &d.UpdatedAt, &deletedAt, &page.Total)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		d.BookingID = int64Ptr(bookingID)
		d.Type = document.Type(docType)
		d.Status = document.Status(status)
		d.DeletedAt = timePtr(deletedAt)
		page.Items = append(page.Items, d)
	}
	return page, Error.Wrap(rows.Err())
}

func (repo *documents) Create(ctx context.Context, req document.CreateRequest) (_ *document.Document, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		INSERT INTO documents (client_id, booking_id, type, title, file_path, file_name, file_size, mime_type)
		VALUES ($1, $2, $3::document_type, $4, $5, $6, $7, $8)
		RETURNING `+documentColumns,
		req.ClientID, nullInt64(req.BookingID), string(req.Type), req.Title,
		req.FilePath, req.FileName, req.FileSize, req.MimeType)

	d, err := scanDocument(row)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return d, nil
}

func (repo *documents) UpdateStatus(ctx context.Context, id int64, status document.Status) (_ *document.Document, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		UPDATE documents SET status = $2::document_status, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+documentColumns, id, string(status))

	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, document.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return d, nil
}

func (repo *documents) SoftDelete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE documents SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return Error.Wrap(err)
	}
	return requireAffected(result, document.ErrNotFound.New("id %d", id))
}

func scanDocument(row scanner) (*document.Document, error) {
	var d document.Document
	var bookingID sql.NullInt64
	var docType, status string
	var deletedAt sql.NullTime

	err := row.Scan(&d.ID, &d.ClientID, &bookingID, &docType, &d.Title,
		&d.FilePath, &d.FileName, &d.FileSize, &d.MimeType, &status,
		&d.CreatedAt, &d.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	d.BookingID = int64Ptr(bookingID)
	d.Type = document.Type(docType)
	d.Status = document.Status(status)
	d.DeletedAt = timePtr(deletedAt)
	return &d, nil
}
