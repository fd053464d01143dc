// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentaldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"

	"cinerent.io/cinerent/rental/category"
)

var mon = monkit.Package()

type categories struct {
	db *DB
}

const categoryColumns = `id, name, description, parent_id, show_in_print_overview,
	created_at, updated_at, deleted_at`

func (repo *categories) Get(ctx context.Context, id int64) (_ *category.Category, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE id = $1 AND deleted_at IS NULL`, id)

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, category.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return c, nil
}

func (repo *categories) GetByName(ctx context.Context, name string) (_ *category.Category, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE name = $1 AND deleted_at IS NULL`, name)

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, category.ErrNotFound.New("name %q", name)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return c, nil
}

func (repo *categories) All(ctx context.Context) (_ []category.Category, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := repo.db.q.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE deleted_at IS NULL
		ORDER BY name`)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = Error.Wrap(errs.Combine(err, rows.Close())) }()

	var all []category.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		all = append(all, *c)
	}
	return all, Error.Wrap(rows.Err())
}

func (repo *categories) Create(ctx context.Context, req category.CreateRequest) (_ *category.Category, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		INSERT INTO categories (name, description, parent_id, show_in_print_overview)
		VALUES ($1, $2, $3, $4)
		RETURNING `+categoryColumns,
		req.Name, nullString(req.Description), nullInt64(req.ParentID), req.ShowInPrintOverview)

	c, err := scanCategory(row)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return c, nil
}

func (repo *categories) Update(ctx context.Context, id int64, req category.UpdateRequest) (_ *category.Category, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		UPDATE categories SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			parent_id = CASE WHEN $6 THEN NULL ELSE COALESCE($4, parent_id) END,
			show_in_print_overview = COALESCE($5, show_in_print_overview),
			updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+categoryColumns,
		id, nullString(req.Name), nullString(req.Description),
		nullInt64(req.ParentID), nullBool(req.ShowInPrintOverview), req.ClearParent)

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, category.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return c, nil
}

func (repo *categories) SoftDelete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE categories SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return Error.Wrap(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Error.Wrap(err)
	}
	if affected == 0 {
		return category.ErrNotFound.New("id %d", id)
	}
	return nil
}

func (repo *categories) CountEquipment(ctx context.Context) (_ map[int64]int64, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := repo.db.q.QueryContext(ctx, `
		SELECT category_id, count(*)
		FROM equipment
		WHERE deleted_at IS NULL
		GROUP BY category_id`)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = Error.Wrap(errs.Combine(err, rows.Close())) }()

	counts := make(map[int64]int64)
	for rows.Next() {
		var id, count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, Error.Wrap(err)
		}
		counts[id] = count
	}
	return counts, Error.Wrap(rows.Err())
}

func (repo *categories) HasEquipment(ctx context.Context, id int64) (has bool, err error) {
	defer mon.Task()(&ctx)(&err)

	err = repo.db.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM equipment
			WHERE category_id = $1 AND deleted_at IS NULL
		)`, id).Scan(&has)
	return has, Error.Wrap(err)
}

func (repo *categories) HasSubcategories(ctx context.Context, id int64) (has bool, err error) {
	defer mon.Task()(&ctx)(&err)

	err = repo.db.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM categories
			WHERE parent_id = $1 AND deleted_at IS NULL
		)`, id).Scan(&has)
	return has, Error.Wrap(err)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(row scanner) (*category.Category, error) {
	var c category.Category
	var description sql.NullString
	var parentID sql.NullInt64
	var deletedAt sql.NullTime

	err := row.Scan(&c.ID, &c.Name, &description, &parentID, &c.ShowInPrintOverview,
		&c.CreatedAt, &c.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	c.Description = stringPtr(description)
	c.ParentID = int64Ptr(parentID)
	c.DeletedAt = timePtr(deletedAt)
	return &c, nil
}
