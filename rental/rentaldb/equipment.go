// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentaldb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/zeebo/errs"

	"cinerent.io/cinerent/private/dbutil"
	"cinerent.io/cinerent/rental/category"
	"cinerent.io/cinerent/rental/equipment"
)

type equipmentRepo struct {
	db *DB
}

const equipmentColumns = `e.id, e.name, e.description, e.serial_number, e.barcode,
	e.category_id, e.status, e.replacement_cost, e.notes,
	e.created_at, e.updated_at, e.deleted_at,
	c.id, c.name, c.description, c.parent_id, c.show_in_print_overview,
	c.created_at, c.updated_at, c.deleted_at`

const equipmentFrom = ` FROM equipment e LEFT JOIN categories c ON c.id = e.category_id `

func (repo *equipmentRepo) Get(ctx context.Context, id int64) (_ *equipment.Equipment, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		SELECT `+equipmentColumns+equipmentFrom+`
		WHERE e.id = $1 AND e.deleted_at IS NULL`, id)

	eq, err := scanEquipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, equipment.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return eq, nil
}

func (repo *equipmentRepo) GetByBarcode(ctx context.Context, code string) (_ *equipment.Equipment, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		SELECT `+equipmentColumns+equipmentFrom+`
		WHERE e.barcode = $1 AND e.deleted_at IS NULL`, code)

	eq, err := scanEquipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, equipment.ErrNotFound.New("barcode %q", code)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return eq, nil
}

func (repo *equipmentRepo) List(ctx context.Context, filter equipment.ListFilter) (_ *equipment.Page, err error) {
	defer mon.Task()(&ctx)(&err)

	var qa args
	var conditions []string

	if !filter.IncludeDeleted {
		conditions = append(conditions, "e.deleted_at IS NULL")
	}
	if filter.Status != nil {
		conditions = append(conditions, "e.status = "+qa.add(string(*filter.Status))+"::equipment_status")
	}
	if len(filter.CategoryIDs) > 0 {
		conditions = append(conditions, "e.category_id = ANY("+qa.add(pq.Array(filter.CategoryIDs))+")")
	}
	if filter.Query != "" {
		pattern := qa.add(likePattern(filter.Query))
		conditions = append(conditions, `(e.name ILIKE `+pattern+
			` OR e.description ILIKE `+pattern+
			` OR e.barcode ILIKE `+pattern+
			` OR e.serial_number ILIKE `+pattern+`)`)
	}
	if filter.AvailableFrom != nil && filter.AvailableTo != nil {
		from := qa.add(*filter.AvailableFrom)
		to := qa.add(*filter.AvailableTo)
		conditions = append(conditions, `e.status = 'AVAILABLE' AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.equipment_id = e.id
				AND b.deleted_at IS NULL
				AND b.booking_status IN ('PENDING', 'CONFIRMED', 'ACTIVE')
				AND b.start_date <= `+to+` AND `+from+` <= b.end_date
		)`)
	}

	offset, limit := limitClause(filter.Offset, filter.Limit)
	query := `
		SELECT ` + equipmentColumns + `, count(*) OVER()` + equipmentFrom + `
		WHERE ` + whereClause(conditions) + `
		ORDER BY e.id
		LIMIT ` + qa.add(limit) + ` OFFSET ` + qa.add(offset)

	rows, err := repo.db.q.QueryContext(ctx, query, qa...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = Error.Wrap(errs.Combine(err, rows.Close())) }()

	page := &equipment.Page{Items: []equipment.Equipment{}, Offset: offset, Limit: limit}
	for rows.Next() {
		eq, total, err := scanEquipmentWithTotal(rows)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		page.Total = total
		page.Items = append(page.Items, *eq)
	}
	return page, Error.Wrap(rows.Err())
}

func (repo *equipmentRepo) Create(ctx context.Context, req equipment.CreateRequest, code string) (_ *equipment.Equipment, err error) {
	defer mon.Task()(&ctx)(&err)

	var id int64
	err = repo.db.q.QueryRowContext(ctx, `
		INSERT INTO equipment (name, description, serial_number, barcode, category_id, replacement_cost, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		req.Name, nullString(req.Description), nullString(req.SerialNumber),
		code, req.CategoryID, req.ReplacementCost, nullString(req.Notes)).Scan(&id)
	if dbutil.IsUniqueViolation(err) {
		return nil, equipment.ErrBarcodeTaken.New("%q", code)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return repo.Get(ctx, id)
}

func (repo *equipmentRepo) Update(ctx context.Context, id int64, req equipment.UpdateRequest) (_ *equipment.Equipment, err error) {
	defer mon.Task()(&ctx)(&err)

	var cost interface{}
	if req.ReplacementCost != nil {
		cost = *req.ReplacementCost
	}

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE equipment SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			serial_number = COALESCE($4, serial_number),
			category_id = COALESCE($5, category_id),
			replacement_cost = COALESCE($6, replacement_cost),
			notes = COALESCE($7, notes),
			updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		id, nullString(req.Name), nullString(req.Description), nullString(req.SerialNumber),
		nullInt64(req.CategoryID), cost, nullString(req.Notes))
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := requireAffected(result, equipment.ErrNotFound.New("id %d", id)); err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

func (repo *equipmentRepo) UpdateStatus(ctx context.Context, id int64, status equipment.Status) (_ *equipment.Equipment, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE equipment SET status = $2::equipment_status, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id, string(status))
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := requireAffected(result, equipment.ErrNotFound.New("id %d", id)); err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

func (repo *equipmentRepo) UpdateBarcode(ctx context.Context, id int64, code string) (_ *equipment.Equipment, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE equipment SET barcode = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id, code)
	if dbutil.IsUniqueViolation(err) {
		return nil, equipment.ErrBarcodeTaken.New("%q", code)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := requireAffected(result, equipment.ErrNotFound.New("id %d", id)); err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

func (repo *equipmentRepo) SoftDelete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		UPDATE equipment SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return Error.Wrap(err)
	}
	return requireAffected(result, equipment.ErrNotFound.New("id %d", id))
}

func requireAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return Error.Wrap(err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func scanEquipment(row scanner) (*equipment.Equipment, error) {
	eq, _, err := scanEquipmentRow(row, false)
	return eq, err
}

func scanEquipmentWithTotal(row scanner) (*equipment.Equipment, int64, error) {
	return scanEquipmentRow(row, true)
}

func scanEquipmentRow(row scanner, withTotal bool) (*equipment.Equipment, int64, error) {
	var eq equipment.Equipment
	var description, serial, notes sql.NullString
	var status string
	var deletedAt sql.NullTime

	var catID sql.NullInt64
	var catName, catDescription sql.NullString
	var catParent sql.NullInt64
	var catShow sql.NullBool
	var catCreated, catUpdated, catDeleted sql.NullTime

	var total int64
	dest := []interface{}{
		&eq.ID, &eq.Name, &description, &serial, &eq.Barcode,
		&eq.CategoryID, &status, &eq.ReplacementCost, &notes,
		&eq.CreatedAt, &eq.UpdatedAt, &deletedAt,
		&catID, &catName, &catDescription, &catParent, &catShow,
		&catCreated, &catUpdated, &catDeleted,
	}
	if withTotal {
		dest = append(dest, &total)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}

	eq.Description = stringPtr(description)
	eq.SerialNumber = stringPtr(serial)
	eq.Notes = stringPtr(notes)
	eq.Status = equipment.Status(status)
	eq.DeletedAt = timePtr(deletedAt)

	if catID.Valid {
		eq.Category = &category.Category{
			ID:                  catID.Int64,
			Name:                catName.String,
			Description:         stringPtr(catDescription),
			ParentID:            int64Ptr(catParent),
			ShowInPrintOverview: catShow.Bool,
			CreatedAt:           catCreated.Time,
			UpdatedAt:           catUpdated.Time,
			DeletedAt:           timePtr(catDeleted),
		}
	}
	return &eq, total, nil
}
