// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentaldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/zeebo/errs"

	"cinerent.io/cinerent/rental/scansession"
)

type scansessions struct {
	db *DB
}

const sessionColumns = `id, user_id, name, items, expires_at, created_at, updated_at`

func (repo *scansessions) Get(ctx context.Context, id int64) (_ *scansession.Session, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM scan_sessions
		WHERE id = $1 AND expires_at > now()`, id)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scansession.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s, nil
}

func (repo *scansessions) ListForUser(ctx context.Context, userID *int64) (_ []scansession.Session, err error) {
	defer mon.Task()(&ctx)(&err)

	// A nil owner matches nothing, anonymous sessions stay private.
	if userID == nil {
		return []scansession.Session{}, nil
	}

	rows, err := repo.db.q.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM scan_sessions
		WHERE user_id = $1 AND expires_at > now()
		ORDER BY updated_at DESC`, *userID)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = Error.Wrap(errs.Combine(err, rows.Close())) }()

	sessions := []scansession.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, Error.Wrap(rows.Err())
}

func (repo *scansessions) Create(ctx context.Context, req scansession.CreateRequest, expiresAt time.Time) (_ *scansession.Session, err error) {
	defer mon.Task()(&ctx)(&err)

	items, err := marshalItems(req.Items)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	row := repo.db.q.QueryRowContext(ctx, `
		INSERT INTO scan_sessions (user_id, name, items, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+sessionColumns,
		nullInt64(req.UserID), req.Name, items, expiresAt)

	s, err := scanSession(row)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s, nil
}

func (repo *scansessions) ReplaceItems(ctx context.Context, id int64, items []scansession.Item) (_ *scansession.Session, err error) {
	defer mon.Task()(&ctx)(&err)

	encoded, err := marshalItems(items)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	row := repo.db.q.QueryRowContext(ctx, `
		UPDATE scan_sessions SET items = $2, updated_at = now()
		WHERE id = $1 AND expires_at > now()
		RETURNING `+sessionColumns, id, encoded)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scansession.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s, nil
}

func (repo *scansessions) Rename(ctx context.Context, id int64, name string) (_ *scansession.Session, err error) {
	defer mon.Task()(&ctx)(&err)

	row := repo.db.q.QueryRowContext(ctx, `
		UPDATE scan_sessions SET name = $2, updated_at = now()
		WHERE id = $1 AND expires_at > now()
		RETURNING `+sessionColumns, id, name)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scansession.ErrNotFound.New("id %d", id)
	}
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return s, nil
}

func (repo *scansessions) Delete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		DELETE FROM scan_sessions WHERE id = $1`, id)
	if err != nil {
		return Error.Wrap(err)
	}
	return requireAffected(result, scansession.ErrNotFound.New("id %d", id))
}

func (repo *scansessions) DeleteExpired(ctx context.Context, now time.Time) (count int64, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.q.ExecContext(ctx, `
		DELETE FROM scan_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, Error.Wrap(err)
	}
	count, err = result.RowsAffected()
	return count, Error.Wrap(err)
}

func marshalItems(items []scansession.Item) ([]byte, error) {
	if items == nil {
		items = []scansession.Item{}
	}
	return json.Marshal(items)
}

func scanSession(row scanner) (*scansession.Session, error) {
	var s scansession.Session
	var userID sql.NullInt64
	var items []byte

	err := row.Scan(&s.ID, &userID, &s.Name, &items, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.UserID = int64Ptr(userID)
	s.Items = []scansession.Item{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &s.Items); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
