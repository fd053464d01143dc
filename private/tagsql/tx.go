// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package tagsql

import (
	"context"
	"database/sql"
)

// Tx is an interface for *sql.Tx-like transactions.
type Tx interface {
	Queryer

	Commit() error
	Rollback() error
}

type sqlTx struct {
	tx *sql.Tx
}

func (s sqlTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

func (s sqlTx) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	return s.tx.QueryContext(ctx, query, args...)
}

func (s sqlTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.tx.QueryRowContext(ctx, query, args...)
}

func (s sqlTx) Commit() error   { return s.tx.Commit() }
func (s sqlTx) Rollback() error { return s.tx.Rollback() }
