// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package tagsql implements a tagged wrapper for databases.
package tagsql

import (
	"context"
	"database/sql"
	"time"
)

// Queryer is implemented by both DB and Tx, so that repositories can run
// either inside or outside of a transaction scope.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB implements a wrapper for *sql.DB-like database.
type DB interface {
	Queryer

	BeginTx(ctx context.Context) (Tx, error)
	PingContext(ctx context.Context) error
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
	Close() error
}

// Rows implements a wrapper for *sql.Rows.
type Rows interface {
	Close() error
	Err() error
	Next() bool
	Scan(dest ...interface{}) error
}

// Wrap turns a *sql.DB into a DB-matching interface.
func Wrap(db *sql.DB) DB {
	return sqlDB{db: db}
}

type sqlDB struct {
	db *sql.DB
}

func (s sqlDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s sqlDB) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

func (s sqlDB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s sqlDB) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqlTx{tx: tx}, nil
}

func (s sqlDB) PingContext(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s sqlDB) SetMaxOpenConns(n int)                 { s.db.SetMaxOpenConns(n) }
func (s sqlDB) SetMaxIdleConns(n int)                 { s.db.SetMaxIdleConns(n) }
func (s sqlDB) SetConnMaxLifetime(d time.Duration)    { s.db.SetConnMaxLifetime(d) }
func (s sqlDB) Close() error                          { return s.db.Close() }
