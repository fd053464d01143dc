// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package rentaldb implements the rental database on postgres.
package rentaldb

import (
	"context"
	"database/sql"
	"time"

	// load the postgres driver.
	_ "github.com/lib/pq"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"cinerent.io/cinerent/private/dbutil/txutil"
	"cinerent.io/cinerent/private/tagsql"
	"cinerent.io/cinerent/rental/barcode"
	"cinerent.io/cinerent/rental/booking"
	"cinerent.io/cinerent/rental/category"
	"cinerent.io/cinerent/rental/client"
	"cinerent.io/cinerent/rental/document"
	"cinerent.io/cinerent/rental/equipment"
	"cinerent.io/cinerent/rental/project"
	"cinerent.io/cinerent/rental/scansession"
)

var (
	// Error is the default rentaldb errs class.
	Error = errs.Class("rentaldb")
	// ErrTxConflict is returned when a transaction keeps failing with
	// serialization conflicts after its retry.
	ErrTxConflict = errs.Class("transaction conflict")
)

// Options includes options for how the database runs.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB gives access to all repositories sharing one connection pool. Inside a
// transactional scope a child DB is bound to the transaction instead.
type DB struct {
	log  *zap.Logger
	conn tagsql.DB
	q    tagsql.Queryer
}

// Open connects to the postgres database at the given url.
func Open(ctx context.Context, log *zap.Logger, databaseURL string, opts Options) (*DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, Error.New("failed opening database: %v", err)
	}
	if opts.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	wrapped := tagsql.Wrap(conn)
	if err := wrapped.PingContext(ctx); err != nil {
		return nil, Error.Wrap(errs.Combine(err, wrapped.Close()))
	}
	log.Debug("connected to database")

	return &DB{log: log, conn: wrapped, q: wrapped}, nil
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return nil
	}
	return Error.Wrap(db.conn.PingContext(ctx))
}

// Close releases the connection pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return Error.Wrap(db.conn.Close())
}

// withTx runs fn in a transactional scope. Nested calls reuse the enclosing
// scope so a whole request shares one transaction. A serialization failure is
// retried once by txutil; a second failure surfaces as ErrTxConflict.
func (db *DB) withTx(ctx context.Context, fn func(ctx context.Context, tx *DB) error) error {
	if db.conn == nil {
		return fn(ctx, db)
	}
	err := txutil.WithTx(ctx, db.conn, func(ctx context.Context, tx tagsql.Tx) error {
		return fn(ctx, &DB{log: db.log, q: tx})
	})
	if txutil.ErrSerialization.Has(err) {
		return ErrTxConflict.Wrap(err)
	}
	return err
}

// Categories is a getter for the category repository.
func (db *DB) Categories() category.DB { return &categories{db: db} }

// Equipment is a getter for the equipment repository.
func (db *DB) Equipment() equipment.DB { return &equipmentRepo{db: db} }

// Clients is a getter for the client repository.
func (db *DB) Clients() client.DB { return &clients{db: db} }

// Bookings is a getter for the booking repository.
func (db *DB) Bookings() booking.DB { return &bookings{db: db} }

// Projects is a getter for the project repository.
func (db *DB) Projects() project.DB { return &projects{db: db} }

// Documents is a getter for the document repository.
func (db *DB) Documents() document.DB { return &documents{db: db} }

// ScanSessions is a getter for the scan session repository.
func (db *DB) ScanSessions() scansession.DB { return &scansessions{db: db} }

// Sequences is a getter for the barcode sequence singleton.
func (db *DB) Sequences() barcode.Sequences { return &sequences{db: db} }

// ProjectRollup is a getter for the project payment rollup.
func (db *DB) ProjectRollup() booking.ProjectRollup { return &projects{db: db} }

// CategoryStore returns the transactional scope for the category service.
func (db *DB) CategoryStore() category.Store { return categoryStore{db} }

// EquipmentStore returns the transactional scope for the equipment service.
func (db *DB) EquipmentStore() equipment.Store { return equipmentStore{db} }

// ClientStore returns the transactional scope for the client service.
func (db *DB) ClientStore() client.Store { return clientStore{db} }

// BookingStore returns the transactional scope for the booking service.
func (db *DB) BookingStore() booking.Store { return bookingStore{db} }

// ProjectStore returns the transactional scope for the project service.
func (db *DB) ProjectStore() project.Store { return projectStore{db} }

// DocumentStore returns the transactional scope for the document service.
func (db *DB) DocumentStore() document.Store { return documentStore{db} }

type categoryStore struct{ *DB }

func (s categoryStore) WithTx(ctx context.Context, fn func(context.Context, category.Store) error) error {
	return s.withTx(ctx, func(ctx context.Context, tx *DB) error {
		return fn(ctx, categoryStore{tx})
	})
}

type equipmentStore struct{ *DB }

func (s equipmentStore) BookingGuard() equipment.BookingGuard { return &bookings{db: s.DB} }

func (s equipmentStore) WithTx(ctx context.Context, fn func(context.Context, equipment.Store) error) error {
	return s.withTx(ctx, func(ctx context.Context, tx *DB) error {
		return fn(ctx, equipmentStore{tx})
	})
}

type clientStore struct{ *DB }

func (s clientStore) BookingGuard() client.BookingGuard { return &bookings{db: s.DB} }

func (s clientStore) WithTx(ctx context.Context, fn func(context.Context, client.Store) error) error {
	return s.withTx(ctx, func(ctx context.Context, tx *DB) error {
		return fn(ctx, clientStore{tx})
	})
}

type bookingStore struct{ *DB }

func (s bookingStore) WithTx(ctx context.Context, fn func(context.Context, booking.Store) error) error {
	return s.withTx(ctx, func(ctx context.Context, tx *DB) error {
		return fn(ctx, bookingStore{tx})
	})
}

type projectStore struct{ *DB }

func (s projectStore) WithTx(ctx context.Context, fn func(context.Context, project.Store) error) error {
	return s.withTx(ctx, func(ctx context.Context, tx *DB) error {
		return fn(ctx, projectStore{tx})
	})
}

type documentStore struct{ *DB }

func (s documentStore) WithTx(ctx context.Context, fn func(context.Context, document.Store) error) error {
	return s.withTx(ctx, func(ctx context.Context, tx *DB) error {
		return fn(ctx, documentStore{tx})
	})
}
