// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package txutil provides safe transaction-encapsulation functions which have
// retry semantics as necessary.
package txutil

import (
	"context"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"

	"cinerent.io/cinerent/private/dbutil"
	"cinerent.io/cinerent/private/tagsql"
)

var mon = monkit.Package()

// ErrSerialization is returned when a transaction failed with a serialization
// failure after exhausting its single retry.
var ErrSerialization = errs.Class("transaction serialization")

// WithTx starts a transaction on the given database. While in the transaction,
// fn is called with a handle to the transaction in order to make use of it. If
// fn returns an error, the transaction is rolled back. If fn returns nil, the
// transaction is committed.
//
// A serialization failure is retried exactly once; a second failure is
// reported as ErrSerialization so callers can surface a conflict.
//
// If fn has any side effects outside of changes to the database, they must be
// idempotent. fn may be called more than one time.
func WithTx(ctx context.Context, db tagsql.DB, fn func(context.Context, tagsql.Tx) error) (err error) {
	defer mon.Task()(&ctx)(&err)

	for i := 0; ; i++ {
		err, rollbackErr := withTxOnce(ctx, db, fn)
		if i == 0 && dbutil.IsSerializationFailure(err) {
			mon.Event("transaction_retry")
			continue
		}
		if i > 0 && dbutil.IsSerializationFailure(err) {
			return ErrSerialization.Wrap(errs.Combine(err, rollbackErr))
		}
		return errs.Combine(err, rollbackErr)
	}
}

// withTxOnce creates a transaction, ensures that it is eventually released
// (commit or rollback) and passes it to the provided callback. It does not
// handle retries, delegating that to callers.
func withTxOnce(ctx context.Context, db tagsql.DB, fn func(context.Context, tagsql.Tx) error) (err, rollbackErr error) {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return errs.Wrap(err), nil
	}
	defer func() {
		if err == nil {
			err = tx.Commit()
		} else {
			rollbackErr = tx.Rollback()
		}
	}()

	return fn(ctx, tx), nil
}
