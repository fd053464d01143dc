// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentaldb

import (
	"context"
)

// sequences implements barcode.Sequences on the singleton counter row. The
// UPDATE takes a row lock, concurrent allocators serialize on it and every
// caller observes a distinct number.
type sequences struct {
	db *DB
}

func (repo *sequences) Next(ctx context.Context) (n int64, err error) {
	defer mon.Task()(&ctx)(&err)

	err = repo.db.q.QueryRowContext(ctx, `
		UPDATE barcode_sequences SET last_number = last_number + 1
		WHERE id = 1
		RETURNING last_number`).Scan(&n)
	if err != nil {
		return 0, Error.Wrap(err)
	}
	return n, nil
}
