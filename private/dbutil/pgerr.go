// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package dbutil implements helpers for postgres databases.
package dbutil

import (
	"github.com/lib/pq"
	"github.com/zeebo/errs"
)

// Postgres error codes that the rest of the system cares about.
const (
	pgCodeUniqueViolation      = "23505"
	pgCodeSerializationFailure = "40001"
	pgCodeForeignKeyViolation  = "23503"
)

// ErrCode returns the postgres error code associated with any error in the
// chain of errors walked by unwrapping, or the empty string.
func ErrCode(err error) (code string) {
	errs.IsFunc(err, func(err error) bool {
		if pgerr, ok := err.(*pq.Error); ok {
			code = string(pgerr.Code)
			return true
		}
		return false
	})
	return code
}

// IsUniqueViolation reports whether err is a postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	return ErrCode(err) == pgCodeUniqueViolation
}

// IsSerializationFailure reports whether err is a postgres serialization failure.
func IsSerializationFailure(err error) bool {
	return ErrCode(err) == pgCodeSerializationFailure
}

// IsForeignKeyViolation reports whether err is a postgres foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return ErrCode(err) == pgCodeForeignKeyViolation
}
