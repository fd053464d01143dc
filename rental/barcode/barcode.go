// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

// Package barcode implements minting and validation of equipment barcodes.
//
// A barcode is 11 characters: 9 decimal digits of a globally monotonic
// sequence number followed by a 2 digit checksum. The checksum algorithm is
// frozen; external scanners depend on it bit-for-bit.
package barcode

import (
	"context"
	"regexp"
	"strconv"

	"github.com/zeebo/errs"
)

// ErrInvalid is returned for malformed or checksum-mismatching barcodes.
var ErrInvalid = errs.Class("invalid barcode")

const (
	// SequenceDigits is the width of the zero-padded sequence prefix.
	SequenceDigits = 9
	// ChecksumDigits is the width of the checksum suffix.
	ChecksumDigits = 2
	// Length is the total barcode length.
	Length = SequenceDigits + ChecksumDigits

	// MaxSequence is the largest representable sequence number.
	MaxSequence = 1e9 - 1
)

var formatRx = regexp.MustCompile(`^\d{11}$`)

// Sequences is the monotonic counter backing barcode allocation.
//
// Next must serialize concurrent callers with a row-level lock and must run
// inside the caller's transaction scope, so that a rolled back allocation
// leaves a gap instead of a duplicate.
//
// architecture: Database
type Sequences interface {
	Next(ctx context.Context) (int64, error)
}

// Checksum computes the two digit checksum of a sequence number.
//
// The 9 sequence digits are weighted right to left with the cycle 1, 3, 7 and
// summed modulo 100.
func Checksum(sequence int64) int {
	weights := [3]int64{1, 3, 7}

	var sum int64
	for i := 0; i < SequenceDigits; i++ {
		digit := sequence % 10
		sequence /= 10
		sum += digit * weights[i%3]
	}
	return int(sum % 100)
}

// Compose builds the full barcode for a sequence number.
func Compose(sequence int64) (string, error) {
	if sequence < 0 || sequence > MaxSequence {
		return "", ErrInvalid.New("sequence %d out of range", sequence)
	}
	return padded(sequence, SequenceDigits) + padded(int64(Checksum(sequence)), ChecksumDigits), nil
}

// ValidFormat reports whether s is 11 decimal digits.
func ValidFormat(s string) bool {
	return formatRx.MatchString(s)
}

// Parse validates format and checksum and returns the sequence number.
func Parse(s string) (int64, error) {
	if !ValidFormat(s) {
		return 0, ErrInvalid.New("expected %d digits", Length)
	}
	sequence, err := strconv.ParseInt(s[:SequenceDigits], 10, 64)
	if err != nil {
		return 0, ErrInvalid.Wrap(err)
	}
	checksum, err := strconv.Atoi(s[SequenceDigits:])
	if err != nil {
		return 0, ErrInvalid.Wrap(err)
	}
	if Checksum(sequence) != checksum {
		return 0, ErrInvalid.New("checksum mismatch")
	}
	return sequence, nil
}

func padded(n int64, width int) string {
	s := strconv.FormatInt(n, 10)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
