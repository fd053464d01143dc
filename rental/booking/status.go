// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package booking

import "fmt"

// Status is the lifecycle state of a booking.
type Status string

// Booking statuses.
const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusOverdue   Status = "OVERDUE"
)

// PaymentStatus is the payment state of a booking.
type PaymentStatus string

// Payment statuses.
const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPartial  PaymentStatus = "PARTIAL"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentOverdue  PaymentStatus = "OVERDUE"
)

// BlockingStatuses are the states in which a booking reserves the underlying
// equipment unit.
var BlockingStatuses = []Status{StatusPending, StatusConfirmed, StatusActive}

var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusActive, StatusCancelled},
	StatusActive:    {StatusCompleted, StatusOverdue},
	StatusOverdue:   {StatusCompleted, StatusActive},
	StatusCompleted: {},
	StatusCancelled: {},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentPartial, PaymentPaid, PaymentOverdue},
	PaymentPartial:  {PaymentPaid, PaymentRefunded, PaymentOverdue},
	PaymentPaid:     {PaymentRefunded},
	PaymentOverdue:  {PaymentPartial, PaymentPaid},
	PaymentRefunded: {},
}

// Valid reports whether the status is a known booking status.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Blocking reports whether the status reserves the equipment unit.
func (s Status) Blocking() bool {
	for _, blocking := range BlockingStatuses {
		if s == blocking {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the transition s -> next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s.
func (s Status) AllowedTransitions() []Status {
	return append([]Status(nil), statusTransitions[s]...)
}

// Valid reports whether the status is a known payment status.
func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// CanTransitionTo reports whether the transition s -> next is allowed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the payment statuses reachable from s.
func (s PaymentStatus) AllowedTransitions() []PaymentStatus {
	return append([]PaymentStatus(nil), paymentTransitions[s]...)
}

// TransitionError carries the details of a rejected status transition.
type TransitionError struct {
	Current string
	Next    string
	Allowed []string
}

// Error implements error.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s (allowed: %v)", e.Current, e.Next, e.Allowed)
}

func statusStrings(statuses []Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func paymentStrings(statuses []PaymentStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
