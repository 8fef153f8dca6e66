package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindInvalidCount      ErrorKind = "invalid_count"
	KindInsufficientSeats ErrorKind = "insufficient_seats"
	KindNoBooking         ErrorKind = "no_booking"
)

// Error is a ledger failure that callers can render to a user. Two errors
// match under errors.Is when their kinds are equal, so the sentinels below
// match any error of the same kind regardless of message.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return e.Msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrNotFound          = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrInvalidCount      = &Error{Kind: KindInvalidCount, Msg: "invalid ticket count"}
	ErrInsufficientSeats = &Error{Kind: KindInsufficientSeats, Msg: "insufficient seats"}
	ErrNoBooking         = &Error{Kind: KindNoBooking, Msg: "no booking"}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

func FlightNotFound(number string) error {
	return newError(KindNotFound, "flight %s not found", number)
}

func CustomerNotFound(id int64) error {
	return newError(KindNotFound, "customer %d not found", id)
}

func InvalidCount(format string, args ...any) error {
	return newError(KindInvalidCount, format, args...)
}

func InsufficientSeats(number string, requested, available int) error {
	return newError(KindInsufficientSeats, "flight %s has %d seats available, %d requested", number, available, requested)
}

func NoBooking(number string, customerID int64) error {
	return newError(KindNoBooking, "customer %d holds no booking on flight %s", customerID, number)
}

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err is not a ledger error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
