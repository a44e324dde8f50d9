package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a rental transaction did not go through.
type ErrorKind string

const (
	KindIneligible     ErrorKind = "INELIGIBLE"
	KindUnavailable    ErrorKind = "UNAVAILABLE"
	KindPaymentFailed  ErrorKind = "PAYMENT_FAILED"
	KindInvalidRequest ErrorKind = "INVALID_REQUEST"
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindInternal       ErrorKind = "INTERNAL"
)

var (
	ErrIneligible     = errors.New("customer is not eligible to rent")
	ErrUnavailable    = errors.New("item is not available")
	ErrPaymentFailed  = errors.New("payment failed")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")

	ErrInvalidTransition = errors.New("invalid agreement state transition")
	ErrAgreementClosed   = errors.New("agreement is closed")
	ErrUnknownItem       = errors.New("unknown item")
	ErrUnknownCustomer   = errors.New("unknown customer")
)

var kindSentinels = map[ErrorKind]error{
	KindIneligible:     ErrIneligible,
	KindUnavailable:    ErrUnavailable,
	KindPaymentFailed:  ErrPaymentFailed,
	KindInvalidRequest: ErrInvalidRequest,
	KindNotFound:       ErrNotFound,
}

// RentalError is the tagged failure returned by the rental service.
type RentalError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func NewRentalError(kind ErrorKind, op string, err error) *RentalError {
	return &RentalError{Kind: kind, Op: op, Err: err}
}

func (e *RentalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RentalError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUnavailable) match on the kind even when the
// wrapped cause is something else.
func (e *RentalError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// KindOf returns the ErrorKind carried by err, or "" when err is nil.
// Plain errors wrapping one of the kind sentinels get that kind, anything
// else is KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var re *RentalError
	if errors.As(err, &re) {
		return re.Kind
	}
	for _, kind := range []ErrorKind{KindInvalidRequest, KindNotFound, KindUnavailable, KindIneligible, KindPaymentFailed} {
		if errors.Is(err, kindSentinels[kind]) {
			return kind
		}
	}
	return KindInternal
}
