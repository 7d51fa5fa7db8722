package parking

import "errors"

var (
	// ErrNoCapacity means no free slot of the needed category exists. Callers may retry later.
	ErrNoCapacity = errors.New("no free slot available")
	// ErrTicketNotFound covers unknown ids and tickets that were already closed.
	ErrTicketNotFound = errors.New("invalid or already-closed ticket")
	ErrBillNotFound   = errors.New("bill not found")
	// ErrSlotMissing signals a ticket bound to a slot the registry does not know.
	// It indicates corrupted state and is never an expected outcome.
	ErrSlotMissing       = errors.New("slot referenced by ticket not found")
	ErrPaymentDeclined   = errors.New("payment declined")
	ErrInvalidTransition = errors.New("invalid bill status transition")

	ErrNotConfigured     = errors.New("facility not configured")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrInvalidLayout     = errors.New("invalid facility layout")
)
