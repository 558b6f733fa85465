package domain

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrBookingWindowClosed   = errors.New("booking window closed")
	ErrUnknownTicketType     = errors.New("unknown ticket type")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrConflict              = errors.New("conflict")
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
)
