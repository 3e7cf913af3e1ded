package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrBusy                 = errors.New("another generation is already running")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrOutputUnavailable    = errors.New("worker output unavailable")
	ErrMalformedDescriptor  = errors.New("malformed output descriptor")
)
