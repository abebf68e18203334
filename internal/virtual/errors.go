package virtual

import "errors"

// Construction errors.
var (
	ErrNoScrollHost      = errors.New("virtual: scroll host is required")
	ErrNoFetcher         = errors.New("virtual: fetcher is required")
	ErrInvalidItemExtent = errors.New("virtual: item extent must be positive")
	ErrInvalidItemCount  = errors.New("virtual: item count must not be negative")
	ErrSeedOutOfRange    = errors.New("virtual: initial item index out of range")
)

// ErrFetchPanic wraps a panic raised by a fetcher.
var ErrFetchPanic = errors.New("virtual: fetcher panicked")

// ErrDestroyed is reported by Err once a list has been destroyed.
var ErrDestroyed = errors.New("virtual: list destroyed")
