package domain

import "errors"

// Sentinel errors for the failure classes handlers translate to HTTP codes.
// Insufficient history is not an error anywhere: engines return nulls or
// empty results instead.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUpstream       = errors.New("market data upstream unavailable")
	ErrUnavailable    = errors.New("dependency unavailable")
)
