package domain

import "errors"

var (
	// ErrTickerNotFound means the requested symbol does not exist in
	// the ticker directory. Surfaced to the caller, never retried.
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrNoData means an input yielded zero usable records, such as an
	// ingest file whose rows were all rejected. Callers treat it as a
	// bad input, not a system failure.
	ErrNoData = errors.New("no records matched")

	// ErrInvalidConfig marks a nonsensical request configuration,
	// rejected before any computation runs.
	ErrInvalidConfig = errors.New("invalid configuration")
)
