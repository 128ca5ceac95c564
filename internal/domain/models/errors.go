package models

import "errors"

var (
	// ErrNoDataAvailable means the provider returned an empty history
	// (unknown symbol, delisted security, market holiday).
	ErrNoDataAvailable = errors.New("no data available")

	// ErrComputationFailure wraps unexpected indicator failures.
	ErrComputationFailure = errors.New("indicator computation failed")

	// ErrUpstream wraps series provider transport failures.
	ErrUpstream = errors.New("series provider failure")
)
