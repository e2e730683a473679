package models

import "errors"

// Failure taxonomy of the pricing pipeline. Everything is detected at
// the boundary before simulation starts; nothing is retried because the
// computation is deterministic given its random source.
var (
	// ErrInvalidInput marks parameters the pipeline refuses to price:
	// non-positive spot or strike, negative volatility, non-positive
	// time to maturity, fewer than two paths or fewer than one step.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedOptionKind marks an option kind outside {call, put}.
	ErrUnsupportedOptionKind = errors.New("unsupported option kind")
)
