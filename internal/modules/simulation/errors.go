package simulation

import "errors"

// Sentinel errors for the simulation engine. Handlers map these to HTTP
// status codes and user-displayable messages; everything else is a 500.
var (
	// ErrInvalidInput - malformed numeric data, rejected before computation
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownCategory - category not present in the rate table
	ErrUnknownCategory = errors.New("unknown credit category")

	// ErrOutOfBounds - principal or term outside the category limits.
	// This is a hard rejection; margin violations are NOT errors (they
	// produce a capped quote instead).
	ErrOutOfBounds = errors.New("outside category limits")

	// ErrNoBenefit - portability at our ceiling would not beat the
	// applicant's current rate
	ErrNoBenefit = errors.New("portability offers no benefit")
)
