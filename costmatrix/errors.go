package costmatrix

import (
	"errors"
	"fmt"
)

// ErrInvalidMatrix is the umbrella sentinel for malformed input. Every more
// specific shape/value sentinel below wraps it, so
//
//	errors.Is(err, costmatrix.ErrInvalidMatrix)
//
// holds for all of them. Not retryable: the input must be fixed first.
var ErrInvalidMatrix = errors.New("costmatrix: invalid matrix")

var (
	// ErrEmpty is returned when N < 1.
	ErrEmpty = fmt.Errorf("%w: no locations", ErrInvalidMatrix)

	// ErrNonSquare is returned when a row length differs from the row count.
	ErrNonSquare = fmt.Errorf("%w: not square", ErrInvalidMatrix)

	// ErrNonZeroDiagonal is returned when a present self-distance is not zero.
	ErrNonZeroDiagonal = fmt.Errorf("%w: non-zero self-distance", ErrInvalidMatrix)

	// ErrNegativeCost is returned for negative (or -Inf) costs.
	ErrNegativeCost = fmt.Errorf("%w: negative cost", ErrInvalidMatrix)

	// ErrValidityShape is returned when the validity table does not match the cost table.
	ErrValidityShape = fmt.Errorf("%w: validity table shape mismatch", ErrInvalidMatrix)

	// ErrUnresolved is returned by Builder.Build under MissingReject when
	// some pair was neither set nor marked invalid.
	ErrUnresolved = fmt.Errorf("%w: unresolved entries", ErrInvalidMatrix)
)

var (
	// ErrOutOfRange indicates an index outside [0, N).
	ErrOutOfRange = errors.New("costmatrix: index out of range")

	// ErrUnknownLabel indicates a label that the builder was not configured with.
	ErrUnknownLabel = errors.New("costmatrix: unknown label")

	// ErrBadOption indicates a nonsensical builder option (duplicate labels,
	// wrong label count, estimate policy without an estimator).
	ErrBadOption = errors.New("costmatrix: invalid option")
)
