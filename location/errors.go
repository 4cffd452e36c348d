package location

import "errors"

var (
	// ErrLatitudeRange is returned for a latitude outside [-90, 90].
	ErrLatitudeRange = errors.New("location: latitude must be in [-90, 90]")

	// ErrLongitudeRange is returned for a longitude outside [-180, 180].
	ErrLongitudeRange = errors.New("location: longitude must be in [-180, 180]")

	// ErrNotFinite is returned for NaN or infinite coordinates.
	ErrNotFinite = errors.New("location: coordinate is not finite")

	// ErrNotNumeric is returned when a coordinate string does not parse.
	ErrNotNumeric = errors.New("location: latitude/longitude must be numeric")

	// ErrMismatchedLists is returned when ParseList gets lists of different length.
	ErrMismatchedLists = errors.New("location: latitude and longitude lists differ in length")

	// ErrDuplicateLabel is returned when two locations of one list share a label.
	ErrDuplicateLabel = errors.New("location: duplicate label")
)
