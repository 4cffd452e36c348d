package acquire

import "errors"

var (
	// ErrNoAPIKey is returned when the client has no API key configured.
	ErrNoAPIKey = errors.New("acquire: no mapping service API key")

	// ErrUpstream wraps failed or rejected mapping service calls.
	ErrUpstream = errors.New("acquire: mapping service request failed")

	// ErrNoRoute is returned by LegGeometry when the service found no route.
	ErrNoRoute = errors.New("acquire: no route between locations")

	// ErrPolyline is returned for a malformed encoded polyline.
	ErrPolyline = errors.New("acquire: malformed encoded polyline")
)
