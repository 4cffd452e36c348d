package location

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Location is one stop of a tour.
type Location struct {
	// Index is the row/column of this location in the cost matrix.
	Index int
	// Label names the stop for people; unique within a list.
	Label string
	// Point is the coordinate, longitude first.
	Point orb.Point
}

// New validates the coordinate and returns a Location. An empty label
// becomes "Point <index>".
func New(index int, label string, lat, lon float64) (Location, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return Location{}, fmt.Errorf("(%v, %v): %w", lat, lon, ErrNotFinite)
	}
	if lat < -90 || lat > 90 {
		return Location{}, fmt.Errorf("latitude %v: %w", lat, ErrLatitudeRange)
	}
	if lon < -180 || lon > 180 {
		return Location{}, fmt.Errorf("longitude %v: %w", lon, ErrLongitudeRange)
	}
	if label == "" {
		label = DefaultLabel(index)
	}

	return Location{Index: index, Label: label, Point: orb.Point{lon, lat}}, nil
}

// DefaultLabel is the label given to unnamed locations.
func DefaultLabel(index int) string { return fmt.Sprintf("Point %d", index) }

// Lat returns the latitude in degrees.
func (l Location) Lat() float64 { return l.Point.Lat() }

// Lon returns the longitude in degrees.
func (l Location) Lon() float64 { return l.Point.Lon() }

// String formats the location as `label (lat,lon)`.
func (l Location) String() string {
	return fmt.Sprintf("%s (%.6f,%.6f)", l.Label, l.Lat(), l.Lon())
}

// Labels returns the labels of locs in order.
func Labels(locs []Location) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.Label
	}

	return out
}

// Points returns the coordinates of locs in order.
func Points(locs []Location) []orb.Point {
	out := make([]orb.Point, len(locs))
	for i, l := range locs {
		out[i] = l.Point
	}

	return out
}

// Bound returns the smallest bounding box containing every location.
func Bound(locs []Location) orb.Bound {
	return orb.MultiPoint(Points(locs)).Bound()
}
