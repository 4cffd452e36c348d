package location

import (
	"github.com/paulmach/orb/geo"

	"github.com/katalvlaran/roadtour/costmatrix"
)

// HaversineMeters returns the great-circle distance between a and b in meters.
func HaversineMeters(a, b Location) float64 {
	return geo.DistanceHaversine(a.Point, b.Point)
}

// Estimator returns a costmatrix.Estimator that substitutes
//
//	haversine(from, to) · detour · scale
//
// for unresolved pairs. detour (≥ 1 in practice) accounts for roads not
// being straight; scale converts meters into the matrix unit, e.g. 1/1000
// for kilometres or 1/speed for seconds at speed m/s.
// Indices outside locs yield ok=false.
func Estimator(locs []Location, detour, scale float64) costmatrix.Estimator {
	return func(from, to int) (float64, bool) {
		if from < 0 || from >= len(locs) || to < 0 || to >= len(locs) {
			return 0, false
		}

		return HaversineMeters(locs[from], locs[to]) * detour * scale, true
	}
}
