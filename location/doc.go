// Package location models the stops of a tour: an index into the cost
// matrix, a human-readable label and a WGS84 coordinate held as an orb.Point
// (longitude first, as in GeoJSON).
//
// Locations are validated once at construction and never change afterwards.
// The package also provides straight-line (haversine) distances, used to
// estimate costs the mapping service could not deliver.
package location
