package acquire

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

// DecodePolyline decodes an encoded polyline (precision 5) into a LineString
// of [lon, lat] points.
func DecodePolyline(s string) (orb.LineString, error) {
	coords, _, err := polyline.DecodeCoords([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%q: %v: %w", s, err, ErrPolyline)
	}
	if len(coords) == 0 {
		return nil, nil
	}

	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c[1], c[0]}
	}

	return ls, nil
}

// EncodePolyline is the inverse of DecodePolyline.
func EncodePolyline(ls orb.LineString) string {
	coords := make([][]float64, len(ls))
	for i, p := range ls {
		coords[i] = []float64{p.Lat(), p.Lon()}
	}

	return string(polyline.EncodeCoords(coords))
}
