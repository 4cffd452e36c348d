// Package render draws a planned tour as GeoJSON or as a standalone Leaflet
// HTML page.
package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"github.com/katalvlaran/roadtour/internal/planner"
)

// Feature kinds, stored in the "kind" property.
const (
	KindStop = "stop"
	KindLeg  = "leg"
)

// GeoJSON returns one Point feature per stop, in visiting order, followed by
// one LineString feature per leg of the closed tour. Legs with a known road
// path use it, simplified with Douglas-Peucker at tolerance degrees (0 keeps
// every vertex); the others are straight segments.
func GeoJSON(res *planner.Result, tolerance float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range res.Stops {
		f := geojson.NewFeature(orb.Point{s.Lon, s.Lat})
		f.Properties["kind"] = KindStop
		f.Properties["visit"] = s.Visit
		f.Properties["index"] = s.Index
		f.Properties["label"] = s.Label
		f.Properties["leg"] = s.Leg
		f.Properties["start"] = s.Visit == 1
		fc.Append(f)
	}

	legs := res.Route.Legs()
	for k, ls := range legLines(res, tolerance) {
		leg := legs[k]
		f := geojson.NewFeature(ls)
		f.Properties["kind"] = KindLeg
		f.Properties["from"] = leg.From
		f.Properties["to"] = leg.To
		f.Properties["road"] = hasGeometry(res, k)
		if k+1 < len(res.Stops) {
			f.Properties["cost"] = res.Stops[k+1].Leg
		} else {
			f.Properties["cost"] = res.ReturnLeg
		}
		fc.Append(f)
	}

	return fc
}

// legLines returns the drawn path of every leg of res.Route.Legs().
func legLines(res *planner.Result, tolerance float64) []orb.LineString {
	legs := res.Route.Legs()
	out := make([]orb.LineString, len(legs))
	dp := simplify.DouglasPeucker(tolerance)
	for k, leg := range legs {
		if hasGeometry(res, k) {
			ls := res.Geometry[k].Clone()
			if tolerance > 0 {
				ls = dp.LineString(ls)
			}
			out[k] = ls
			continue
		}
		out[k] = orb.LineString{res.Locations[leg.From].Point, res.Locations[leg.To].Point}
	}

	return out
}

func hasGeometry(res *planner.Result, k int) bool {
	return k < len(res.Geometry) && len(res.Geometry[k]) >= 2
}

// bound covers every stop and every drawn path.
func bound(res *planner.Result, lines []orb.LineString) orb.Bound {
	var b orb.Bound
	first := true
	extend := func(p orb.Point) {
		if first {
			b, first = p.Bound(), false
			return
		}
		b = b.Extend(p)
	}
	for _, s := range res.Stops {
		extend(orb.Point{s.Lon, s.Lat})
	}
	for _, ls := range lines {
		for _, p := range ls {
			extend(p)
		}
	}

	return b
}
