package planner

import (
	"time"

	"github.com/paulmach/orb"

	"github.com/katalvlaran/roadtour/internal/acquire"
	"github.com/katalvlaran/roadtour/location"
	"github.com/katalvlaran/roadtour/tsp"
)

// Cost units of an itinerary.
const (
	UnitKilometres = "km"
	UnitSeconds    = "s"
)

// Stop is one row of the itinerary.
type Stop struct {
	Visit int     `json:"visit"` // 1-based position in the tour
	Index int     `json:"index"` // position in the input list
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	// Leg is the cost from the previous stop; 0 for the first.
	Leg float64 `json:"leg"`
}

// Result is a planned tour.
type Result struct {
	Stops []Stop `json:"itinerary"`
	// ReturnLeg is the cost from the last stop back to the first.
	ReturnLeg   float64 `json:"return_leg"`
	Total       float64 `json:"total"`
	Unit        string  `json:"unit"`
	Optimal     bool    `json:"optimal"`
	Solver      string  `json:"solver"`
	Moves       int     `json:"moves"`
	Termination string  `json:"termination"`

	// Construction is the heuristic's starting-tour method, empty for exact tours.
	Construction string `json:"construction,omitempty"`

	Matrix  acquire.Stats `json:"-"`
	Elapsed time.Duration `json:"-"`

	Locations []location.Location `json:"-"`
	Route     tsp.Route           `json:"-"`
	// Geometry holds the road path of each leg of Route.Legs(); nil entries
	// (or a nil slice) mean no path is known.
	Geometry []orb.LineString `json:"-"`
}

// Order returns the closed visiting order as input indices, e.g. [0 2 1 0].
func (r *Result) Order() []int { return r.Route.Closed() }
