// Package planner turns a list of stops into a visiting order: it acquires
// the cost matrix, runs the optimizer and lays the result out as an
// itinerary ready for the CLI, the HTTP API and the renderers.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/roadtour/costmatrix"
	"github.com/katalvlaran/roadtour/internal/acquire"
	"github.com/katalvlaran/roadtour/internal/config"
	"github.com/katalvlaran/roadtour/internal/infra/metrics"
	"github.com/katalvlaran/roadtour/location"
	"github.com/katalvlaran/roadtour/tsp"
)

var (
	// ErrTooFewPoints is returned for fewer stops than planner.min_points.
	ErrTooFewPoints = errors.New("planner: too few locations")

	// ErrTooManyPoints is returned for more stops than planner.max_points.
	ErrTooManyPoints = errors.New("planner: too many locations")

	// ErrUnreachable is returned when planner.reject_invalid is set and the
	// mapping service reported a pair without a route.
	ErrUnreachable = errors.New("planner: some locations are not reachable from each other")
)

// MatrixSource supplies the cost matrix of a list of stops.
// *acquire.Client implements it.
type MatrixSource interface {
	Matrix(ctx context.Context, locs []location.Location) (*costmatrix.Matrix, acquire.Stats, error)
}

// GeometrySource supplies the road path of one leg.
// *acquire.Client implements it.
type GeometrySource interface {
	LegGeometry(ctx context.Context, from, to location.Location) (orb.LineString, error)
}

// Planner is safe for concurrent use.
type Planner struct {
	source        MatrixSource
	geometry      GeometrySource
	budget        tsp.Budget
	metric        string
	minPoints     int
	maxPoints     int
	rejectInvalid bool
	concurrency   int
	log           zerolog.Logger
}

// New returns a Planner for cfg. geometry may be nil, and is ignored unless
// render.leg_geometry is set.
func New(cfg config.Config, source MatrixSource, geometry GeometrySource, logger zerolog.Logger) (*Planner, error) {
	b := cfg.Budget()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Render.LegGeometry {
		geometry = nil
	}

	return &Planner{
		source:        source,
		geometry:      geometry,
		budget:        b,
		metric:        cfg.Maps.Metric,
		minPoints:     cfg.Planner.MinPoints,
		maxPoints:     cfg.Planner.MaxPoints,
		rejectInvalid: cfg.Planner.RejectInvalid,
		concurrency:   max(cfg.Maps.Concurrency, 1),
		log:           logger.With().Str("component", "planner").Logger(),
	}, nil
}

// Plan orders locs into a closed tour starting and ending at locs[0].
//
// Errors: ErrTooFewPoints, ErrTooManyPoints, ErrUnreachable, the errors of
// the matrix source and of tsp (ErrInfeasibleTour in particular).
func (p *Planner) Plan(ctx context.Context, locs []location.Location) (*Result, error) {
	lg := p.logger(ctx)
	switch {
	case len(locs) < p.minPoints:
		return nil, fmt.Errorf("%d given, need at least %d: %w", len(locs), p.minPoints, ErrTooFewPoints)
	case len(locs) > p.maxPoints:
		return nil, fmt.Errorf("%d given, at most %d allowed: %w", len(locs), p.maxPoints, ErrTooManyPoints)
	}
	began := time.Now()

	m, stats, err := p.source.Matrix(ctx, locs)
	if err != nil {
		return nil, err
	}
	if p.rejectInvalid {
		if bad := m.InvalidPairs(); len(bad) > 0 {
			return nil, fmt.Errorf("%s: %w", describePairs(m, bad), ErrUnreachable)
		}
	}

	opt, err := tsp.NewOptimizer(p.budget, tsp.WithTrace(func(s tsp.State) {
		ev := lg.Debug().Stringer("phase", s.Phase).Int("n", s.N).Dur("elapsed", s.Elapsed)
		if s.Solver != "" {
			ev = ev.Str("solver", s.Solver)
		}
		if s.Err != nil {
			ev = ev.Err(s.Err)
		}
		ev.Msg("optimizer")
	}))
	if err != nil {
		return nil, err
	}
	solveStart := time.Now()
	route, err := opt.Optimize(ctx, m)
	solver := tsp.SelectSolver(m.N(), p.budget).Name()
	metrics.OptimizeSeconds.WithLabelValues(solver).Observe(time.Since(solveStart).Seconds())
	if err != nil {
		metrics.ToursTotal.WithLabelValues(solver, "failed").Inc()
		return nil, err
	}
	metrics.ToursTotal.WithLabelValues(solver, "ok").Inc()
	metrics.TourLocations.Observe(float64(len(locs)))
	if !route.Optimal {
		metrics.LocalSearchMoves.Observe(float64(route.Improvements))
	}

	res := p.layout(locs, m, route)
	res.Matrix = stats
	if p.geometry != nil {
		if err = p.fetchGeometry(ctx, res); err != nil {
			return nil, err
		}
	}
	res.Elapsed = time.Since(began)

	lg.Info().
		Int("locations", len(locs)).
		Str("solver", route.Solver).
		Bool("optimal", route.Optimal).
		Float64("total", res.Total).
		Str("unit", res.Unit).
		Int("moves", route.Improvements).
		Stringer("termination", route.Termination).
		Dur("elapsed", res.Elapsed).
		Msg("tour planned")

	return res, nil
}

// layout builds the itinerary of route; legs are rounded to 3 decimals.
func (p *Planner) layout(locs []location.Location, m *costmatrix.Matrix, route tsp.Route) *Result {
	res := &Result{
		Locations:    locs,
		Route:        route,
		Stops:        make([]Stop, len(route.Order)),
		Unit:         p.unit(),
		Total:        round3(route.Cost),
		Optimal:      route.Optimal,
		Solver:       route.Solver,
		Construction: route.Construction,
		Moves:        route.Improvements,
		Termination:  route.Termination.String(),
	}
	for k, idx := range route.Order {
		l := locs[idx]
		s := Stop{Visit: k + 1, Index: idx, Label: l.Label, Lat: l.Lat(), Lon: l.Lon()}
		if k > 0 {
			s.Leg = round3(m.Cost(route.Order[k-1], idx))
		}
		res.Stops[k] = s
	}
	if n := len(route.Order); n > 1 {
		res.ReturnLeg = round3(m.Cost(route.Order[n-1], route.Order[0]))
	}

	return res
}

// fetchGeometry fills res.Geometry. A failed leg is logged and left nil so
// renderers draw a straight segment instead; only cancellation aborts.
func (p *Planner) fetchGeometry(ctx context.Context, res *Result) error {
	legs := res.Route.Legs()
	res.Geometry = make([]orb.LineString, len(legs))
	lg := p.logger(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for k, leg := range legs {
		k, leg := k, leg
		g.Go(func() error {
			ls, err := p.geometry.LegGeometry(gctx, res.Locations[leg.From], res.Locations[leg.To])
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				lg.Warn().Err(err).Int("from", leg.From).Int("to", leg.To).Msg("leg geometry unavailable")
				return nil
			}
			res.Geometry[k] = ls
			return nil
		})
	}

	return g.Wait()
}

// logger prefers a request-scoped logger carried by ctx.
func (p *Planner) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}

	return &p.log
}

func (p *Planner) unit() string {
	if p.metric == config.MetricDuration {
		return UnitSeconds
	}

	return UnitKilometres
}

// describePairs names up to three invalid pairs by label.
func describePairs(m *costmatrix.Matrix, pairs []costmatrix.Pair) string {
	const shown = 3
	parts := make([]string, 0, shown)
	for _, pr := range pairs[:min(len(pairs), shown)] {
		parts = append(parts, fmt.Sprintf("%s → %s", m.Label(pr.From), m.Label(pr.To)))
	}
	s := strings.Join(parts, ", ")
	if len(pairs) > shown {
		s += fmt.Sprintf(" and %d more", len(pairs)-shown)
	}

	return "no route " + s
}

func round3(x float64) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}

	return math.Round(x*1000) / 1000
}
