package planner

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/roadtour/costmatrix"
	"github.com/katalvlaran/roadtour/internal/acquire"
	"github.com/katalvlaran/roadtour/internal/config"
	"github.com/katalvlaran/roadtour/internal/infra/log"
	"github.com/katalvlaran/roadtour/location"
	"github.com/katalvlaran/roadtour/tsp"
)

// straightSource prices every pair by great-circle kilometres, except the
// pairs listed in blocked.
type straightSource struct {
	blocked map[costmatrix.Pair]bool
	err     error
	calls   int
}

func (s *straightSource) Matrix(_ context.Context, locs []location.Location) (*costmatrix.Matrix, acquire.Stats, error) {
	s.calls++
	if s.err != nil {
		return nil, acquire.Stats{}, s.err
	}
	b, err := costmatrix.NewBuilder(len(locs), costmatrix.WithLabels(location.Labels(locs)...))
	if err != nil {
		return nil, acquire.Stats{}, err
	}
	for i := range locs {
		for j := range locs {
			if i == j {
				continue
			}
			if s.blocked[costmatrix.Pair{From: i, To: j}] {
				_ = b.MarkInvalid(i, j)
				continue
			}
			_ = b.Set(i, j, location.HaversineMeters(locs[i], locs[j])/1000)
		}
	}
	m, err := b.Build()

	return m, acquire.Stats{Pairs: len(locs) * (len(locs) - 1), Fetched: b.Resolved()}, err
}

type stubGeometry struct {
	mu   sync.Mutex
	fail costmatrix.Pair
	seen []costmatrix.Pair
}

func (g *stubGeometry) LegGeometry(_ context.Context, from, to location.Location) (orb.LineString, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := costmatrix.Pair{From: from.Index, To: to.Index}
	g.seen = append(g.seen, p)
	if p == g.fail {
		return nil, acquire.ErrNoRoute
	}

	return orb.LineString{from.Point, {(from.Lon() + to.Lon()) / 2, (from.Lat() + to.Lat()) / 2}, to.Point}, nil
}

func square(t *testing.T) []location.Location {
	t.Helper()
	entries := []location.Entry{
		{Label: "Depot", Lat: 0, Lon: 0},
		{Label: "North", Lat: 0.1, Lon: 0},
		{Label: "NorthEast", Lat: 0.1, Lon: 0.1},
		{Label: "East", Lat: 0, Lon: 0.1},
	}
	locs, err := location.FromEntries(entries)
	require.NoError(t, err)

	return locs
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Render.LegGeometry = false

	return cfg
}

func newPlanner(t *testing.T, cfg config.Config, src MatrixSource, geo GeometrySource) *Planner {
	t.Helper()
	p, err := New(cfg, src, geo, log.Nop())
	require.NoError(t, err)

	return p
}

func TestPlan_Square(t *testing.T) {
	p := newPlanner(t, testConfig(), &straightSource{}, nil)
	locs := square(t)

	res, err := p.Plan(context.Background(), locs)
	require.NoError(t, err)

	assert.True(t, res.Optimal)
	assert.Equal(t, tsp.ExactSolverName, res.Solver)
	assert.Equal(t, UnitKilometres, res.Unit)
	assert.Equal(t, "exhaustive", res.Termination)
	require.Len(t, res.Stops, 4)
	assert.Equal(t, 0, res.Stops[0].Index)
	assert.Equal(t, "Depot", res.Stops[0].Label)
	assert.Zero(t, res.Stops[0].Leg)

	var sum float64
	for k, s := range res.Stops {
		assert.Equal(t, k+1, s.Visit)
		assert.Equal(t, locs[s.Index].Label, s.Label)
		assert.InDelta(t, locs[s.Index].Lat(), s.Lat, 1e-12)
		sum += s.Leg
		if k > 0 {
			// only sides, no diagonals (~15.7 km)
			assert.InDelta(t, 11.1, s.Leg, 0.1, "leg into %s", s.Label)
		}
	}
	sum += res.ReturnLeg
	assert.InDelta(t, sum, res.Total, 0.003)
	assert.InDelta(t, 44.5, res.Total, 0.2)
	assert.Equal(t, 0, res.Order()[0])
	assert.Equal(t, 0, res.Order()[4])
	assert.Nil(t, res.Geometry)
	assert.Equal(t, 12, res.Matrix.Pairs)
}

func TestPlan_PointLimits(t *testing.T) {
	cfg := testConfig()
	cfg.Planner.MinPoints, cfg.Planner.MaxPoints = 3, 4
	src := &straightSource{}
	p := newPlanner(t, cfg, src, nil)
	locs := square(t)

	_, err := p.Plan(context.Background(), locs[:2])
	require.ErrorIs(t, err, ErrTooFewPoints)

	more, err := location.FromEntries(append(location.Entries(locs), location.Entry{Label: "Far", Lat: 1, Lon: 1}))
	require.NoError(t, err)
	_, err = p.Plan(context.Background(), more)
	require.ErrorIs(t, err, ErrTooManyPoints)
	assert.Zero(t, src.calls)
}

func TestPlan_RejectInvalid(t *testing.T) {
	src := &straightSource{blocked: map[costmatrix.Pair]bool{{From: 1, To: 2}: true}}

	p := newPlanner(t, testConfig(), src, nil)
	_, err := p.Plan(context.Background(), square(t))
	require.ErrorIs(t, err, ErrUnreachable)
	assert.Contains(t, err.Error(), "North → NorthEast")

	cfg := testConfig()
	cfg.Planner.RejectInvalid = false
	p = newPlanner(t, cfg, src, nil)
	res, err := p.Plan(context.Background(), square(t))
	require.NoError(t, err)
	// 1→2 is avoided; the tour runs the square the other way round.
	assert.Equal(t, []int{0, 3, 2, 1, 0}, res.Order())
}

func TestPlan_Infeasible(t *testing.T) {
	blocked := map[costmatrix.Pair]bool{}
	for i := 0; i < 4; i++ {
		if i != 3 {
			blocked[costmatrix.Pair{From: i, To: 3}] = true
		}
	}
	cfg := testConfig()
	cfg.Planner.RejectInvalid = false
	p := newPlanner(t, cfg, &straightSource{blocked: blocked}, nil)

	_, err := p.Plan(context.Background(), square(t))
	require.ErrorIs(t, err, tsp.ErrInfeasibleTour)
}

func TestPlan_SourceError(t *testing.T) {
	boom := errors.New("boom")
	p := newPlanner(t, testConfig(), &straightSource{err: boom}, nil)
	_, err := p.Plan(context.Background(), square(t))
	require.ErrorIs(t, err, boom)
}

func TestPlan_Geometry(t *testing.T) {
	cfg := testConfig()
	cfg.Render.LegGeometry = true
	geo := &stubGeometry{fail: costmatrix.Pair{From: -1}}
	p := newPlanner(t, cfg, &straightSource{}, geo)

	res, err := p.Plan(context.Background(), square(t))
	require.NoError(t, err)
	require.Len(t, res.Geometry, 4)
	legs := res.Route.Legs()
	for k, ls := range res.Geometry {
		require.Len(t, ls, 3)
		assert.Equal(t, res.Locations[legs[k].From].Point, ls[0])
	}
	assert.Len(t, geo.seen, 4)

	// A failed leg stays nil.
	geo = &stubGeometry{fail: legs[1]}
	p = newPlanner(t, cfg, &straightSource{}, geo)
	res, err = p.Plan(context.Background(), square(t))
	require.NoError(t, err)
	assert.Nil(t, res.Geometry[1])
	assert.NotNil(t, res.Geometry[0])

	// Disabled in config: the source is never asked.
	geo = &stubGeometry{}
	p = newPlanner(t, testConfig(), &straightSource{}, geo)
	_, err = p.Plan(context.Background(), square(t))
	require.NoError(t, err)
	assert.Empty(t, geo.seen)
}

func TestPlan_DurationUnit(t *testing.T) {
	cfg := testConfig()
	cfg.Maps.Metric = config.MetricDuration
	p := newPlanner(t, cfg, &straightSource{}, nil)

	res, err := p.Plan(context.Background(), square(t))
	require.NoError(t, err)
	assert.Equal(t, UnitSeconds, res.Unit)
}

func TestNew_InvalidBudget(t *testing.T) {
	cfg := testConfig()
	cfg.Solver.MaxExactN = 0
	_, err := New(cfg, &straightSource{}, nil, log.Nop())
	require.ErrorIs(t, err, tsp.ErrInvalidBudget)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 1.235, round3(1.23456))
	assert.True(t, math.IsInf(round3(math.Inf(1)), 1))
}

func TestDescribePairs(t *testing.T) {
	src := &straightSource{blocked: map[costmatrix.Pair]bool{
		{From: 0, To: 1}: true, {From: 0, To: 2}: true, {From: 1, To: 0}: true, {From: 3, To: 2}: true,
	}}
	m, _, err := src.Matrix(context.Background(), square(t))
	require.NoError(t, err)
	assert.Equal(t, "no route Depot → North, Depot → NorthEast, North → Depot and 1 more", describePairs(m, m.InvalidPairs()))
}
