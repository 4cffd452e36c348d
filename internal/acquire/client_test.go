package acquire

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/roadtour/costmatrix"
	"github.com/katalvlaran/roadtour/internal/config"
	"github.com/katalvlaran/roadtour/internal/infra/log"
	"github.com/katalvlaran/roadtour/internal/store"
	"github.com/katalvlaran/roadtour/location"
)

const testKey = "test-key"

// line returns n locations 0.01° of latitude apart; indexOf inverts it.
func line(t *testing.T, n int) []location.Location {
	t.Helper()
	locs := make([]location.Location, n)
	for i := range locs {
		l, err := location.New(i, "", 50+0.01*float64(i), 10)
		require.NoError(t, err)
		locs[i] = l
	}

	return locs
}

func indexOf(lat float64) int { return int(math.Round((lat - 50) / 0.01)) }

// element builds a wire element the way the service does: zero fields omitted.
type element map[string]any

// matrixServer answers computeRouteMatrix with fn(i, j) per element, where
// i and j are global location indices.
type matrixServer struct {
	t        *testing.T
	fn       func(i, j int) element
	requests atomic.Int32
}

func (s *matrixServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	assert.Equal(s.t, matrixPath, r.URL.Path)
	assert.Equal(s.t, testKey, r.Header.Get("X-Goog-Api-Key"))
	assert.Equal(s.t, matrixFieldMask, r.Header.Get("X-Goog-FieldMask"))

	var req matrixRequest
	if !assert.NoError(s.t, json.NewDecoder(r.Body).Decode(&req)) {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	out := []element{}
	for oi, o := range req.Origins {
		for di, d := range req.Destinations {
			e := s.fn(indexOf(o.Waypoint.Location.LatLng.Latitude), indexOf(d.Waypoint.Location.LatLng.Latitude))
			if e == nil {
				continue
			}
			if oi != 0 {
				e["originIndex"] = oi
			}
			if di != 0 {
				e["destinationIndex"] = di
			}
			out = append(out, e)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// asymCost is 1000·(1+i) + 10·j meters, so i→j costs 1+i+0.01j km.
func asymCost(i, j int) element {
	if i == j {
		return element{"condition": conditionExists}
	}

	return element{
		"condition":      conditionExists,
		"distanceMeters": 1000*(1+i) + 10*j,
		"duration":       "60s",
	}
}

func testOptions(url string) Options {
	return Options{
		BaseURL:           url,
		APIKey:            testKey,
		TravelMode:        "DRIVE",
		Metric:            config.MetricDistance,
		BatchSize:         2,
		Concurrency:       3,
		RequestsPerSecond: 1000,
		Burst:             10,
		Retries:           2,
		RetryBase:         time.Millisecond,
		Timeout:           5 * time.Second,
		MissingPolicy:     costmatrix.MissingInvalid,
		DetourFactor:      1.3,
		SpeedMps:          10,
	}
}

func newServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return srv
}

type memCache struct {
	mu   sync.Mutex
	legs map[store.Key]store.Leg
	puts int
}

func newMemCache() *memCache { return &memCache{legs: make(map[store.Key]store.Leg)} }

func (c *memCache) Get(_ context.Context, keys []store.Key) (map[store.Key]store.Leg, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[store.Key]store.Leg)
	for _, k := range keys {
		if l, ok := c.legs[k]; ok {
			out[k] = l
		}
	}

	return out, nil
}

func (c *memCache) Put(_ context.Context, legs []store.Leg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	for _, l := range legs {
		c.legs[l.Key] = l
	}

	return nil
}

func TestMatrix_TilesAndCosts(t *testing.T) {
	ms := &matrixServer{t: t, fn: asymCost}
	srv := newServer(t, ms)
	c := New(testOptions(srv.URL), nil, nil, log.Nop())

	locs := line(t, 3)
	m, st, err := c.Matrix(context.Background(), locs)
	require.NoError(t, err)

	// 2×2 tiles over 3 locations; the [2:3)×[2:3) tile holds only a self pair.
	assert.Equal(t, 3, st.Tiles)
	assert.Equal(t, int32(3), ms.requests.Load())
	assert.Equal(t, 6, st.Pairs)
	assert.Equal(t, 6, st.Fetched)
	assert.Zero(t, st.Pending)
	require.True(t, m.Complete())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j {
				assert.InDelta(t, 1+float64(i)+0.01*float64(j), m.Cost(i, j), 1e-9, "%d→%d", i, j)
			}
		}
	}
	assert.Equal(t, "Point 1", m.Label(1))
}

func TestMatrix_DurationMetric(t *testing.T) {
	srv := newServer(t, &matrixServer{t: t, fn: asymCost})
	opts := testOptions(srv.URL)
	opts.Metric = config.MetricDuration
	c := New(opts, nil, nil, log.Nop())

	m, _, err := c.Matrix(context.Background(), line(t, 2))
	require.NoError(t, err)
	assert.Equal(t, 60.0, m.Cost(0, 1))
	assert.Equal(t, 60.0, m.Cost(1, 0))
}

func TestMatrix_ZeroFieldsOmitted(t *testing.T) {
	// Both locations share coordinates: the service reports ROUTE_EXISTS with
	// no distance at all.
	srv := newServer(t, &matrixServer{t: t, fn: func(i, j int) element {
		return element{"condition": conditionExists}
	}})
	c := New(testOptions(srv.URL), nil, nil, log.Nop())

	m, st, err := c.Matrix(context.Background(), line(t, 2))
	require.NoError(t, err)
	assert.True(t, m.Valid(0, 1))
	assert.Zero(t, m.Cost(0, 1))
	assert.Equal(t, 2, st.Fetched)
}

func TestMatrix_UnroutableAndMissing(t *testing.T) {
	srv := newServer(t, &matrixServer{t: t, fn: func(i, j int) element {
		switch {
		case i == 0 && j == 1:
			return element{"condition": conditionNotFound}
		case i == 1 && j == 2:
			return element{"status": map[string]any{"code": 5, "message": "not found"}}
		case i == 2 && j == 0:
			return nil // no element at all
		}
		return asymCost(i, j)
	}})

	for _, tc := range []struct {
		policy  costmatrix.MissingPolicy
		valid20 bool
	}{
		{costmatrix.MissingInvalid, false},
		{costmatrix.MissingEstimate, true},
	} {
		t.Run(tc.policy.String(), func(t *testing.T) {
			opts := testOptions(srv.URL)
			opts.MissingPolicy = tc.policy
			c := New(opts, nil, nil, log.Nop())

			m, st, err := c.Matrix(context.Background(), line(t, 3))
			require.NoError(t, err)
			assert.Equal(t, 2, st.Invalid)
			assert.Equal(t, 1, st.Pending)
			assert.False(t, m.Valid(0, 1))
			assert.False(t, m.Valid(1, 2))
			assert.Equal(t, tc.valid20, m.Valid(2, 0))
			if tc.valid20 {
				// 0.02° latitude ≈ 2.2 km straight line, times the detour factor.
				assert.InDelta(t, 2.2*1.3, m.Cost(2, 0), 0.05)
			}
		})
	}

	opts := testOptions(srv.URL)
	opts.MissingPolicy = costmatrix.MissingReject
	_, _, err := New(opts, nil, nil, log.Nop()).Matrix(context.Background(), line(t, 3))
	require.ErrorIs(t, err, costmatrix.ErrUnresolved)
}

func TestMatrix_UsesCache(t *testing.T) {
	ms := &matrixServer{t: t, fn: asymCost}
	srv := newServer(t, ms)
	cache := newMemCache()
	c := New(testOptions(srv.URL), nil, cache, log.Nop())
	locs := line(t, 3)

	first, st, err := c.Matrix(context.Background(), locs)
	require.NoError(t, err)
	assert.Zero(t, st.Cached)
	assert.Len(t, cache.legs, 6)
	assert.Equal(t, 1, cache.puts)
	before := ms.requests.Load()

	second, st, err := c.Matrix(context.Background(), locs)
	require.NoError(t, err)
	assert.Equal(t, 6, st.Cached)
	assert.Zero(t, st.Tiles)
	assert.Equal(t, before, ms.requests.Load())
	assert.Equal(t, 1, cache.puts)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, first.Cost(i, j), second.Cost(i, j))
		}
	}
}

func TestMatrix_CachedUnroutable(t *testing.T) {
	cache := newMemCache()
	locs := line(t, 2)
	c := New(testOptions("http://127.0.0.1:0"), nil, cache, log.Nop())
	_ = cache.Put(context.Background(), []store.Leg{
		{Key: c.key(locs[0], locs[1])},
		{Key: c.key(locs[1], locs[0]), Routable: true, DistanceMeters: 2500},
	})

	m, st, err := c.Matrix(context.Background(), locs)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Cached)
	assert.Equal(t, 1, st.Invalid)
	assert.False(t, m.Valid(0, 1))
	assert.Equal(t, 2.5, m.Cost(1, 0))
}

func TestMatrix_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ms := &matrixServer{t: t, fn: asymCost}
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		ms.ServeHTTP(w, r)
	}))
	c := New(testOptions(srv.URL), nil, nil, log.Nop())

	m, _, err := c.Matrix(context.Background(), line(t, 2))
	require.NoError(t, err)
	assert.True(t, m.Complete())
	assert.Equal(t, int32(2), calls.Load())
}

func TestMatrix_FailsFastOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"code":400}}`, http.StatusBadRequest)
	}))
	c := New(testOptions(srv.URL), nil, nil, log.Nop())

	_, _, err := c.Matrix(context.Background(), line(t, 2))
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "HTTP 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestMatrix_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	c := New(testOptions(srv.URL), nil, nil, log.Nop())

	_, _, err := c.Matrix(context.Background(), line(t, 2))
	require.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMatrix_NoAPIKey(t *testing.T) {
	opts := testOptions("http://127.0.0.1:0")
	opts.APIKey = ""
	_, _, err := New(opts, nil, nil, log.Nop()).Matrix(context.Background(), line(t, 2))
	require.ErrorIs(t, err, ErrNoAPIKey)

	// A single location needs no request.
	m, _, err := New(opts, nil, nil, log.Nop()).Matrix(context.Background(), line(t, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, m.N())
}

func TestMatrix_Canceled(t *testing.T) {
	srv := newServer(t, &matrixServer{t: t, fn: asymCost})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(testOptions(srv.URL), nil, nil, log.Nop()).Matrix(ctx, line(t, 2))
	require.ErrorIs(t, err, context.Canceled)
}

// gatedServer holds the first request until release is closed.
type gatedServer struct {
	next    http.Handler
	arrived chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if g.calls.Add(1) == 1 {
		close(g.arrived)
		<-g.release
	}
	g.next.ServeHTTP(w, r)
}

func TestMatrix_SharedTileOutlivesCanceledCaller(t *testing.T) {
	gate := &gatedServer{
		next:    &matrixServer{t: t, fn: asymCost},
		arrived: make(chan struct{}),
		release: make(chan struct{}),
	}
	srv := newServer(t, gate)
	release := sync.OnceFunc(func() { close(gate.release) })
	t.Cleanup(release)

	c := New(testOptions(srv.URL), nil, nil, log.Nop())
	locs := line(t, 2)

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.Matrix(first, locs)
		firstErr <- err
	}()
	<-gate.arrived

	type result struct {
		m   *costmatrix.Matrix
		st  Stats
		err error
	}
	second := make(chan result, 1)
	go func() {
		m, st, err := c.Matrix(context.Background(), locs)
		second <- result{m, st, err}
	}()
	time.Sleep(50 * time.Millisecond) // the second caller joins the held tile

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	release()
	res := <-second
	require.NoError(t, res.err)
	assert.Zero(t, res.st.Requests)
	assert.Equal(t, int32(1), gate.calls.Load())
	assert.InDelta(t, 1.01, res.m.Cost(0, 1), 1e-9)
	assert.InDelta(t, 2.0, res.m.Cost(1, 0), 1e-9)
}

func TestFetchBudget(t *testing.T) {
	o := testOptions("")
	assert.Equal(t, 3*5*time.Second+3*time.Millisecond, New(o, nil, nil, log.Nop()).fetchBudget())

	o.Timeout, o.Retries = 0, 0
	assert.Equal(t, defaultTimeout, New(o, nil, nil, log.Nop()).fetchBudget())
}

func TestTileKey(t *testing.T) {
	locs := line(t, 2)
	a := matrixRequest{TravelMode: "DRIVE", Origins: []matrixWaypoint{{waypointOf(locs[0])}}, Destinations: []matrixWaypoint{{waypointOf(locs[1])}}}
	b := matrixRequest{TravelMode: "DRIVE", Origins: []matrixWaypoint{{waypointOf(locs[1])}}, Destinations: []matrixWaypoint{{waypointOf(locs[0])}}}
	assert.Equal(t, "DRIVE;50.000000,10.000000|;50.010000,10.000000", tileKey(a))
	assert.NotEqual(t, tileKey(a), tileKey(b))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Maps.APIKey = "k"
	cfg.Maps.MissingPolicy = "estimate"

	o, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "k", o.APIKey)
	assert.Equal(t, costmatrix.MissingEstimate, o.MissingPolicy)
	assert.Equal(t, 200*time.Millisecond, o.RetryBase)
	assert.InDelta(t, 0.001, o.metersScale(), 1e-12)

	o.Metric = config.MetricDuration
	assert.InDelta(t, 1/cfg.Maps.SpeedMps, o.metersScale(), 1e-12)

	cfg.Maps.MissingPolicy = "guess"
	_, err = OptionsFromConfig(cfg)
	require.Error(t, err)
}
