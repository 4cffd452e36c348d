package acquire

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/katalvlaran/roadtour/costmatrix"
	"github.com/katalvlaran/roadtour/internal/config"
	"github.com/katalvlaran/roadtour/internal/infra/metrics"
	"github.com/katalvlaran/roadtour/internal/infra/network"
	"github.com/katalvlaran/roadtour/internal/store"
	"github.com/katalvlaran/roadtour/location"
)

// Cache is the leg cache consulted by Matrix. *store.Store implements it.
type Cache interface {
	Get(ctx context.Context, keys []store.Key) (map[store.Key]store.Leg, error)
	Put(ctx context.Context, legs []store.Leg) error
}

// Client fetches cost matrices and leg geometry. Safe for concurrent use.
type Client struct {
	opts    Options
	http    *http.Client
	cache   Cache
	limiter *network.TokenBucket
	group   singleflight.Group
	log     zerolog.Logger
}

// New returns a Client. A nil httpClient gets network.NewHTTPClient with
// opts.Timeout; a nil cache disables caching.
func New(opts Options, httpClient *http.Client, cache Cache, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = network.NewHTTPClient(opts.Timeout)
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 25
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	return &Client{
		opts:    opts,
		http:    httpClient,
		cache:   cache,
		limiter: network.NewTokenBucket(opts.Burst, opts.RequestsPerSecond),
		log:     logger.With().Str("component", "acquire").Logger(),
	}
}

// Stats describes how a matrix was assembled.
type Stats struct {
	Pairs    int // off-diagonal pairs
	Cached   int // resolved from the leg cache
	Fetched  int // resolved by the mapping service
	Invalid  int // reported as unroutable (cached or fetched)
	Pending  int // left to the missing policy
	Tiles    int // tiles requested
	Requests int // tiles actually sent (after coalescing)
}

type tile struct {
	originLo, originHi int
	destLo, destHi     int
}

// Matrix returns the cost matrix of locs in the configured metric.
//
// Errors: ErrNoAPIKey when a request is needed without a key, ErrUpstream for
// failed requests, costmatrix errors from Build, ctx errors.
func (c *Client) Matrix(ctx context.Context, locs []location.Location) (*costmatrix.Matrix, Stats, error) {
	n := len(locs)
	b, err := costmatrix.NewBuilder(n,
		costmatrix.WithLabels(location.Labels(locs)...),
		costmatrix.WithMissingPolicy(c.opts.MissingPolicy),
		costmatrix.WithEstimator(location.Estimator(locs, c.opts.DetourFactor, c.opts.metersScale())),
	)
	if err != nil {
		return nil, Stats{}, err
	}
	st := Stats{Pairs: n * (n - 1)}

	if err = c.fromCache(ctx, b, locs, &st); err != nil {
		return nil, st, err
	}

	tiles := c.tiles(b, n)
	st.Tiles = len(tiles)

	var (
		mu    sync.Mutex
		fresh []store.Leg
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for _, t := range tiles {
		t := t
		g.Go(func() error {
			elems, shared, err := c.fetchTile(gctx, locs, t)
			if err != nil {
				return err
			}
			legs, fetched, invalid := c.apply(b, locs, t, elems)

			mu.Lock()
			defer mu.Unlock()
			if !shared {
				st.Requests++
			}
			st.Fetched += fetched
			st.Invalid += invalid
			fresh = append(fresh, legs...)

			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, st, err
	}

	if c.cache != nil && len(fresh) > 0 {
		if perr := c.cache.Put(ctx, fresh); perr != nil {
			c.log.Warn().Err(perr).Int("legs", len(fresh)).Msg("leg cache write failed")
		}
	}

	st.Pending = b.Pending()
	metrics.MatrixElementsTotal.WithLabelValues("cached").Add(float64(st.Cached))
	metrics.MatrixElementsTotal.WithLabelValues("fetched").Add(float64(st.Fetched))
	metrics.MatrixElementsTotal.WithLabelValues("invalid").Add(float64(st.Invalid))
	metrics.MatrixElementsTotal.WithLabelValues("pending").Add(float64(st.Pending))

	m, err := b.Build()
	if err != nil {
		return nil, st, err
	}
	c.log.Debug().
		Int("n", n).
		Int("cached", st.Cached).
		Int("fetched", st.Fetched).
		Int("invalid", st.Invalid).
		Int("pending", st.Pending).
		Int("requests", st.Requests).
		Msg("cost matrix assembled")

	return m, st, nil
}

// fromCache resolves every pair the cache knows. Lookup failures are logged
// and treated as misses.
func (c *Client) fromCache(ctx context.Context, b *costmatrix.Builder, locs []location.Location, st *Stats) error {
	if c.cache == nil || len(locs) < 2 {
		return nil
	}
	keys := make([]store.Key, 0, st.Pairs)
	for i := range locs {
		for j := range locs {
			if i != j {
				keys = append(keys, c.key(locs[i], locs[j]))
			}
		}
	}
	hits, err := c.cache.Get(ctx, keys)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Msg("leg cache lookup failed")
		hits = nil
	}

	for i := range locs {
		for j := range locs {
			if i == j {
				continue
			}
			leg, ok := hits[c.key(locs[i], locs[j])]
			if !ok {
				continue
			}
			if !leg.Routable {
				err = b.MarkInvalid(i, j)
				st.Invalid++
			} else {
				err = b.Set(i, j, c.legCost(leg))
			}
			if err != nil {
				return err
			}
			st.Cached++
		}
	}
	metrics.LegCacheTotal.WithLabelValues("hit").Add(float64(st.Cached))
	metrics.LegCacheTotal.WithLabelValues("miss").Add(float64(len(keys) - st.Cached))

	return nil
}

// tiles splits the matrix into BatchSize×BatchSize blocks and keeps those
// with at least one pending off-diagonal pair.
func (c *Client) tiles(b *costmatrix.Builder, n int) []tile {
	bs := c.opts.BatchSize
	var out []tile
	for lo := 0; lo < n; lo += bs {
		for dlo := 0; dlo < n; dlo += bs {
			t := tile{originLo: lo, originHi: min(lo+bs, n), destLo: dlo, destHi: min(dlo+bs, n)}
			if tilePending(b, t) {
				out = append(out, t)
			}
		}
	}

	return out
}

func tilePending(b *costmatrix.Builder, t tile) bool {
	for i := t.originLo; i < t.originHi; i++ {
		for j := t.destLo; j < t.destHi; j++ {
			if i != j && b.IsPending(i, j) {
				return true
			}
		}
	}

	return false
}

// fetchTile requests one tile. shared reports that another caller's
// identical request supplied the result.
//
// The request runs detached from any one caller, bounded by fetchBudget, so a
// caller that goes away does not fail the others waiting on the same tile.
func (c *Client) fetchTile(ctx context.Context, locs []location.Location, t tile) ([]matrixElement, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	req := matrixRequest{TravelMode: c.opts.TravelMode}
	for i := t.originLo; i < t.originHi; i++ {
		req.Origins = append(req.Origins, matrixWaypoint{Waypoint: waypointOf(locs[i])})
	}
	for j := t.destLo; j < t.destHi; j++ {
		req.Destinations = append(req.Destinations, matrixWaypoint{Waypoint: waypointOf(locs[j])})
	}

	ch := c.group.DoChan(tileKey(req), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchBudget())
		defer cancel()

		var elems []matrixElement
		if err := c.post(fctx, endpointMatrix, matrixPath, matrixFieldMask, req, &elems); err != nil {
			return nil, err
		}
		return elems, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Shared, fmt.Errorf("tile %s: %w", t, res.Err)
		}
		return res.Val.([]matrixElement), res.Shared, nil
	}
}

// fetchBudget bounds one detached tile fetch: every attempt at the request
// timeout plus the backoff between attempts.
func (c *Client) fetchBudget() time.Duration {
	per := c.opts.Timeout
	if per <= 0 {
		per = defaultTimeout
	}
	d := per * time.Duration(c.opts.Retries+1)
	for a := 1; a <= c.opts.Retries; a++ {
		d += c.backoff(a)
	}

	return d
}

// apply writes the elements of one tile into b and returns the legs to cache.
func (c *Client) apply(b *costmatrix.Builder, locs []location.Location, t tile, elems []matrixElement) (legs []store.Leg, fetched, invalid int) {
	for _, e := range elems {
		i, j := t.originLo+e.OriginIndex, t.destLo+e.DestinationIndex
		if i < t.originLo || i >= t.originHi || j < t.destLo || j >= t.destHi {
			c.log.Warn().Int("origin", e.OriginIndex).Int("destination", e.DestinationIndex).Msg("matrix element outside its tile")
			continue
		}
		if i == j {
			continue
		}

		leg := store.Leg{Key: c.key(locs[i], locs[j])}
		if e.failed() {
			if err := b.MarkInvalid(i, j); err == nil {
				invalid++
				fetched++
				legs = append(legs, leg)
			}
			continue
		}

		dur, hasDur := e.durationSeconds()
		hasDist := e.DistanceMeters != nil
		if hasDist {
			leg.DistanceMeters = *e.DistanceMeters
		}
		leg.DurationSeconds = dur
		if e.Condition == conditionExists {
			// zero values are omitted on the wire
			hasDist, hasDur = true, true
		}
		if (c.opts.Metric == config.MetricDuration && !hasDur) || (c.opts.Metric != config.MetricDuration && !hasDist) {
			continue
		}

		leg.Routable = true
		if err := b.Set(i, j, c.legCost(leg)); err != nil {
			c.log.Warn().Err(err).Int("from", i).Int("to", j).Msg("rejected matrix element")
			continue
		}
		fetched++
		legs = append(legs, leg)
	}

	return legs, fetched, invalid
}

func (c *Client) key(from, to location.Location) store.Key {
	return store.NewKey(from.Point, to.Point, c.opts.TravelMode)
}

// legCost is the matrix entry of a routable leg in the configured metric.
func (c *Client) legCost(l store.Leg) float64 {
	if c.opts.Metric == config.MetricDuration {
		return l.DurationSeconds
	}

	return l.DistanceMeters / 1000
}

// tileKey identifies a tile request by travel mode and coordinates.
func tileKey(r matrixRequest) string {
	var sb strings.Builder
	sb.WriteString(r.TravelMode)
	write := func(ws []matrixWaypoint) {
		for _, w := range ws {
			ll := w.Waypoint.Location.LatLng
			sb.WriteByte(';')
			sb.WriteString(strconv.FormatFloat(ll.Latitude, 'f', 6, 64))
			sb.WriteByte(',')
			sb.WriteString(strconv.FormatFloat(ll.Longitude, 'f', 6, 64))
		}
	}
	write(r.Origins)
	sb.WriteByte('|')
	write(r.Destinations)

	return sb.String()
}

func (t tile) String() string {
	return fmt.Sprintf("[%d:%d)x[%d:%d)", t.originLo, t.originHi, t.destLo, t.destHi)
}
