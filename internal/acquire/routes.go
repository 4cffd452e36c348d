package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/katalvlaran/roadtour/internal/infra/metrics"
	"github.com/katalvlaran/roadtour/location"
)

// Routes API endpoints and field masks.
const (
	matrixPath = "/distanceMatrix/v2:computeRouteMatrix"
	routesPath = "/directions/v2:computeRoutes"

	matrixFieldMask = "originIndex,destinationIndex,distanceMeters,duration,condition,status"
	routesFieldMask = "routes.distanceMeters,routes.duration,routes.polyline.encodedPolyline"

	endpointMatrix = "compute_route_matrix"
	endpointRoutes = "compute_routes"

	conditionExists   = "ROUTE_EXISTS"
	conditionNotFound = "ROUTE_NOT_FOUND"
)

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type waypoint struct {
	Location struct {
		LatLng latLng `json:"latLng"`
	} `json:"location"`
}

func waypointOf(l location.Location) waypoint {
	var w waypoint
	w.Location.LatLng = latLng{Latitude: l.Lat(), Longitude: l.Lon()}

	return w
}

type matrixWaypoint struct {
	Waypoint waypoint `json:"waypoint"`
}

type matrixRequest struct {
	Origins      []matrixWaypoint `json:"origins"`
	Destinations []matrixWaypoint `json:"destinations"`
	TravelMode   string           `json:"travelMode"`
}

// matrixElement is one origin/destination result. Zero indices are omitted
// on the wire, so absent means 0.
type matrixElement struct {
	OriginIndex      int      `json:"originIndex"`
	DestinationIndex int      `json:"destinationIndex"`
	DistanceMeters   *float64 `json:"distanceMeters"`
	Duration         string   `json:"duration"`
	Condition        string   `json:"condition"`
	Status           *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

func (e matrixElement) failed() bool {
	return e.Condition == conditionNotFound || (e.Status != nil && e.Status.Code != 0)
}

// durationSeconds parses the protobuf duration spelling ("160s").
func (e matrixElement) durationSeconds() (float64, bool) {
	if e.Duration == "" {
		return 0, false
	}
	d, err := time.ParseDuration(e.Duration)
	if err != nil {
		return 0, false
	}

	return d.Seconds(), true
}

type routesRequest struct {
	Origin           waypoint `json:"origin"`
	Destination      waypoint `json:"destination"`
	TravelMode       string   `json:"travelMode"`
	PolylineEncoding string   `json:"polylineEncoding"`
}

type routesResponse struct {
	Routes []struct {
		DistanceMeters float64 `json:"distanceMeters"`
		Duration       string  `json:"duration"`
		Polyline       struct {
			EncodedPolyline string `json:"encodedPolyline"`
		} `json:"polyline"`
	} `json:"routes"`
}

// post sends body as JSON to path and decodes the response into out,
// retrying network errors, 429 and 5xx with exponential backoff. Each attempt
// first takes a token from the rate limiter.
func (c *Client) post(ctx context.Context, endpoint, path, fieldMask string, body, out any) error {
	if c.opts.APIKey == "" {
		return ErrNoAPIKey
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			if err = sleepCtx(ctx, c.backoff(attempt)); err != nil {
				return err
			}
		}
		if err = c.limiter.Wait(ctx); err != nil {
			return err
		}
		if err = ctx.Err(); err != nil {
			return err
		}

		retry, err := c.attempt(ctx, endpoint, path, fieldMask, payload, out)
		if err == nil {
			metrics.MapsRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			metrics.MapsRequestsTotal.WithLabelValues(endpoint, "canceled").Inc()
			return cerr
		}
		lastErr = err
		if !retry {
			metrics.MapsRequestsTotal.WithLabelValues(endpoint, "error").Inc()
			return err
		}
		metrics.MapsRequestsTotal.WithLabelValues(endpoint, "retry").Inc()
		c.log.Debug().Err(err).Str("endpoint", endpoint).Int("attempt", attempt+1).Msg("retrying mapping request")
	}
	metrics.MapsRequestsTotal.WithLabelValues(endpoint, "error").Inc()

	return fmt.Errorf("%s after %d attempts: %w", endpoint, c.opts.Retries+1, lastErr)
}

// attempt performs one HTTP round trip and reports whether a failure is retryable.
func (c *Client) attempt(ctx context.Context, endpoint, path, fieldMask string, payload []byte, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.opts.BaseURL, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("%s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.opts.APIKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.MapsRequestSeconds.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		var nerr net.Error
		retry := errors.As(err, &nerr) || errors.Is(err, io.ErrUnexpectedEOF)
		return retry, fmt.Errorf("%s: %v: %w", endpoint, err, ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return retry, fmt.Errorf("%s: HTTP %d: %s: %w", endpoint, resp.StatusCode, strings.TrimSpace(string(msg)), ErrUpstream)
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("%s: decode response: %v: %w", endpoint, err, ErrUpstream)
	}

	return false, nil
}

func (c *Client) backoff(attempt int) time.Duration {
	return c.opts.RetryBase << (attempt - 1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
