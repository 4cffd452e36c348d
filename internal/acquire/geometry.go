package acquire

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/katalvlaran/roadtour/location"
)

// LegGeometry returns the road path from → to as decoded from the first
// route's encoded polyline.
//
// Errors: ErrNoRoute when the service returns no route, ErrPolyline for a
// malformed polyline, plus the request errors of Matrix.
func (c *Client) LegGeometry(ctx context.Context, from, to location.Location) (orb.LineString, error) {
	req := routesRequest{
		Origin:           waypointOf(from),
		Destination:      waypointOf(to),
		TravelMode:       c.opts.TravelMode,
		PolylineEncoding: "ENCODED_POLYLINE",
	}
	var resp routesResponse
	if err := c.post(ctx, endpointRoutes, routesPath, routesFieldMask, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 || resp.Routes[0].Polyline.EncodedPolyline == "" {
		return nil, fmt.Errorf("%s → %s: %w", from, to, ErrNoRoute)
	}

	ls, err := DecodePolyline(resp.Routes[0].Polyline.EncodedPolyline)
	if err != nil {
		return nil, fmt.Errorf("%s → %s: %w", from, to, err)
	}

	return ls, nil
}
