// Package api serves tour planning over HTTP.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/katalvlaran/roadtour/internal/infra/health"
	"github.com/katalvlaran/roadtour/internal/infra/metrics"
	"github.com/katalvlaran/roadtour/internal/planner"
	"github.com/katalvlaran/roadtour/internal/render"
	"github.com/katalvlaran/roadtour/location"
)

// maxBodyBytes bounds a tour request body.
const maxBodyBytes = 1 << 20

// Planner plans tours. *planner.Planner implements it.
type Planner interface {
	Plan(ctx context.Context, locs []location.Location) (*planner.Result, error)
}

// Route is one entry of the routing table.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// Server holds the handlers' dependencies.
type Server struct {
	planner  Planner
	probe    *health.Probe
	mapOpts  render.MapOptions
	registry *prometheus.Registry
	log      zerolog.Logger
}

// NewServer returns a Server. registry may be nil, which leaves /metrics out;
// a nil probe gets one with no dependency checks.
func NewServer(p Planner, probe *health.Probe, mapOpts render.MapOptions, registry *prometheus.Registry, logger zerolog.Logger) *Server {
	if probe == nil {
		probe = health.New(0)
	}
	return &Server{
		planner:  p,
		probe:    probe,
		mapOpts:  mapOpts,
		registry: registry,
		log:      logger.With().Str("component", "api").Logger(),
	}
}

// Routes returns the routing table.
func (s *Server) Routes() []Route {
	routes := []Route{
		{"PlanTour", http.MethodPost, "/v1/tours", s.PlanTour},
		{"PlanTourMap", http.MethodPost, "/v1/tours/map", s.PlanTourMap},
		{"Healthz", http.MethodGet, "/healthz", health.Healthz},
		{"Readyz", http.MethodGet, "/readyz", s.probe.Readyz},
	}
	if s.registry != nil {
		routes = append(routes, Route{"Metrics", http.MethodGet, "/metrics", metrics.Handler(s.registry).ServeHTTP})
	}

	return routes
}

// Handler builds the gorilla/mux router with request-id and access-log
// middleware.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter().StrictSlash(true)
	for _, rt := range s.Routes() {
		r.Methods(rt.Method).Path(rt.Pattern).Name(rt.Name).Handler(rt.HandlerFunc)
	}
	r.Use(RequestID(s.log), AccessLog)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Output formats of PlanTour.
const (
	FormatJSON    = "json"
	FormatGeoJSON = "geojson"
)

// TourRequest is the body of both tour endpoints.
type TourRequest struct {
	Locations []location.Entry `json:"locations"`
	Format    string           `json:"format,omitempty"`
	Title     string           `json:"title,omitempty"`
}

// TourResponse is the JSON answer of PlanTour.
type TourResponse struct {
	RequestID string `json:"request_id"`
	Route     []int  `json:"route"`
	*planner.Result
}

// PlanTour - POST /v1/tours
func (s *Server) PlanTour(w http.ResponseWriter, r *http.Request) {
	req, locs, ok := s.decode(w, r)
	if !ok {
		return
	}
	format := strings.ToLower(req.Format)
	if format != "" && format != FormatJSON && format != FormatGeoJSON {
		writeError(w, http.StatusBadRequest, "format must be json or geojson")
		return
	}

	res, err := s.planner.Plan(r.Context(), locs)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if format == FormatGeoJSON {
		w.Header().Set("Content-Type", "application/geo+json")
		encodeJSON(w, http.StatusOK, render.GeoJSON(res, s.mapOpts.Tolerance))
		return
	}
	writeJSON(w, http.StatusOK, TourResponse{
		RequestID: GetRequestID(r.Context()),
		Route:     res.Order(),
		Result:    res,
	})
}

// PlanTourMap - POST /v1/tours/map
func (s *Server) PlanTourMap(w http.ResponseWriter, r *http.Request) {
	req, locs, ok := s.decode(w, r)
	if !ok {
		return
	}
	res, err := s.planner.Plan(r.Context(), locs)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	opts := s.mapOpts
	if req.Title != "" {
		opts.Title = req.Title
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err = render.HTML(w, res, opts); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render map")
	}
}
