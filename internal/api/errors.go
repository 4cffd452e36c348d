package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/katalvlaran/roadtour/costmatrix"
	"github.com/katalvlaran/roadtour/internal/acquire"
	"github.com/katalvlaran/roadtour/internal/planner"
	"github.com/katalvlaran/roadtour/location"
	"github.com/katalvlaran/roadtour/tsp"
)

// ParsingError wraps a malformed request body.
type ParsingError struct {
	Err error
}

func (e *ParsingError) Error() string { return "parsing request body: " + e.Err.Error() }

func (e *ParsingError) Unwrap() error { return e.Err }

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusOf maps an error to its HTTP status code.
func statusOf(err error) int {
	var pe *ParsingError
	switch {
	case errors.As(err, &pe),
		errors.Is(err, location.ErrLatitudeRange),
		errors.Is(err, location.ErrLongitudeRange),
		errors.Is(err, location.ErrNotFinite),
		errors.Is(err, location.ErrDuplicateLabel),
		errors.Is(err, planner.ErrTooFewPoints),
		errors.Is(err, planner.ErrTooManyPoints),
		errors.Is(err, costmatrix.ErrInvalidMatrix),
		errors.Is(err, costmatrix.ErrBadOption):
		return http.StatusBadRequest
	case errors.Is(err, tsp.ErrInfeasibleTour),
		errors.Is(err, planner.ErrUnreachable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, acquire.ErrUpstream),
		errors.Is(err, acquire.ErrNoAPIKey):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// client went away
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the mapped error. Internal and upstream details are logged,
// not returned.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	msg := err.Error()
	lg := zerolog.Ctx(r.Context())
	switch {
	case code >= http.StatusInternalServerError:
		lg.Error().Err(err).Int("status", code).Msg("request failed")
		msg = http.StatusText(code)
		if code == http.StatusBadGateway {
			msg = "mapping service unavailable"
		}
	default:
		lg.Debug().Err(err).Int("status", code).Msg("request rejected")
	}
	writeJSON(w, code, ErrorResponse{Error: msg, RequestID: GetRequestID(r.Context())})
}

// decode reads a TourRequest and converts its locations. It writes the error
// response itself and reports false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request) (TourRequest, []location.Location, bool) {
	var req TourRequest
	d := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	d.DisallowUnknownFields()
	if err := d.Decode(&req); err != nil {
		s.fail(w, r, &ParsingError{Err: err})
		return req, nil, false
	}
	locs, err := location.FromEntries(req.Locations)
	if err != nil {
		s.fail(w, r, fmt.Errorf("locations: %w", err))
		return req, nil, false
	}

	return req, locs, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	encodeJSON(w, code, v)
}

func encodeJSON(w http.ResponseWriter, code int, v any) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}
