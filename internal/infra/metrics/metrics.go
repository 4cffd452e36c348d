package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "roadtour"

var (
	OptimizeSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "optimize_seconds", Help: "Solver wall time by solver",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"solver"})
	ToursTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "tours_total", Help: "Planned tours by solver and outcome",
	}, []string{"solver", "outcome"})
	LocalSearchMoves = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "local_search_moves", Help: "Improving moves applied per heuristic tour",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
	TourLocations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "tour_locations", Help: "Locations per planned tour",
		Buckets: prometheus.LinearBuckets(2, 2, 10),
	})

	MapsRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "maps_requests_total", Help: "Mapping service calls by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
	MapsRequestSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "maps_request_seconds", Help: "Mapping service latency by endpoint",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	MatrixElementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "matrix_elements_total", Help: "Matrix elements by resolution (ok, invalid, cached)",
	}, []string{"status"})
	LegCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "leg_cache_total", Help: "Leg cache lookups by result",
	}, []string{"result"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "API requests by route and status code",
	}, []string{"route", "code"})
)

// Init registers the collectors on a fresh registry together with the Go and
// process collectors.
func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		OptimizeSeconds, ToursTotal, LocalSearchMoves, TourLocations,
		MapsRequestsTotal, MapsRequestSeconds, MatrixElementsTotal, LegCacheTotal,
		HTTPRequestsTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		if err := reg.Register(c); err != nil {
			logger.Warn().Err(err).Msg("metric registration failed")
		}
	}
	logger.Debug().Int("collectors", len(toRegister)).Msg("prometheus metrics initialized")

	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
