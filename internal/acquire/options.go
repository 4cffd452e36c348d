package acquire

import (
	"time"

	"github.com/katalvlaran/roadtour/costmatrix"
	"github.com/katalvlaran/roadtour/internal/config"
)

// defaultTimeout is the per-request timeout when Options.Timeout is unset.
const defaultTimeout = 15 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	TravelMode string
	// Metric is config.MetricDistance (kilometres) or config.MetricDuration (seconds).
	Metric string

	BatchSize         int
	Concurrency       int
	RequestsPerSecond float64
	Burst             int
	Retries           int
	RetryBase         time.Duration
	Timeout           time.Duration

	MissingPolicy costmatrix.MissingPolicy
	DetourFactor  float64
	SpeedMps      float64
}

// OptionsFromConfig maps the maps section of a validated config.
func OptionsFromConfig(c config.Config) (Options, error) {
	policy, err := c.MissingPolicy()
	if err != nil {
		return Options{}, err
	}

	return Options{
		BaseURL:           c.Maps.RoutesBaseURL,
		APIKey:            c.Maps.APIKey,
		TravelMode:        c.Maps.TravelMode,
		Metric:            c.Maps.Metric,
		BatchSize:         c.Maps.BatchSize,
		Concurrency:       c.Maps.Concurrency,
		RequestsPerSecond: c.Maps.RequestsPerSecond,
		Burst:             c.Maps.Burst,
		Retries:           c.Maps.Retries,
		RetryBase:         time.Duration(c.Maps.RetryBaseMs) * time.Millisecond,
		Timeout:           time.Duration(c.Maps.TimeoutSeconds) * time.Second,
		MissingPolicy:     policy,
		DetourFactor:      c.Maps.DetourFactor,
		SpeedMps:          c.Maps.SpeedMps,
	}, nil
}

// metersScale converts meters into the matrix unit for straight-line estimates.
func (o Options) metersScale() float64 {
	if o.Metric == config.MetricDuration {
		return 1 / o.SpeedMps
	}

	return 1.0 / 1000
}
