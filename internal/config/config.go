package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/roadtour/costmatrix"
	"github.com/katalvlaran/roadtour/tsp"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Metric values for Maps.Metric.
const (
	MetricDistance = "distance" // kilometres
	MetricDuration = "duration" // seconds
)

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                   string `yaml:"addr"`
		ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds     int    `yaml:"idle_timeout_seconds"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	} `yaml:"server"`
	Solver struct {
		MaxExactN      int     `yaml:"max_exact_n"`
		IterationLimit int     `yaml:"iteration_limit"`
		TimeLimitMs    int     `yaml:"time_limit_ms"`
		Eps            float64 `yaml:"eps"`
	} `yaml:"solver"`
	Maps struct {
		RoutesBaseURL     string  `yaml:"routes_base_url"`
		APIKey            string  `yaml:"api_key"`
		TravelMode        string  `yaml:"travel_mode"`
		Metric            string  `yaml:"metric"`
		BatchSize         int     `yaml:"batch_size"`
		Concurrency       int     `yaml:"concurrency"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		Retries           int     `yaml:"retries"`
		RetryBaseMs       int     `yaml:"retry_base_ms"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		MissingPolicy     string  `yaml:"missing_policy"`
		DetourFactor      float64 `yaml:"detour_factor"`
		SpeedMps          float64 `yaml:"speed_mps"`
	} `yaml:"maps"`
	Cache struct {
		Enabled  bool   `yaml:"enabled"`
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		TTLHours int    `yaml:"ttl_hours"`
	} `yaml:"cache"`
	Planner struct {
		MinPoints     int  `yaml:"min_points"`
		MaxPoints     int  `yaml:"max_points"`
		RejectInvalid bool `yaml:"reject_invalid"`
	} `yaml:"planner"`
	Render struct {
		TileURL           string  `yaml:"tile_url"`
		Attribution       string  `yaml:"attribution"`
		SimplifyTolerance float64 `yaml:"simplify_tolerance"`
		LegGeometry       bool    `yaml:"leg_geometry"`
	} `yaml:"render"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Logging.Level = "info"
	c.Server.Addr = ":8080"
	c.Server.ReadTimeoutSeconds = 10
	c.Server.WriteTimeoutSeconds = 60
	c.Server.IdleTimeoutSeconds = 120
	c.Server.ShutdownTimeoutSeconds = 15
	c.Solver.MaxExactN = tsp.DefaultMaxExactN
	c.Solver.IterationLimit = tsp.DefaultIterationLimit
	c.Solver.TimeLimitMs = 2000
	c.Solver.Eps = tsp.DefaultEps
	c.Maps.RoutesBaseURL = "https://routes.googleapis.com"
	c.Maps.TravelMode = "DRIVE"
	c.Maps.Metric = MetricDistance
	c.Maps.BatchSize = 25
	c.Maps.Concurrency = 4
	c.Maps.RequestsPerSecond = 10
	c.Maps.Burst = 4
	c.Maps.Retries = 3
	c.Maps.RetryBaseMs = 200
	c.Maps.TimeoutSeconds = 15
	c.Maps.MissingPolicy = costmatrix.MissingInvalid.String()
	c.Maps.DetourFactor = 1.3
	c.Maps.SpeedMps = 13.9 // ~50 km/h
	c.Cache.Enabled = true
	c.Cache.Driver = "sqlite"
	c.Cache.DSN = "roadtour.db"
	c.Cache.TTLHours = 24 * 30
	c.Planner.MinPoints = 2
	c.Planner.MaxPoints = 20
	c.Planner.RejectInvalid = true
	c.Render.TileURL = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	c.Render.Attribution = "&copy; OpenStreetMap contributors"
	c.Render.SimplifyTolerance = 0.00005
	c.Render.LegGeometry = true

	return c
}

// Load returns Default, overlaid by the YAML file at path (or at
// $ROADTOUR_CONFIG when path is empty), overlaid by environment variables,
// and validated. A missing file is an error only when one was named.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		path = os.Getenv("ROADTOUR_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err = yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ROADTOUR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ROADTOUR_LOG_PRETTY"); v != "" {
		c.Logging.Pretty = v == "1" || v == "true"
	}
	if v := os.Getenv("ROADTOUR_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	// ROADTOUR_API_KEY wins over the shared Google variable.
	if v := os.Getenv("GOOGLE_MAPS_API_KEY"); v != "" {
		c.Maps.APIKey = v
	}
	if v := os.Getenv("ROADTOUR_API_KEY"); v != "" {
		c.Maps.APIKey = v
	}
	if v := os.Getenv("ROADTOUR_ROUTES_BASE_URL"); v != "" {
		c.Maps.RoutesBaseURL = v
	}
	if v := os.Getenv("ROADTOUR_TRAVEL_MODE"); v != "" {
		c.Maps.TravelMode = strings.ToUpper(v)
	}
	if v := os.Getenv("ROADTOUR_METRIC"); v != "" {
		c.Maps.Metric = strings.ToLower(v)
	}
	if v := os.Getenv("ROADTOUR_MISSING_POLICY"); v != "" {
		c.Maps.MissingPolicy = v
	}
	if v := os.Getenv("ROADTOUR_DB_DRIVER"); v != "" {
		c.Cache.Driver = v
	}
	if v := os.Getenv("ROADTOUR_DB_DSN"); v != "" {
		c.Cache.DSN = v
	}
	if v := os.Getenv("ROADTOUR_CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = v == "1" || v == "true"
	}
	for name, dst := range map[string]*int{
		"ROADTOUR_MAX_EXACT_N":     &c.Solver.MaxExactN,
		"ROADTOUR_ITERATION_LIMIT": &c.Solver.IterationLimit,
		"ROADTOUR_TIME_LIMIT_MS":   &c.Solver.TimeLimitMs,
		"ROADTOUR_MAX_POINTS":      &c.Planner.MaxPoints,
		"ROADTOUR_CONCURRENCY":     &c.Maps.Concurrency,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", name, v, ErrInvalid)
		}
		*dst = n
	}

	return nil
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	if err := c.Budget().Validate(); err != nil {
		return fmt.Errorf("solver: %w: %w", err, ErrInvalid)
	}
	switch c.Maps.Metric {
	case MetricDistance, MetricDuration:
	default:
		return fmt.Errorf("maps.metric %q (want %s or %s): %w", c.Maps.Metric, MetricDistance, MetricDuration, ErrInvalid)
	}
	if _, err := c.MissingPolicy(); err != nil {
		return fmt.Errorf("maps.missing_policy: %w: %w", err, ErrInvalid)
	}
	if c.Maps.BatchSize < 1 || c.Maps.BatchSize > 25 {
		return fmt.Errorf("maps.batch_size %d outside [1,25]: %w", c.Maps.BatchSize, ErrInvalid)
	}
	if c.Maps.Concurrency < 1 {
		return fmt.Errorf("maps.concurrency %d: %w", c.Maps.Concurrency, ErrInvalid)
	}
	if c.Maps.RequestsPerSecond <= 0 || c.Maps.Burst < 1 {
		return fmt.Errorf("maps rate %v/s burst %d: %w", c.Maps.RequestsPerSecond, c.Maps.Burst, ErrInvalid)
	}
	if c.Maps.Retries < 0 || c.Maps.TimeoutSeconds < 1 {
		return fmt.Errorf("maps retries %d timeout %ds: %w", c.Maps.Retries, c.Maps.TimeoutSeconds, ErrInvalid)
	}
	if c.Maps.DetourFactor < 1 || c.Maps.SpeedMps <= 0 {
		return fmt.Errorf("maps detour %v speed %v: %w", c.Maps.DetourFactor, c.Maps.SpeedMps, ErrInvalid)
	}
	if c.Cache.Enabled {
		switch c.Cache.Driver {
		case "sqlite", "mysql":
		default:
			return fmt.Errorf("cache.driver %q (want sqlite or mysql): %w", c.Cache.Driver, ErrInvalid)
		}
		if c.Cache.DSN == "" {
			return fmt.Errorf("cache.dsn is empty: %w", ErrInvalid)
		}
	}
	if c.Planner.MinPoints < 1 || c.Planner.MaxPoints < c.Planner.MinPoints {
		return fmt.Errorf("planner points [%d,%d]: %w", c.Planner.MinPoints, c.Planner.MaxPoints, ErrInvalid)
	}
	if c.Render.SimplifyTolerance < 0 {
		return fmt.Errorf("render.simplify_tolerance %v: %w", c.Render.SimplifyTolerance, ErrInvalid)
	}

	return nil
}

// Budget converts the solver section.
func (c Config) Budget() tsp.Budget {
	return tsp.Budget{
		MaxExactN:      c.Solver.MaxExactN,
		IterationLimit: c.Solver.IterationLimit,
		TimeLimit:      time.Duration(c.Solver.TimeLimitMs) * time.Millisecond,
		Eps:            c.Solver.Eps,
	}
}

// MissingPolicy parses maps.missing_policy.
func (c Config) MissingPolicy() (costmatrix.MissingPolicy, error) {
	return costmatrix.ParseMissingPolicy(c.Maps.MissingPolicy)
}

// CacheTTL returns cache.ttl_hours as a duration; 0 keeps entries forever.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// Timeout helpers for the HTTP server.
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

func (c Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}

func (c Config) IdleTimeout() time.Duration {
	return time.Duration(c.Server.IdleTimeoutSeconds) * time.Second
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}
