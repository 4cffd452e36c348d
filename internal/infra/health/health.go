// Package health serves the liveness and readiness endpoints of roadtour-server.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Readiness states reported by Readyz.
const (
	StatusReady    = "ready"
	StatusStarting = "starting"
	StatusDegraded = "degraded"
)

// Check probes one dependency, for example the leg cache database.
type Check func(ctx context.Context) error

// Report is the /readyz body. Checks maps each dependency to "ok" or its error.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Probe tracks whether the server accepts traffic and whether its
// dependencies answer. Safe for concurrent use.
type Probe struct {
	ready   atomic.Bool
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]Check
}

// New returns a Probe that is not ready yet. timeout bounds each check.
func New(timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Probe{timeout: timeout, checks: make(map[string]Check)}
}

// Register adds or replaces the named dependency check.
func (p *Probe) Register(name string, c Check) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks[name] = c
}

// SetReady marks the server as started (true) or draining (false).
func (p *Probe) SetReady(v bool) { p.ready.Store(v) }

// Ready reports the flag set by SetReady.
func (p *Probe) Ready() bool { return p.ready.Load() }

// Check runs every registered check. The report is ready only when the
// server is started and every check passed.
func (p *Probe) Check(ctx context.Context) Report {
	p.mu.RLock()
	names := make([]string, 0, len(p.checks))
	for name := range p.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]Check, len(names))
	for i, name := range names {
		checks[i] = p.checks[name]
	}
	p.mu.RUnlock()

	rep := Report{Status: StatusReady}
	if !p.Ready() {
		rep.Status = StatusStarting
	}
	if len(names) > 0 {
		rep.Checks = make(map[string]string, len(names))
	}
	for i, name := range names {
		cctx, cancel := context.WithTimeout(ctx, p.timeout)
		err := checks[i](cctx)
		cancel()
		if err != nil {
			rep.Checks[name] = err.Error()
			if rep.Status == StatusReady {
				rep.Status = StatusDegraded
			}
			continue
		}
		rep.Checks[name] = "ok"
	}

	return rep
}

// Healthz is a simple liveness probe
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz answers 200 with the report when ready, 503 otherwise.
func (p *Probe) Readyz(w http.ResponseWriter, r *http.Request) {
	rep := p.Check(r.Context())
	code := http.StatusOK
	if rep.Status != StatusReady {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(rep)
}
