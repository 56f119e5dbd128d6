// Package health aggregates dependency probes for the service's liveness
// endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CheckFunc probes one dependency, returning nil when it is reachable.
type CheckFunc func(ctx context.Context) error

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(success bool)

// Status is the reported state of one dependency.
type Status struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Checker runs registered dependency probes on demand. Probes run
// concurrently, each under its own timeout, so one stalled dependency
// cannot hold the health endpoint hostage.
type Checker struct {
	mu        sync.Mutex
	checks    map[string]CheckFunc
	timeout   time.Duration
	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// New creates a Checker. timeout bounds each individual probe and defaults
// to 5 seconds.
func New(timeout time.Duration, logger *zap.Logger) *Checker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a named dependency probe. Registering the same name again
// replaces the previous probe.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// SetMetricsRecord configures the metrics recording callback.
func (c *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	c.onMetrics = fn
}

// Run executes all registered probes and reports per-dependency status plus
// an overall verdict. The verdict is healthy only when every probe passes.
func (c *Checker) Run(ctx context.Context) (map[string]Status, bool) {
	c.mu.Lock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.Unlock()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = make(map[string]Status, len(checks))
		healthy  = true
	)
	for name, fn := range checks {
		wg.Add(1)
		go func(name string, fn CheckFunc) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			err := fn(probeCtx)

			if c.onMetrics != nil {
				c.onMetrics(err == nil)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				healthy = false
				statuses[name] = Status{Healthy: false, Error: err.Error()}
				c.logger.Warn("health: dependency probe failed",
					zap.String("dependency", name),
					zap.Error(err),
				)
				return
			}
			statuses[name] = Status{Healthy: true}
		}(name, fn)
	}
	wg.Wait()

	return statuses, healthy
}
