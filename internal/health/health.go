// Package health watches whether the verification service is reachable.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/veritas/internal/logging"
)

// Prober checks reachability once. Any answer from the service is success.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to Prober
type ProberFunc func(ctx context.Context) error

// Probe calls f
func (f ProberFunc) Probe(ctx context.Context) error {
	return f(ctx)
}

// Status is the outcome of one probe
type Status struct {
	Reachable     bool      `json:"reachable"`
	LatencyMillis int64     `json:"latency_ms"`
	CheckedAt     time.Time `json:"checked_at"`
	Error         string    `json:"error,omitempty"`
}

// Monitor probes on a fixed interval, independent of verification runs
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	onStatus func(Status)
	logger   logrus.FieldLogger

	mu     sync.RWMutex
	latest Status
	seen   bool
}

// NewMonitor creates a monitor. Zero interval and timeout default to 10s and 5s.
func NewMonitor(prober Prober, interval, timeout time.Duration, onStatus func(Status), logger logrus.FieldLogger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Monitor{
		prober:   prober,
		interval: interval,
		timeout:  timeout,
		onStatus: onStatus,
		logger:   logging.OrDiscard(logger),
	}
}

// Check runs one probe under its own timeout. It never fails.
func (m *Monitor) Check(ctx context.Context) Status {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := m.probe(pctx)
	status := Status{
		Reachable:     err == nil,
		LatencyMillis: time.Since(start).Milliseconds(),
		CheckedAt:     start.UTC(),
	}
	if err != nil {
		status.Error = err.Error()
	}

	m.mu.Lock()
	changed := !m.seen || m.latest.Reachable != status.Reachable
	m.latest = status
	m.seen = true
	m.mu.Unlock()

	if changed {
		m.logger.WithFields(logrus.Fields{
			"reachable":  status.Reachable,
			"latency_ms": status.LatencyMillis,
		}).Info("backend reachability changed")
	}
	if m.onStatus != nil {
		m.onStatus(status)
	}
	return status
}

// probe runs the prober in its own goroutine so a hung prober
// cannot outlive the timeout
func (m *Monitor) probe(ctx context.Context) (err error) {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("probe panicked: %v", r)
			}
		}()
		done <- m.prober.Probe(ctx)
	}()

	select {
	case err = <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run checks immediately, then on every tick until ctx is done
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Latest returns the most recent status and whether any probe has run
func (m *Monitor) Latest() (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.seen
}
