package health

import (
	"context"
	"sync"
	"time"
)

// Monitor aggregates health status from the registered checkers.
type Monitor struct {
	checkers   []Checker
	cacheFor   time.Duration
	lastCheck  time.Time
	lastReport *HealthReport
	mu         sync.Mutex
}

// NewMonitor creates a monitor. Reports are reused for cacheFor to keep
// frequent probes from hammering dependencies.
func NewMonitor(cacheFor time.Duration, checkers ...Checker) *Monitor {
	return &Monitor{
		checkers: checkers,
		cacheFor: cacheFor,
	}
}

// Register adds a checker.
func (m *Monitor) Register(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
	m.lastReport = nil
}

// CheckHealth runs every checker. The worst component status wins.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && time.Since(m.lastCheck) < m.cacheFor {
		return *m.lastReport
	}

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Components:   make(map[string]ComponentHealth, len(m.checkers)),
	}
	for _, c := range m.checkers {
		h := c.Check(ctx)
		if h.Name == "" {
			h.Name = c.Name()
		}
		if h.Status == "" {
			h.Status = StatusHealthy
		}
		report.Components[c.Name()] = h
		if h.Status.rank() > report.SystemStatus.rank() {
			report.SystemStatus = h.Status
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = &report
	return report
}
