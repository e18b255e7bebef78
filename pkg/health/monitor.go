package health

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-physics2d/pkg/event"
)

// Monitor collects simulation progress for health checks. The simulation
// goroutine records into it; checks read it from any goroutine.
type Monitor struct {
	tick         atomic.Uint64
	lastTickNano atomic.Int64
	instability  atomic.Uint64
	now          func() time.Time
}

// NewMonitor creates a monitor that has seen no ticks
func NewMonitor() *Monitor {
	return &Monitor{now: time.Now}
}

// RecordTick stores the latest completed tick
func (m *Monitor) RecordTick(tick uint64) {
	m.tick.Store(tick)
	m.lastTickNano.Store(m.now().UnixNano())
}

// Observe counts NumericalInstability events published on bus
func (m *Monitor) Observe(bus *event.Bus) event.SubscriptionID {
	return bus.Subscribe(event.NumericalInstability, func(event.Event) {
		m.instability.Add(1)
	})
}

// Tick returns the latest recorded tick
func (m *Monitor) Tick() uint64 {
	return m.tick.Load()
}

// Instabilities returns the number of clamped non-finite values seen
func (m *Monitor) Instabilities() uint64 {
	return m.instability.Load()
}

// sinceLastTick returns how long ago a tick was recorded, and false before
// the first one
func (m *Monitor) sinceLastTick() (time.Duration, bool) {
	last := m.lastTickNano.Load()
	if last == 0 {
		return 0, false
	}
	return m.now().Sub(time.Unix(0, last)), true
}

// TickHealthCheck fails when the simulation has not advanced recently
type TickHealthCheck struct {
	monitor  *Monitor
	maxStall time.Duration
}

// NewTickHealthCheck creates a check that tolerates maxStall between ticks
func NewTickHealthCheck(m *Monitor, maxStall time.Duration) *TickHealthCheck {
	return &TickHealthCheck{monitor: m, maxStall: maxStall}
}

// Name returns the name of this health check.
func (c *TickHealthCheck) Name() string {
	return "simulation"
}

// Check verifies that a tick completed within maxStall.
func (c *TickHealthCheck) Check(ctx context.Context) error {
	age, ok := c.monitor.sinceLastTick()
	if !ok {
		return fmt.Errorf("simulation has not ticked yet")
	}
	if age > c.maxStall {
		return fmt.Errorf("no tick for %s (last tick %d)", age.Round(time.Millisecond), c.monitor.Tick())
	}
	return nil
}

// StabilityHealthCheck fails once the world has clamped more non-finite
// values than allowed
type StabilityHealthCheck struct {
	monitor *Monitor
	limit   uint64
}

// NewStabilityHealthCheck creates a check allowing up to limit instabilities
func NewStabilityHealthCheck(m *Monitor, limit uint64) *StabilityHealthCheck {
	return &StabilityHealthCheck{monitor: m, limit: limit}
}

// Name returns the name of this health check.
func (c *StabilityHealthCheck) Name() string {
	return "stability"
}

// Check verifies the instability count is within the limit.
func (c *StabilityHealthCheck) Check(ctx context.Context) error {
	if n := c.monitor.Instabilities(); n > c.limit {
		return fmt.Errorf("%d numerical instabilities exceed limit %d", n, c.limit)
	}
	return nil
}

// MemoryHealthCheck implements HealthCheck for memory usage monitoring.
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a health check for memory usage.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns the name of this health check.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within acceptable limits.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}
