// Package health runs dependency checks for the readiness endpoint and the
// heartbeat job.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
	StatusDisabled
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	case StatusDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult is the outcome of one check
type CheckResult struct {
	Name         string        `json:"-"`
	Status       Status        `json:"status"`
	Critical     bool          `json:"critical"`
	Latency      time.Duration `json:"-"`
	LatencyMs    int64         `json:"latencyMs"`
	LastCheck    time.Time     `json:"lastCheck"`
	Message      string        `json:"message,omitempty"`
	CheckCount   int           `json:"checkCount"`
	FailureCount int           `json:"failureCount"`
}

type Checker interface {
	Check(ctx context.Context) CheckResult
}

// PingChecker is healthy when Ping succeeds. A nil Ping reports the
// dependency as disabled.
type PingChecker struct {
	Ping func(ctx context.Context) error
}

func (c PingChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{LastCheck: start}
	if c.Ping == nil {
		result.Status = StatusDisabled
		return result
	}

	err := c.Ping(ctx)
	result.Latency = time.Since(start)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
		return result
	}
	result.Status = StatusHealthy
	return result
}

type registration struct {
	checker  Checker
	critical bool
}

// Report aggregates one round of checks
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Healthy is false when a critical dependency is unhealthy
func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Monitor keeps the registered checkers and the result of their last run
type Monitor struct {
	mu       sync.RWMutex
	checkers map[string]registration
	results  map[string]*CheckResult
	timeout  time.Duration
	logger   *zap.Logger
}

func NewMonitor(timeout time.Duration, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Monitor{
		checkers: make(map[string]registration),
		results:  make(map[string]*CheckResult),
		timeout:  timeout,
		logger:   logger,
	}
}

// Register adds a checker. A failing critical checker fails the report.
func (m *Monitor) Register(name string, checker Checker, critical bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkers[name] = registration{checker: checker, critical: critical}
	m.logger.Info("Registered health checker",
		zap.String("name", name),
		zap.Bool("critical", critical),
	)
}

// Names lists the registered checkers in sorted order
func (m *Monitor) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.checkers))
	for name := range m.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAll runs every checker concurrently, each bounded by the monitor timeout
func (m *Monitor) CheckAll(ctx context.Context) Report {
	m.mu.RLock()
	checkers := make(map[string]registration, len(m.checkers))
	for name, reg := range m.checkers {
		checkers[name] = reg
	}
	m.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checkers))
		g       errgroup.Group
	)
	for name, reg := range checkers {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			result := reg.checker.Check(checkCtx)
			result.Name = name
			result.Critical = reg.critical
			result.LatencyMs = result.Latency.Milliseconds()

			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: StatusHealthy, Checks: make(map[string]CheckResult, len(results))}
	m.mu.Lock()
	for name, result := range results {
		if existing, ok := m.results[name]; ok {
			result.CheckCount = existing.CheckCount + 1
			result.FailureCount = existing.FailureCount
		} else {
			result.CheckCount = 1
		}
		if result.Status == StatusUnhealthy {
			result.FailureCount++
			if result.Critical {
				report.Status = StatusUnhealthy
			}
			m.logger.Warn("Health check failed",
				zap.String("name", name),
				zap.Bool("critical", result.Critical),
				zap.Duration("latency", result.Latency),
				zap.String("message", result.Message),
			)
		}
		stored := result
		m.results[name] = &stored
		report.Checks[name] = result
	}
	m.mu.Unlock()

	return report
}

// IsHealthy reports the last known state of name. Unchecked names count as healthy.
func (m *Monitor) IsHealthy(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if result, ok := m.results[name]; ok {
		return result.Status != StatusUnhealthy
	}
	return true
}

// GetResult returns a copy of the last result of name
func (m *Monitor) GetResult(name string) (CheckResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result, ok := m.results[name]
	if !ok {
		return CheckResult{}, false
	}
	return *result, true
}
