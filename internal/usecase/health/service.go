package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds a single component check.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type component struct {
	name   string
	pinger Pinger
}

// Service coordinates health checks. Place providers are not probed:
// their quota is metered per call.
type Service struct {
	components []component
	timeout    time.Duration
}

// New creates a Service with no components; it always reports Healthy until
// components are added.
func New() *Service {
	return &Service{timeout: DefaultCheckTimeout}
}

// With registers a named component. A nil pinger is ignored so optional
// backends can be passed unconditionally.
func (s *Service) With(name string, p Pinger) *Service {
	if p != nil {
		s.components = append(s.components, component{name: name, pinger: p})
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.components))
	status := Healthy

	for _, c := range s.components {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := c.pinger.Ping(cctx)
		cancel()
		if err != nil {
			checks[c.name] = CheckError
			status = Degraded
			continue
		}
		checks[c.name] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}
