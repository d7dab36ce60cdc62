// Package health aggregates upstream dependency checks.
package health

import "context"

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

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	catalog CatalogPinger
	model   ModelChecker
}

// New creates a Service. model can be nil.
func New(catalog CatalogPinger, model ModelChecker) *Service {
	return &Service{catalog: catalog, model: model}
}

// Check runs health checks against all upstreams.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.catalog.Ping(ctx); err != nil {
		checks["catalog"] = CheckError
	} else {
		checks["catalog"] = CheckOK
	}

	if s.model != nil {
		if err := s.model.HealthCheck(ctx); err != nil {
			checks["model"] = CheckError
		} else {
			checks["model"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
