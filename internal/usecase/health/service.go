package health

import (
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/kgclient/internal/domain"
)

// ServiceName is the name the knowledge graph reports in its service description.
const ServiceName = "kg"

// DefaultSupportedVersions lists the service versions the client is tested against.
var DefaultSupportedVersions = []string{"0.9.5", "0.9.8"}

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the knowledge graph is unreachable or unsupported.
	Unhealthy Status = "error"
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
	Status  Status
	Version string
	Checks  map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	kg        ServiceDescriber
	cache     CachePinger
	supported []string
}

// New creates a Service. cache can be nil.
func New(kg ServiceDescriber, cache CachePinger) *Service {
	return &Service{kg: kg, cache: cache, supported: DefaultSupportedVersions}
}

// WithSupportedVersions overrides the accepted service versions.
func (s *Service) WithSupportedVersions(versions []string) *Service {
	if len(versions) > 0 {
		s.supported = versions
	}
	return s
}

// VersionCheck fetches the service description and verifies name and version.
func (s *Service) VersionCheck(ctx context.Context) (string, error) {
	desc, err := s.kg.GetURL(ctx, s.kg.Endpoint()+"/")
	if err != nil {
		return "", fmt.Errorf("describe service: %w", err)
	}
	if desc == nil {
		return "", fmt.Errorf("%w: empty service description", domain.ErrUnsupportedVersion)
	}
	name, _ := desc["name"].(string)
	version, _ := desc["version"].(string)
	if name != ServiceName {
		return version, fmt.Errorf("%w: unexpected service %q", domain.ErrUnsupportedVersion, name)
	}
	if !slices.Contains(s.supported, version) {
		return version, fmt.Errorf("%w: %s", domain.ErrUnsupportedVersion, version)
	}
	return version, nil
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	version, err := s.VersionCheck(ctx)
	if err != nil {
		checks["kg"] = CheckError
	} else {
		checks["kg"] = CheckOK
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	status := Healthy
	switch {
	case checks["kg"] == CheckError:
		status = Unhealthy
	case checks["cache"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Version: version, Checks: checks}
}
