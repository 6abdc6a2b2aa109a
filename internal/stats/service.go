// Package stats implements the statistics aggregation layer. Each metric
// family has its own aggregator; the Service orchestrates them into a
// complete snapshot for one (tenant, window) pair.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/logger"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

const gigabyte = 1000 * 1000 * 1000

// Window scopes one aggregation run. Tenant is empty for the all-tenants
// aggregate; DateScale is the inclusive daily scale between StartDate and
// EndDate.
type Window struct {
	Tenant    string
	StartDate string
	EndDate   string
	DateScale []string
}

// Service aggregates platform statistics into snapshots.
type Service struct {
	search  SearchClient
	cases   CaseClient
	tenants TenantResolver
	usage   UsageReader
	orgID   string
	logger  logger.Logger
}

// NewService creates the aggregation service. usage may be nil on
// appliance deployments; orgID is empty there and the license indexes are
// queried instead.
func NewService(
	search SearchClient,
	cases CaseClient,
	tenants TenantResolver,
	usageReader UsageReader,
	orgID string,
	log logger.Logger,
) *Service {
	return &Service{
		search:  search,
		cases:   cases,
		tenants: tenants,
		usage:   usageReader,
		orgID:   orgID,
		logger:  log,
	}
}

// hosted reports whether usage-metered statistics apply.
func (s *Service) hosted() bool {
	return s.orgID != "" && s.usage != nil
}

// Build runs every aggregator in a fixed order and assembles the snapshot.
// Any aggregator failure aborts the run, except the incident family which
// degrades to partial data. The same inputs always produce the same
// snapshot apart from QueriedAt.
func (s *Service) Build(ctx context.Context, tenant, startDate, endDate string) (*domain.Snapshot, error) {
	if tenant == stellar.AllTenants {
		tenant = ""
	}

	scale, err := domain.DailyDateScale(startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid report window: %w", err)
	}

	w := Window{Tenant: tenant, StartDate: startDate, EndDate: endDate, DateScale: scale}
	s.logger.Info("building statistics snapshot",
		logger.String("tenant", tenant),
		logger.String("start_date", startDate),
		logger.String("end_date", endDate),
	)

	snap := &domain.Snapshot{
		Tenant:    tenant,
		StartDate: startDate,
		EndDate:   endDate,
		DateScale: scale,
	}

	volume, err := s.VolumeStats(ctx, w)
	if err != nil {
		return nil, s.fail("volume", err)
	}
	snap.Volume = *volume

	assets, err := s.AssetStats(ctx, w)
	if err != nil {
		return nil, s.fail("assets", err)
	}
	snap.Assets = *assets

	connectors, err := s.ConnectorStats(ctx, w)
	if err != nil {
		return nil, s.fail("connectors", err)
	}
	snap.Connectors = *connectors

	logSources, err := s.LogSourceStats(ctx, w)
	if err != nil {
		return nil, s.fail("log sources", err)
	}
	snap.LogSources = *logSources

	linux, err := s.LinuxSensorStats(ctx, w)
	if err != nil {
		return nil, s.fail("linux sensors", err)
	}
	snap.LinuxSensors = *linux

	windows, err := s.WindowsSensorStats(ctx, w)
	if err != nil {
		return nil, s.fail("windows sensors", err)
	}
	snap.WindowsSensors = *windows

	network, err := s.NetworkSensorStats(ctx, w)
	if err != nil {
		return nil, s.fail("network sensors", err)
	}
	snap.NetworkSensors = *network

	security, err := s.SecuritySensorStats(ctx, w)
	if err != nil {
		return nil, s.fail("security sensors", err)
	}
	snap.SecuritySensors = *security

	alerts, err := s.AlertStats(ctx, w)
	if err != nil {
		return nil, s.fail("alerts", err)
	}
	snap.Alerts = *alerts

	stages, err := s.AlertStageStats(ctx, w)
	if err != nil {
		return nil, s.fail("alert stages", err)
	}
	snap.AlertStages = *stages

	tactics, err := s.AlertTacticStats(ctx, w)
	if err != nil {
		return nil, s.fail("alert tactics", err)
	}
	snap.AlertTactics = *tactics

	geo, err := s.AlertGeoStats(ctx, w)
	if err != nil {
		return nil, s.fail("alert geography", err)
	}
	snap.AlertGeo = *geo

	topAssets, err := s.TopAssetsStats(ctx, w)
	if err != nil {
		return nil, s.fail("top assets", err)
	}
	snap.TopAssets = *topAssets

	// The case-management backend degrades independently of the search
	// path, so incident statistics are best effort.
	snap.Incidents = *s.IncidentStats(ctx, w)

	snap.QueriedAt = time.Now().UTC()
	return snap, nil
}

func (s *Service) fail(family string, err error) error {
	s.logger.Error("statistics aggregation failed",
		logger.String("family", family),
		logger.Error(err),
	)
	return fmt.Errorf("unable to retrieve statistics: %s: %w", family, err)
}

// scopedFilter prepends a tenant clause when a tenant is set and collapses
// single clauses without wrapping. Returns nil when nothing remains, which
// QueryFilter skips.
func scopedFilter(tenant string, clauses ...map[string]any) map[string]any {
	if tenant != "" {
		clauses = append([]map[string]any{stellar.TenantFilter(tenant)}, clauses...)
	}
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return stellar.CombineFilters(clauses...)
	}
}
