package bootstrap

import (
	"github.com/jonesrussell/posture-report/internal/api"
	"github.com/jonesrussell/posture-report/internal/config"
	"github.com/jonesrussell/posture-report/internal/database"
	"github.com/jonesrussell/posture-report/internal/logger"
	"github.com/jonesrussell/posture-report/internal/report"
	"github.com/jonesrussell/posture-report/internal/stats"
	"github.com/jonesrussell/posture-report/internal/stellar"
	"github.com/jonesrussell/posture-report/internal/usage"
)

// SetupHTTPServer wires the aggregation service, report store and run
// registry into the HTTP server.
func SetupHTTPServer(
	cfg *config.Config,
	platform *stellar.Client,
	usageClient *usage.Client,
	db *database.Connection,
	log logger.Logger,
) *api.Server {
	var usageReader stats.UsageReader
	if usageClient != nil {
		usageReader = usageClient
	}

	statsService := stats.NewService(
		platform,
		platform,
		tenantResolver(platform, usageClient),
		usageReader,
		cfg.Platform.OrgID,
		log,
	)

	store := report.NewStore(cfg.Reports.Dir)
	metrics := api.NewMetrics()
	handler := api.NewHandler(statsService, store, db, platform, metrics, log)

	return api.NewServer(handler, api.ServerConfig{
		Port:  cfg.Service.Port,
		Debug: cfg.Service.Debug,
	}, metrics, log)
}

// tenantResolver picks the tenant-name-to-ID source: hosted deployments
// resolve through the metering service, appliances through the platform's
// tenant listing.
func tenantResolver(platform *stellar.Client, usageClient *usage.Client) stats.TenantResolver {
	if usageClient != nil {
		return usageClient
	}
	return platform
}
