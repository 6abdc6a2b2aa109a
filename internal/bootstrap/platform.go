package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/posture-report/internal/config"
	"github.com/jonesrussell/posture-report/internal/stellar"
	"github.com/jonesrussell/posture-report/internal/usage"
)

// SetupPlatformClient creates the analytics platform API client.
func SetupPlatformClient(cfg *config.Config) (*stellar.Client, error) {
	client, err := stellar.NewClient(&stellar.Config{
		URL:        cfg.Platform.URL,
		Username:   cfg.Platform.Username,
		APIKey:     cfg.Platform.APIKey,
		Deployment: cfg.Platform.Deployment,
		MaxRetries: cfg.Platform.MaxRetries,
		Timeout:    cfg.Platform.Timeout,
		Insecure:   cfg.Platform.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("platform client: %w", err)
	}
	return client, nil
}

// SetupUsageClient creates the usage metering client for hosted
// deployments. On-prem deployments return nil; licensing statistics come
// from the license indexes there.
func SetupUsageClient(cfg *config.Config) (*usage.Client, error) {
	if cfg.Platform.Deployment != config.DeploymentSaaS || cfg.Usage.Host == "" {
		return nil, nil //nolint:nilnil // absent metering is a valid deployment shape
	}

	client, err := usage.NewClient(&usage.Config{
		Host:     cfg.Usage.Host,
		OrgID:    cfg.Platform.OrgID,
		CertFile: cfg.Usage.CertFile,
		KeyFile:  cfg.Usage.KeyFile,
		Timeout:  cfg.Platform.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("usage client: %w", err)
	}
	return client, nil
}
