// Package usage implements the client for the organization usage metering
// service used by hosted deployments. The service is reached with a mutual
// TLS cluster certificate and reports per-tenant daily license usage.
package usage

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// License types understood by the metering service.
const (
	LicenseVolume = "volume"
	LicenseAsset  = "asset"
)

const (
	usagePath  = "/acgs/api/v2/organization_usage/"
	dateFormat = "2006-01-02"
)

// ErrTenantNotFound is returned when a tenant display name does not appear
// in the organization's usage entries for the queried window.
var ErrTenantNotFound = errors.New("tenant not found in usage entries")

// Config holds metering service configuration. CertFile and KeyFile are the
// cluster controller client certificate pair.
type Config struct {
	Host     string
	OrgID    string
	CertFile string
	KeyFile  string
	Timeout  time.Duration
}

// Client queries the usage metering service for one organization.
type Client struct {
	httpClient *http.Client
	baseURL    string
	orgID      string
}

// NewClient creates a metering client authenticated with the cluster
// client certificate.
func NewClient(cfg *Config) (*Client, error) {
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load cluster certificate: %w", err)
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			Certificates:       []tls.Certificate{cert},
			InsecureSkipVerify: true, //nolint:gosec // the metering endpoint presents a cluster-internal cert
		},
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL: "https://" + cfg.Host + usagePath,
		orgID:   cfg.OrgID,
	}, nil
}

// DailyUsage indexes tenant usage values both ways: by date then tenant
// name, and by tenant name then date. Values are in the unit native to the
// license type (gigabytes for volume, asset counts for asset).
type DailyUsage struct {
	ByDate   map[string]map[string]float64
	ByTenant map[string]map[string]float64
}

type usageTenant struct {
	Name  string  `json:"tenant_name"`
	ID    string  `json:"tenantid"`
	Usage float64 `json:"usage"`
}

type orgUsageResponse struct {
	Data struct {
		Entries []struct {
			Timestamp int64 `json:"timestamp"`
			SaaS      struct {
				Entries []struct {
					Tenants []usageTenant `json:"tenants"`
				} `json:"entries"`
			} `json:"saas"`
		} `json:"entries"`
	} `json:"data"`
}

// DailyUsage fetches the organization's metered usage for the inclusive
// [startDate, endDate] window and folds it into both indexings in one pass.
func (c *Client) DailyUsage(ctx context.Context, startDate, endDate, licenseType string) (*DailyUsage, error) {
	resp, err := c.orgUsage(ctx, startDate, endDate, licenseType)
	if err != nil {
		return nil, err
	}

	du := &DailyUsage{
		ByDate:   make(map[string]map[string]float64),
		ByTenant: make(map[string]map[string]float64),
	}
	for _, entry := range resp.Data.Entries {
		date := time.UnixMilli(entry.Timestamp).UTC().Format(dateFormat)
		for _, saas := range entry.SaaS.Entries {
			for _, tenant := range saas.Tenants {
				if du.ByDate[date] == nil {
					du.ByDate[date] = make(map[string]float64)
				}
				if du.ByTenant[tenant.Name] == nil {
					du.ByTenant[tenant.Name] = make(map[string]float64)
				}
				du.ByDate[date][tenant.Name] = tenant.Usage
				du.ByTenant[tenant.Name][date] = tenant.Usage
			}
		}
	}
	return du, nil
}

// TenantID resolves a tenant display name to its internal id using the
// volume usage entries for the given window.
func (c *Client) TenantID(ctx context.Context, name, startDate, endDate string) (string, error) {
	resp, err := c.orgUsage(ctx, startDate, endDate, LicenseVolume)
	if err != nil {
		return "", err
	}
	for _, entry := range resp.Data.Entries {
		for _, saas := range entry.SaaS.Entries {
			for _, tenant := range saas.Tenants {
				if tenant.Name == name {
					return tenant.ID, nil
				}
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrTenantNotFound, name)
}

// TenantNames returns the distinct tenant display names with usage
// entries in the given window.
func (c *Client) TenantNames(ctx context.Context, startDate, endDate string) ([]string, error) {
	resp, err := c.orgUsage(ctx, startDate, endDate, LicenseVolume)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, entry := range resp.Data.Entries {
		for _, saas := range entry.SaaS.Entries {
			for _, tenant := range saas.Tenants {
				if !seen[tenant.Name] {
					seen[tenant.Name] = true
					names = append(names, tenant.Name)
				}
			}
		}
	}
	return names, nil
}

func (c *Client) orgUsage(ctx context.Context, startDate, endDate, licenseType string) (*orgUsageResponse, error) {
	params := url.Values{}
	params.Set("start", startDate+"T00:00:00Z")
	params.Set("end", endDate+"T23:59:59Z")
	params.Set("license_type", licenseType)
	params.Set("include_tenant", "true")

	reqURL := c.baseURL + c.orgID + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build usage request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usage request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("usage request failed with status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var usageResp orgUsageResponse
	if err := json.NewDecoder(res.Body).Decode(&usageResp); err != nil {
		return nil, fmt.Errorf("decode usage response: %w", err)
	}
	return &usageResp, nil
}
