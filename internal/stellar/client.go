// Package stellar implements the client for the analytics platform API.
// The platform exposes an Elasticsearch-compatible search path under
// /connect/api/data/<index>/_search and a record-oriented REST path for
// case management and tenant listings.
package stellar

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Deployment types accepted by the platform.
const (
	DeploymentOnPrem = "On-Prem"
	DeploymentSaaS   = "SaaS"
)

const dataAPIPath = "/connect/api"

// Config holds platform API configuration.
type Config struct {
	URL        string
	Username   string
	APIKey     string
	Deployment string
	MaxRetries int
	Timeout    time.Duration
	Insecure   bool
}

// Tenant is one tenant known to the platform.
type Tenant struct {
	Name string `json:"cust_name"`
	ID   string `json:"cust_id"`
}

// CaseEntry is one case/incident record from the REST path.
type CaseEntry struct {
	CreatedAt int64   `json:"created_at"`
	Name      string  `json:"name"`
	Score     float64 `json:"incident_score"`
}

// PagedResponse is the envelope of a paged REST query.
type PagedResponse struct {
	Data struct {
		Total     int64       `json:"total"`
		Incidents []CaseEntry `json:"incidents"`
	} `json:"data"`
}

// Client wraps the platform's search and REST paths.
type Client struct {
	esClient   *es.Client
	httpClient *http.Client
	baseURL    string
	authHeader string
}

// NewClient creates a new platform API client. For SaaS deployments an
// access token is fetched up front; on-prem deployments use basic auth.
func NewClient(cfg *Config) (*Client, error) {
	baseURL := strings.TrimSuffix(cfg.URL, "/") + dataAPIPath

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Insecure, //nolint:gosec // appliance deployments commonly use self-signed certs
		},
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	authHeader, err := genAuth(httpClient, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate against platform: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", authHeader)
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/json")

	esClient, err := es.NewClient(es.Config{
		Addresses:  []string{baseURL + "/data"},
		Transport:  transport,
		Header:     header,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create search client: %w", err)
	}

	return &Client{
		esClient:   esClient,
		httpClient: httpClient,
		baseURL:    baseURL,
		authHeader: authHeader,
	}, nil
}

// genAuth builds the Authorization header value for the configured
// deployment type.
func genAuth(httpClient *http.Client, cfg *Config) (string, error) {
	switch cfg.Deployment {
	case DeploymentOnPrem:
		return "Basic " + basicToken(cfg.Username, cfg.APIKey), nil
	case DeploymentSaaS:
		token, err := fetchAccessToken(httpClient, cfg)
		if err != nil {
			return "", err
		}
		return "Bearer " + token, nil
	default:
		return "", fmt.Errorf("unknown deployment type: %q", cfg.Deployment)
	}
}

func basicToken(username, apiKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + apiKey))
}

// fetchAccessToken exchanges basic credentials for a bearer token on SaaS
// deployments.
func fetchAccessToken(httpClient *http.Client, cfg *Config) (string, error) {
	tokenURL := strings.TrimSuffix(cfg.URL, "/") + dataAPIPath + "/v1/access_token"

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, tokenURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+basicToken(cfg.Username, cfg.APIKey))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request access token: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("access token request failed with status %d: %s", res.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode access token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("access token response contained no token")
	}
	return tokenResp.AccessToken, nil
}

// Search executes an aggregation/search query against a named index
// pattern on the platform's data path.
func (c *Client) Search(ctx context.Context, index string, query map[string]any) (*esapi.Response, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.esClient.Search(
		c.esClient.Search.WithContext(ctx),
		c.esClient.Search.WithIndex(index),
		c.esClient.Search.WithBody(strings.NewReader(string(body))),
	)
	if err != nil {
		return nil, fmt.Errorf("search against index %s failed: %w", index, err)
	}
	return res, nil
}

// PagedQuery executes a filtered, sorted, paged lookup against a
// record-oriented REST route (e.g. v1/incidents).
func (c *Client) PagedQuery(ctx context.Context, route string, params url.Values) (*PagedResponse, error) {
	reqURL := c.baseURL + "/" + strings.TrimPrefix(route, "/") + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", route, err)
	}
	c.setHeaders(req)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", route, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("query %s failed with status %d: %s", route, res.StatusCode, string(body))
	}

	var paged PagedResponse
	if err := json.NewDecoder(res.Body).Decode(&paged); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", route, err)
	}
	return &paged, nil
}

// ListTenants returns all tenants visible to the configured credentials,
// used to resolve a display name to its internal id.
func (c *Client) ListTenants(ctx context.Context) ([]Tenant, error) {
	reqURL := c.baseURL + "/v1/tenants"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build tenants request: %w", err)
	}
	c.setHeaders(req)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list tenants failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("list tenants failed with status %d: %s", res.StatusCode, string(body))
	}

	var tenantsResp struct {
		Data []Tenant `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&tenantsResp); err != nil {
		return nil, fmt.Errorf("decode tenants response: %w", err)
	}
	return tenantsResp.Data, nil
}

// TenantID resolves a tenant display name to its internal id. The date
// arguments are accepted for interface compatibility with usage-metered
// deployments and are not used here.
func (c *Client) TenantID(ctx context.Context, name, _, _ string) (string, error) {
	tenants, err := c.ListTenants(ctx)
	if err != nil {
		return "", err
	}
	for _, t := range tenants {
		if t.Name == name {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("tenant %q not found", name)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}
