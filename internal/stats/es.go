package stats

import (
	"context"
	"net/url"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/jonesrussell/posture-report/internal/stellar"
	"github.com/jonesrussell/posture-report/internal/usage"
)

// SearchClient defines the search-path operations needed by the
// aggregators. The concrete *stellar.Client satisfies this interface.
type SearchClient interface {
	Search(ctx context.Context, index string, query map[string]any) (*esapi.Response, error)
}

// CaseClient defines the case-management REST operations needed by the
// incident aggregator. The concrete *stellar.Client satisfies this
// interface.
type CaseClient interface {
	PagedQuery(ctx context.Context, route string, params url.Values) (*stellar.PagedResponse, error)
}

// TenantResolver maps a tenant display name to its platform identifier.
// Appliance deployments resolve through the tenant listing; hosted
// deployments resolve through usage metering entries for the window.
type TenantResolver interface {
	TenantID(ctx context.Context, name, startDate, endDate string) (string, error)
}

// UsageReader provides metered daily license usage on hosted deployments.
// The concrete *usage.Client satisfies this interface.
type UsageReader interface {
	DailyUsage(ctx context.Context, startDate, endDate, licenseType string) (*usage.DailyUsage, error)
}
