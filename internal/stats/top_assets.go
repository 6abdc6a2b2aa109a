package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

const topAssetCount = 5

// TopAssetsStats returns the riskiest assets observed in the window,
// ranked by risk score.
func (s *Service) TopAssetsStats(ctx context.Context, w Window) (*domain.TopAssetsStats, error) {
	filter := stellar.QueryFilter(
		scopedFilter(w.Tenant),
		stellar.DateFilter(w.StartDate, w.EndDate),
	)

	res, err := s.search.Search(ctx, stellar.AssetIndex(s.orgID), stellar.TopQuery("risk_score", topAssetCount, filter))
	if err != nil {
		return nil, fmt.Errorf("top asset query failed: %w", err)
	}
	esResp, err := decodeSearch(res)
	if err != nil {
		return nil, err
	}

	stats := &domain.TopAssetsStats{}
	for _, hit := range esResp.Hits.Hits {
		var src struct {
			Name        string      `json:"name"`
			RiskScore   float64     `json:"risk_score"`
			MAC         jsonStrings `json:"mac"`
			IP          jsonStrings `json:"ip"`
			DataSources jsonStrings `json:"data_sources"`
			Location    string      `json:"location"`
		}
		if err := json.Unmarshal(hit.Source, &src); err != nil {
			return nil, fmt.Errorf("failed to decode asset hit: %w", err)
		}

		stats.TopAssets = append(stats.TopAssets, domain.AssetRecord{
			Name:        src.Name,
			RiskScore:   src.RiskScore,
			MACs:        src.MAC.Join(),
			IPs:         src.IP.Join(),
			DataSources: src.DataSources.Join(),
			Location:    strings.ReplaceAll(src.Location, ",", ", "),
		})
	}
	return stats, nil
}
