package stats

import (
	"context"
	"fmt"
	"math"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/stellar"
	"github.com/jonesrussell/posture-report/internal/usage"
)

// AssetStats aggregates the daily licensed asset count. Hosted deployments
// read metered usage; appliance deployments sum asset usage records from
// the license index.
func (s *Service) AssetStats(ctx context.Context, w Window) (*domain.AssetStats, error) {
	var series domain.CountSeries
	if s.hosted() {
		metered, err := s.meteredSeries(ctx, w, usage.LicenseAsset)
		if err != nil {
			return nil, fmt.Errorf("failed to read asset usage: %w", err)
		}
		series.Dates = metered.Dates
		series.Counts = make([]int64, len(metered.Values))
		for i, v := range metered.Values {
			series.Counts[i] = int64(v)
		}
	} else {
		filter := stellar.QueryFilter(
			stellar.TenantFilter(w.Tenant),
			stellar.DateFilter(w.StartDate, w.EndDate),
		)
		query := stellar.MetricHistogramQuery(w.StartDate, w.EndDate, filter, "asset_count", "sum", "asset_usage")

		res, err := s.search.Search(ctx, stellar.AssetLicenseIndex, query)
		if err != nil {
			return nil, fmt.Errorf("asset query failed: %w", err)
		}
		esResp, err := decodeSearch(res)
		if err != nil {
			return nil, err
		}

		var agg struct {
			Buckets []struct {
				KeyAsString string `json:"key_as_string"`
				AssetCount  struct {
					Value float64 `json:"value"`
				} `json:"asset_count"`
			} `json:"buckets"`
		}
		if err := unmarshalAgg(esResp.Aggregations, "date", &agg); err != nil {
			return nil, err
		}

		for _, b := range agg.Buckets {
			series.Dates = append(series.Dates, bucketDay(b.KeyAsString))
			series.Counts = append(series.Counts, int64(math.Round(b.AssetCount.Value)))
		}
	}

	return &domain.AssetStats{
		AssetsPerDay:       series,
		AverageDailyAssets: meanInt64(series.Counts),
	}, nil
}

func meanInt64(counts []int64) float64 {
	if len(counts) == 0 {
		return 0
	}
	var sum int64
	for _, c := range counts {
		sum += c
	}
	return float64(sum) / float64(len(counts))
}
