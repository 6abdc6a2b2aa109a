package stats

import (
	"context"
	"fmt"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/geo"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

// AlertGeoStats aggregates high-fidelity alert counts by source country.
// Counts for unresolvable country codes are kept with an empty alpha-3
// code so totals stay conserved.
func (s *Service) AlertGeoStats(ctx context.Context, w Window) (*domain.AlertGeoStats, error) {
	filter := highFidelityFilter(w)

	res, err := s.search.Search(ctx, stellar.AlertIndex(s.orgID), stellar.CountryQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("alert geography query failed: %w", err)
	}
	esResp, err := decodeSearch(res)
	if err != nil {
		return nil, err
	}

	var agg struct {
		Buckets []struct {
			Key      string `json:"key"`
			DocCount int64  `json:"doc_count"`
		} `json:"buckets"`
	}
	if err := unmarshalAgg(esResp.Aggregations, "country", &agg); err != nil {
		return nil, err
	}

	stats := &domain.AlertGeoStats{}
	for _, b := range agg.Buckets {
		stats.HighFidelityCountByCountry = append(stats.HighFidelityCountByCountry, domain.CountryCount{
			Alpha2: b.Key,
			Alpha3: geo.Alpha3(b.Key),
			Count:  b.DocCount,
		})
	}
	return stats, nil
}
