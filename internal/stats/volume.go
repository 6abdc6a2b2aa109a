package stats

import (
	"context"
	"fmt"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/stellar"
	"github.com/jonesrussell/posture-report/internal/usage"
)

// VolumeStats aggregates daily ingest volume in bytes. Hosted deployments
// read metered usage and zero-fill the full date scale; appliance
// deployments take the daily peak throughput from the license index and
// carry exactly the buckets the backend returned.
func (s *Service) VolumeStats(ctx context.Context, w Window) (*domain.VolumeStats, error) {
	var series domain.TimeSeries
	if s.hosted() {
		var err error
		series, err = s.meteredSeries(ctx, w, usage.LicenseVolume)
		if err != nil {
			return nil, fmt.Errorf("failed to read volume usage: %w", err)
		}
		for i := range series.Values {
			series.Values[i] *= gigabyte
		}
	} else {
		filter := stellar.QueryFilter(
			stellar.TenantFilter(w.Tenant),
			stellar.DateFilter(w.StartDate, w.EndDate),
		)
		query := stellar.MetricHistogramQuery(w.StartDate, w.EndDate, filter, "volume", "max", "throughput")

		res, err := s.search.Search(ctx, stellar.VolumeLicenseIndex, query)
		if err != nil {
			return nil, fmt.Errorf("volume query failed: %w", err)
		}
		esResp, err := decodeSearch(res)
		if err != nil {
			return nil, err
		}

		var agg struct {
			Buckets []struct {
				KeyAsString string `json:"key_as_string"`
				Volume      struct {
					Value *float64 `json:"value"`
				} `json:"volume"`
			} `json:"buckets"`
		}
		if err := unmarshalAgg(esResp.Aggregations, "date", &agg); err != nil {
			return nil, err
		}

		for _, b := range agg.Buckets {
			series.Dates = append(series.Dates, bucketDay(b.KeyAsString))
			// Throughput is reported in gigabytes; empty buckets carry a
			// null max.
			if b.Volume.Value != nil {
				series.Values = append(series.Values, *b.Volume.Value*gigabyte)
			} else {
				series.Values = append(series.Values, 0)
			}
		}
	}

	return &domain.VolumeStats{
		VolumePerDay:       series,
		AverageDailyVolume: mean(series.Values),
	}, nil
}

// meteredSeries builds a zero-filled daily usage series over the window's
// date scale. A tenant with no usage entries yields an all-zero series.
func (s *Service) meteredSeries(ctx context.Context, w Window, licenseType string) (domain.TimeSeries, error) {
	du, err := s.usage.DailyUsage(ctx, w.StartDate, w.EndDate, licenseType)
	if err != nil {
		return domain.TimeSeries{}, err
	}

	series := domain.TimeSeries{
		Dates:  append([]string(nil), w.DateScale...),
		Values: make([]float64, len(w.DateScale)),
	}
	if w.Tenant != "" {
		byDate := du.ByTenant[w.Tenant]
		for i, date := range w.DateScale {
			series.Values[i] = byDate[date]
		}
		return series, nil
	}
	for i, date := range w.DateScale {
		var total float64
		for _, v := range du.ByDate[date] {
			total += v
		}
		series.Values[i] = total
	}
	return series, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
