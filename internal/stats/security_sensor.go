package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

// Display names for the two security sensor traffic classes.
const (
	featureIDSMalware = "Security Sensor - IDS & Malware"
	featureTraffic    = "Security Sensor - Traffic"
)

// SecuritySensorStats aggregates security sensor volume split by traffic
// class (flow traffic vs. IDS & malware detections).
func (s *Service) SecuritySensorStats(ctx context.Context, w Window) (*domain.SecuritySensorStats, error) {
	filter := stellar.QueryFilter(
		scopedFilter(w.Tenant,
			stellar.FeatureFilter("sds"),
			stellar.MsgTypesFilter(stellar.MsgTypeTraffic, stellar.MsgTypeIDSMalware),
		),
		stellar.DateFilter(w.StartDate, w.EndDate),
	)
	index := stellar.TrafficIndex(s.orgID)

	res, err := s.search.Search(ctx, index, stellar.TimeseriesQuery(w.StartDate, w.EndDate, filter, stellar.AggSecurityFeature))
	if err != nil {
		return nil, fmt.Errorf("security sensor query failed: %w", err)
	}
	esResp, err := decodeSearch(res)
	if err != nil {
		return nil, err
	}

	var agg struct {
		Buckets []struct {
			KeyAsString string `json:"key_as_string"`
			Feature     struct {
				Buckets []struct {
					Key                int `json:"key"`
					OutBytesDeltaTotal struct {
						Value float64 `json:"value"`
					} `json:"out_bytes_delta_total"`
				} `json:"buckets"`
			} `json:"feature"`
		} `json:"buckets"`
	}
	if err := unmarshalAgg(esResp.Aggregations, "date", &agg); err != nil {
		return nil, err
	}

	stats := &domain.SecuritySensorStats{}
	cumulative := make(map[string]float64)
	var order []string

	for _, b := range agg.Buckets {
		date := bucketDay(b.KeyAsString)
		var dailyVolume float64
		for _, f := range b.Feature.Buckets {
			name := featureTraffic
			if f.Key == stellar.MsgTypeIDSMalware {
				name = featureIDSMalware
			}
			stats.DailyVolumeByFeature = append(stats.DailyVolumeByFeature, domain.DailySourceVolume{
				Date:   date,
				Name:   name,
				Volume: f.OutBytesDeltaTotal.Value,
			})
			dailyVolume += f.OutBytesDeltaTotal.Value

			if _, seen := cumulative[name]; !seen {
				order = append(order, name)
			}
			cumulative[name] += f.OutBytesDeltaTotal.Value
		}
		stats.VolumePerDay.Dates = append(stats.VolumePerDay.Dates, date)
		stats.VolumePerDay.Values = append(stats.VolumePerDay.Values, dailyVolume)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return cumulative[order[i]] > cumulative[order[j]]
	})
	for _, name := range order {
		stats.CumulativeVolumeByFeat = append(stats.CumulativeVolumeByFeat, domain.SourceVolume{
			Name:   name,
			Volume: cumulative[name],
		})
	}

	unique, err := s.uniqueSensorCount(ctx, index, filter)
	if err != nil {
		return nil, fmt.Errorf("security sensor unique count failed: %w", err)
	}
	stats.UniqueSensors = unique

	return stats, nil
}
