package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

// ConnectorStats aggregates daily and cumulative ingest volume by
// connector.
func (s *Service) ConnectorStats(ctx context.Context, w Window) (*domain.SourceFamilyStats, error) {
	return s.sourceFamilyStats(ctx, w, "connectors",
		stellar.MsgTypeFilter(stellar.MsgTypeConnector),
		"msg_origin.source.keyword", "out_bytes_delta")
}

// LogSourceStats aggregates daily and cumulative ingest volume by log
// source. Log-source volume is measured on the parsed stage output.
func (s *Service) LogSourceStats(ctx context.Context, w Window) (*domain.SourceFamilyStats, error) {
	return s.sourceFamilyStats(ctx, w, "log sources",
		stellar.MsgTypeFilter(stellar.MsgTypeLogSource),
		"stage_output.msg_origin_source.keyword", "stage_output.stats.bytes")
}

func (s *Service) sourceFamilyStats(
	ctx context.Context,
	w Window,
	family string,
	typeFilter map[string]any,
	termsField, sumField string,
) (*domain.SourceFamilyStats, error) {
	filter := stellar.QueryFilter(
		scopedFilter(w.Tenant, typeFilter),
		stellar.DateFilter(w.StartDate, w.EndDate),
	)
	query := stellar.SourceTimeseriesQuery(w.StartDate, w.EndDate, filter, termsField, sumField)

	res, err := s.search.Search(ctx, stellar.TrafficIndex(s.orgID), query)
	if err != nil {
		return nil, fmt.Errorf("%s query failed: %w", family, err)
	}
	esResp, err := decodeSearch(res)
	if err != nil {
		return nil, err
	}

	var agg struct {
		Buckets []struct {
			KeyAsString string `json:"key_as_string"`
			Source      struct {
				Buckets []struct {
					Key                string `json:"key"`
					OutBytesDeltaTotal struct {
						Value float64 `json:"value"`
					} `json:"out_bytes_delta_total"`
				} `json:"buckets"`
			} `json:"source"`
		} `json:"buckets"`
	}
	if err := unmarshalAgg(esResp.Aggregations, "date", &agg); err != nil {
		return nil, err
	}

	stats := &domain.SourceFamilyStats{}
	cumulative := make(map[string]float64)
	var order []string

	for _, b := range agg.Buckets {
		date := bucketDay(b.KeyAsString)
		var dailyVolume float64
		for _, src := range b.Source.Buckets {
			stats.DailyVolumeBySource = append(stats.DailyVolumeBySource, domain.DailySourceVolume{
				Date:   date,
				Name:   src.Key,
				Volume: src.OutBytesDeltaTotal.Value,
			})
			dailyVolume += src.OutBytesDeltaTotal.Value

			if _, seen := cumulative[src.Key]; !seen {
				order = append(order, src.Key)
			}
			cumulative[src.Key] += src.OutBytesDeltaTotal.Value
		}
		stats.VolumePerDay.Dates = append(stats.VolumePerDay.Dates, date)
		stats.VolumePerDay.Values = append(stats.VolumePerDay.Values, dailyVolume)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return cumulative[order[i]] > cumulative[order[j]]
	})
	for _, name := range order {
		stats.CumulativeVolumeList = append(stats.CumulativeVolumeList, domain.SourceVolume{
			Name:   name,
			Volume: cumulative[name],
		})
	}

	stats.UniqueSources = len(cumulative)
	return stats, nil
}
