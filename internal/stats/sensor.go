package stats

import (
	"context"
	"fmt"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

// LinuxSensorStats aggregates daily and cumulative volume across linux
// agent sensors.
func (s *Service) LinuxSensorStats(ctx context.Context, w Window) (*domain.SensorStats, error) {
	return s.sensorStats(ctx, w, "linux sensors",
		stellar.SensorModeFilter("agent"),
		stellar.MsgTypesFilter(stellar.MsgTypeLinuxAgent, stellar.MsgTypeTraffic))
}

// WindowsSensorStats aggregates daily and cumulative volume across windows
// sensors.
func (s *Service) WindowsSensorStats(ctx context.Context, w Window) (*domain.SensorStats, error) {
	return s.sensorStats(ctx, w, "windows sensors",
		stellar.FeatureFilter("wds"),
		stellar.MsgTypeFilter(stellar.MsgTypeWindowsSensor))
}

// NetworkSensorStats aggregates daily and cumulative traffic volume across
// network sensors.
func (s *Service) NetworkSensorStats(ctx context.Context, w Window) (*domain.SensorStats, error) {
	return s.sensorStats(ctx, w, "network sensors",
		stellar.SensorModeFilter("ids"),
		stellar.MsgTypeFilter(stellar.MsgTypeTraffic))
}

func (s *Service) sensorStats(
	ctx context.Context,
	w Window,
	family string,
	typeFilter, msgTypeFilter map[string]any,
) (*domain.SensorStats, error) {
	filter := stellar.QueryFilter(
		scopedFilter(w.Tenant, typeFilter, msgTypeFilter),
		stellar.DateFilter(w.StartDate, w.EndDate),
	)
	index := stellar.TrafficIndex(s.orgID)

	res, err := s.search.Search(ctx, index, stellar.TimeseriesQuery(w.StartDate, w.EndDate, filter, stellar.AggVolumeSum))
	if err != nil {
		return nil, fmt.Errorf("%s query failed: %w", family, err)
	}
	esResp, err := decodeSearch(res)
	if err != nil {
		return nil, err
	}

	var agg sumBuckets
	if err := unmarshalAgg(esResp.Aggregations, "date", &agg); err != nil {
		return nil, err
	}

	stats := &domain.SensorStats{}
	for _, b := range agg.Buckets {
		stats.VolumePerDay.Dates = append(stats.VolumePerDay.Dates, bucketDay(b.KeyAsString))
		stats.VolumePerDay.Values = append(stats.VolumePerDay.Values, b.OutBytesDeltaTotal.Value)
		stats.CumulativeVolume += b.OutBytesDeltaTotal.Value
	}

	unique, err := s.uniqueSensorCount(ctx, index, filter)
	if err != nil {
		return nil, fmt.Errorf("%s unique count failed: %w", family, err)
	}
	stats.UniqueSensors = unique

	return stats, nil
}

func (s *Service) uniqueSensorCount(ctx context.Context, index string, filter []any) (int64, error) {
	res, err := s.search.Search(ctx, index, stellar.UniqueCountQuery(filter))
	if err != nil {
		return 0, err
	}
	esResp, err := decodeSearch(res)
	if err != nil {
		return 0, err
	}

	var card cardinalityResult
	if err := unmarshalAgg(esResp.Aggregations, "unique_sensors", &card); err != nil {
		return 0, err
	}
	return card.Value, nil
}
