package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

const topAlertCount = 3

// missingField is substituted for absent optional alert fields so the
// rendered tables stay aligned.
const missingField = "null"

// AlertStats aggregates daily alert counts at the three severity cuts,
// the distinct alert-type count, and the top alerts by score.
func (s *Service) AlertStats(ctx context.Context, w Window) (*domain.AlertStats, error) {
	index := stellar.AlertIndex(s.orgID)
	stats := &domain.AlertStats{}

	baseFilter := stellar.QueryFilter(
		scopedFilter(w.Tenant),
		stellar.DateFilter(w.StartDate, w.EndDate),
	)

	all, err := s.dailyCounts(ctx, index, w, baseFilter)
	if err != nil {
		return nil, fmt.Errorf("alert count query failed: %w", err)
	}
	stats.CountPerDay = all
	stats.CumulativeAlertCount = sumCounts(all.Counts)

	critical, err := s.dailyCounts(ctx, index, w, stellar.QueryFilter(
		scopedFilter(w.Tenant, stellar.ScoreFilter("event_score", "gte", stellar.CriticalScoreMin)),
		stellar.DateFilter(w.StartDate, w.EndDate),
	))
	if err != nil {
		return nil, fmt.Errorf("critical alert count query failed: %w", err)
	}
	stats.CriticalCountPerDay = critical
	stats.CumulativeCriticalAlertCount = sumCounts(critical.Counts)

	highFidelity, err := s.dailyCounts(ctx, index, w, highFidelityFilter(w))
	if err != nil {
		return nil, fmt.Errorf("high fidelity alert count query failed: %w", err)
	}
	stats.HighFidelityCountPerDay = highFidelity
	stats.CumulativeHighFidelityAlertCount = sumCounts(highFidelity.Counts)

	uniqueTypes, err := s.uniqueAlertTypeCount(ctx, index, baseFilter)
	if err != nil {
		return nil, fmt.Errorf("alert type query failed: %w", err)
	}
	stats.UniqueAlertTypeCount = uniqueTypes

	top, err := s.topAlerts(ctx, index, baseFilter)
	if err != nil {
		return nil, fmt.Errorf("top alert query failed: %w", err)
	}
	stats.TopAlerts = top

	return stats, nil
}

// highFidelityFilter scopes to alerts whose detection fidelity reached the
// critical band.
func highFidelityFilter(w Window) []any {
	return stellar.QueryFilter(
		scopedFilter(w.Tenant, stellar.ScoreFilter("fidelity", "gte", stellar.CriticalScoreMin)),
		stellar.DateFilter(w.StartDate, w.EndDate),
	)
}

func (s *Service) dailyCounts(ctx context.Context, index string, w Window, filter []any) (domain.CountSeries, error) {
	res, err := s.search.Search(ctx, index, stellar.BaseCountQuery(w.StartDate, w.EndDate, filter))
	if err != nil {
		return domain.CountSeries{}, err
	}
	esResp, err := decodeSearch(res)
	if err != nil {
		return domain.CountSeries{}, err
	}

	var agg countBuckets
	if err := unmarshalAgg(esResp.Aggregations, "date", &agg); err != nil {
		return domain.CountSeries{}, err
	}

	var series domain.CountSeries
	for _, b := range agg.Buckets {
		series.Dates = append(series.Dates, bucketDay(b.KeyAsString))
		series.Counts = append(series.Counts, b.DocCount)
	}
	return series, nil
}

func (s *Service) uniqueAlertTypeCount(ctx context.Context, index string, filter []any) (int, error) {
	res, err := s.search.Search(ctx, index, stellar.AlertTypesQuery(filter))
	if err != nil {
		return 0, err
	}
	esResp, err := decodeSearch(res)
	if err != nil {
		return 0, err
	}

	var agg struct {
		Buckets []struct {
			Key string `json:"key"`
		} `json:"buckets"`
	}
	if err := unmarshalAgg(esResp.Aggregations, "alert_type", &agg); err != nil {
		return 0, err
	}
	return len(agg.Buckets), nil
}

func (s *Service) topAlerts(ctx context.Context, index string, filter []any) ([]domain.AlertRecord, error) {
	res, err := s.search.Search(ctx, index, stellar.TopQuery("event_score", topAlertCount, filter))
	if err != nil {
		return nil, err
	}
	esResp, err := decodeSearch(res)
	if err != nil {
		return nil, err
	}

	var records []domain.AlertRecord
	for _, hit := range esResp.Hits.Hits {
		var src struct {
			Timestamp  int64   `json:"timestamp"`
			EventScore float64 `json:"event_score"`
			XDREvent   struct {
				DisplayName    string `json:"display_name"`
				KillchainStage string `json:"xdr_killchain_stage"`
				Description    string `json:"description"`
				Tactic         struct {
					Name string `json:"name"`
				} `json:"tactic"`
				Technique struct {
					Name string `json:"name"`
				} `json:"technique"`
			} `json:"xdr_event"`
		}
		if err := json.Unmarshal(hit.Source, &src); err != nil {
			return nil, fmt.Errorf("failed to decode alert hit: %w", err)
		}

		record := domain.AlertRecord{
			Timestamp:      formatEpochMillis(src.Timestamp),
			DisplayName:    src.XDREvent.DisplayName,
			Score:          src.EventScore,
			TacticName:     orMissing(src.XDREvent.Tactic.Name),
			KillchainStage: orMissing(src.XDREvent.KillchainStage),
			TechniqueName:  orMissing(src.XDREvent.Technique.Name),
			Description:    src.XDREvent.Description,
		}
		record.KillchainOverview = fmt.Sprintf("Stage: %s<br>Tactic: %s<br>Technique: %s",
			record.KillchainStage, record.TacticName, record.TechniqueName)
		records = append(records, record)
	}
	return records, nil
}

func orMissing(v string) string {
	if v == "" {
		return missingField
	}
	return v
}

// formatEpochMillis renders an epoch-milliseconds timestamp in the fixed
// locale-independent layout used by the report tables.
func formatEpochMillis(ms int64) string {
	return time.Unix(ms/1000, 0).UTC().Format(time.ANSIC)
}

func sumCounts(counts []int64) int64 {
	var sum int64
	for _, c := range counts {
		sum += c
	}
	return sum
}
