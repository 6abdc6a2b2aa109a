package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

// AlertTacticStats builds the dense ((stage, tactic) x day) matrix of
// high-fidelity alert counts. Rows are ordered by the fixed stage order,
// then by first observation of each tactic within its stage; columns are
// the sorted distinct dates that carried grouped counts.
func (s *Service) AlertTacticStats(ctx context.Context, w Window) (*domain.AlertTacticStats, error) {
	filter := highFidelityFilter(w)
	query := stellar.TimeseriesQuery(w.StartDate, w.EndDate, filter, stellar.AggStageTactic)

	res, err := s.search.Search(ctx, stellar.AlertIndex(s.orgID), query)
	if err != nil {
		return nil, fmt.Errorf("alert tactic query failed: %w", err)
	}
	esResp, err := decodeSearch(res)
	if err != nil {
		return nil, err
	}

	var agg struct {
		Buckets []struct {
			KeyAsString string `json:"key_as_string"`
			Stage       struct {
				Buckets []struct {
					Key    string `json:"key"`
					Tactic struct {
						Buckets []struct {
							Key      string `json:"key"`
							DocCount int64  `json:"doc_count"`
						} `json:"buckets"`
					} `json:"tactic"`
				} `json:"buckets"`
			} `json:"stage"`
		} `json:"buckets"`
	}
	if err := unmarshalAgg(esResp.Aggregations, "date", &agg); err != nil {
		return nil, err
	}

	stageIndex := make(map[string]bool, len(domain.KillChainStages))
	for _, stage := range domain.KillChainStages {
		stageIndex[stage] = true
	}

	// counts[stage][tactic][date], with tacticOrder preserving first
	// observation within each stage.
	counts := make(map[string]map[string]map[string]int64)
	tacticOrder := make(map[string][]string)
	dateSet := make(map[string]bool)

	for _, b := range agg.Buckets {
		date := bucketDay(b.KeyAsString)
		for _, stage := range b.Stage.Buckets {
			known := stageIndex[stage.Key]
			for _, tactic := range stage.Tactic.Buckets {
				dateSet[date] = true
				if !known {
					continue
				}
				if counts[stage.Key] == nil {
					counts[stage.Key] = make(map[string]map[string]int64)
				}
				if counts[stage.Key][tactic.Key] == nil {
					counts[stage.Key][tactic.Key] = make(map[string]int64)
					tacticOrder[stage.Key] = append(tacticOrder[stage.Key], tactic.Key)
				}
				counts[stage.Key][tactic.Key][date] = tactic.DocCount
			}
		}
	}

	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	stats := &domain.AlertTacticStats{Dates: dates}
	for _, stage := range domain.KillChainStages {
		for _, tactic := range tacticOrder[stage] {
			stats.Stages = append(stats.Stages, stage)
			stats.Tactics = append(stats.Tactics, tactic)

			row := make([]int64, len(dates))
			for col, date := range dates {
				row[col] = counts[stage][tactic][date]
			}
			stats.CountMatrix = append(stats.CountMatrix, row)
		}
	}

	return stats, nil
}
