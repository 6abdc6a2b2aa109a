package stats

import (
	"context"
	"fmt"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

// AlertStageStats builds the dense (stage x day) matrix of high-fidelity
// alert counts. Rows follow the fixed kill-chain stage order; stages
// outside the taxonomy are dropped.
func (s *Service) AlertStageStats(ctx context.Context, w Window) (*domain.AlertStageStats, error) {
	filter := highFidelityFilter(w)
	query := stellar.TimeseriesQuery(w.StartDate, w.EndDate, filter, stellar.AggKillchainStage)

	res, err := s.search.Search(ctx, stellar.AlertIndex(s.orgID), query)
	if err != nil {
		return nil, fmt.Errorf("alert stage query failed: %w", err)
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
					Key      string `json:"key"`
					DocCount int64  `json:"doc_count"`
				} `json:"buckets"`
			} `json:"stage"`
		} `json:"buckets"`
	}
	if err := unmarshalAgg(esResp.Aggregations, "date", &agg); err != nil {
		return nil, err
	}

	stageIndex := make(map[string]int, len(domain.KillChainStages))
	for i, stage := range domain.KillChainStages {
		stageIndex[stage] = i
	}

	stats := &domain.AlertStageStats{
		Stages:      append([]string(nil), domain.KillChainStages...),
		CountMatrix: make([][]int64, len(domain.KillChainStages)),
	}
	for i := range stats.CountMatrix {
		stats.CountMatrix[i] = make([]int64, len(agg.Buckets))
	}

	for col, b := range agg.Buckets {
		stats.Dates = append(stats.Dates, bucketDay(b.KeyAsString))
		for _, stage := range b.Stage.Buckets {
			if row, ok := stageIndex[stage.Key]; ok {
				stats.CountMatrix[row][col] = stage.DocCount
			}
		}
	}

	return stats, nil
}
