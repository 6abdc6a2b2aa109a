package stats

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/jonesrussell/posture-report/internal/domain"
	"github.com/jonesrussell/posture-report/internal/logger"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

const (
	incidentsRoute   = "v1/incidents"
	topIncidentCount = 3
	caseListLimit    = 1000

	// Upper bound of the high band, just below the critical threshold.
	highScoreMax = "74.999"
)

// IncidentStats aggregates case-management statistics: daily critical and
// high counts, the top incidents by score, and the flat case table. The
// case-management backend has no aggregation support, so counts are
// gathered one day at a time.
//
// Unlike the search-path aggregators this one degrades instead of failing:
// any backend error is logged and the statistics collected so far are
// returned.
func (s *Service) IncidentStats(ctx context.Context, w Window) *domain.IncidentStats {
	stats := &domain.IncidentStats{}
	if len(w.DateScale) == 0 {
		return stats
	}

	var tenantID string
	if w.Tenant != "" {
		id, err := s.tenants.TenantID(ctx, w.Tenant, w.StartDate, w.EndDate)
		if err != nil {
			s.incidentWarn("tenant resolution", err)
			return stats
		}
		tenantID = id
	}

	for _, date := range w.DateScale {
		from, to, err := dayBounds(date)
		if err != nil {
			s.incidentWarn("date scale", err)
			return stats
		}

		critical, err := s.incidentCount(ctx, tenantID, from, to, strconv.Itoa(stellar.CriticalScoreMin), "")
		if err != nil {
			s.incidentWarn("critical count", err)
			return stats
		}
		stats.CriticalCountPerDay.Dates = append(stats.CriticalCountPerDay.Dates, date)
		stats.CriticalCountPerDay.Counts = append(stats.CriticalCountPerDay.Counts, critical)
		stats.CumulativeCriticalIncidentCount += critical

		high, err := s.incidentCount(ctx, tenantID, from, to, strconv.Itoa(stellar.HighScoreMin), highScoreMax)
		if err != nil {
			s.incidentWarn("high count", err)
			return stats
		}
		stats.HighCountPerDay.Dates = append(stats.HighCountPerDay.Dates, date)
		stats.HighCountPerDay.Counts = append(stats.HighCountPerDay.Counts, high)
		stats.HighIncidentCount += high
	}

	windowFrom, _, err := dayBounds(w.DateScale[0])
	if err != nil {
		s.incidentWarn("date scale", err)
		return stats
	}
	_, windowTo, err := dayBounds(w.DateScale[len(w.DateScale)-1])
	if err != nil {
		s.incidentWarn("date scale", err)
		return stats
	}

	top, err := s.topIncidents(ctx, tenantID, windowFrom, windowTo)
	if err != nil {
		s.incidentWarn("top incidents", err)
		return stats
	}
	stats.TopIncidents = top

	cases, err := s.caseTable(ctx, tenantID, windowFrom, windowTo)
	if err != nil {
		s.incidentWarn("case table", err)
		return stats
	}
	stats.Cases = cases

	return stats
}

func (s *Service) incidentWarn(phase string, err error) {
	s.logger.Warn("incident statistics degraded",
		logger.String("phase", phase),
		logger.Error(err),
	)
}

// incidentCount counts incidents created in [from, to] whose score falls
// in [minScore, maxScore]. maxScore may be empty for an open upper bound.
func (s *Service) incidentCount(ctx context.Context, tenantID string, from, to int64, minScore, maxScore string) (int64, error) {
	params := url.Values{}
	params.Set("FROM~created_at", strconv.FormatInt(from, 10))
	params.Set("TO~created_at", strconv.FormatInt(to, 10))
	params.Set("limit", "1")
	params.Set("FROM~incident_score", minScore)
	if maxScore != "" {
		params.Set("TO~incident_score", maxScore)
	}
	if tenantID != "" {
		params.Set("cust_id", tenantID)
	}

	resp, err := s.cases.PagedQuery(ctx, incidentsRoute, params)
	if err != nil {
		return 0, err
	}
	return resp.Data.Total, nil
}

func (s *Service) topIncidents(ctx context.Context, tenantID string, from, to int64) ([]domain.CaseRecord, error) {
	params := url.Values{}
	params.Set("FROM~created_at", strconv.FormatInt(from, 10))
	params.Set("TO~created_at", strconv.FormatInt(to, 10))
	params.Set("limit", strconv.Itoa(topIncidentCount))
	params.Set("sort", "incident_score")
	params.Set("order", "desc")
	if tenantID != "" {
		params.Set("cust_id", tenantID)
	}

	resp, err := s.cases.PagedQuery(ctx, incidentsRoute, params)
	if err != nil {
		return nil, err
	}

	var records []domain.CaseRecord
	for _, incident := range resp.Data.Incidents {
		records = append(records, domain.CaseRecord{
			CreatedAt: formatEpochMillis(incident.CreatedAt),
			Name:      incident.Name,
			Score:     incident.Score,
		})
	}
	return records, nil
}

// caseTable lists the window's cases oldest first, tagging each row with
// its calendar date and whether it reached the critical band.
func (s *Service) caseTable(ctx context.Context, tenantID string, from, to int64) ([]domain.CaseRow, error) {
	params := url.Values{}
	params.Set("FROM~created_at", strconv.FormatInt(from, 10))
	params.Set("TO~created_at", strconv.FormatInt(to, 10))
	params.Set("limit", strconv.Itoa(caseListLimit))
	params.Set("sort", "created_at")
	params.Set("order", "asc")
	if tenantID != "" {
		params.Set("cust_id", tenantID)
	}

	resp, err := s.cases.PagedQuery(ctx, incidentsRoute, params)
	if err != nil {
		return nil, err
	}

	var rows []domain.CaseRow
	for _, incident := range resp.Data.Incidents {
		created := time.UnixMilli(incident.CreatedAt).UTC()
		rows = append(rows, domain.CaseRow{
			Date:      created.Format(domain.DateFormat),
			CreatedAt: formatEpochMillis(incident.CreatedAt),
			Name:      incident.Name,
			Score:     incident.Score,
			Critical:  incident.Score >= stellar.CriticalScoreMin,
		})
	}
	return rows, nil
}

// dayBounds returns the epoch-millisecond range [00:00:00.000,
// 23:59:59.999] of one UTC calendar day.
func dayBounds(date string) (int64, int64, error) {
	start, err := time.ParseInLocation(domain.DateFormat, date, time.UTC)
	if err != nil {
		return 0, 0, err
	}
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start.UnixMilli(), end.UnixMilli(), nil
}
