package stats

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"testing"

	"github.com/jonesrussell/posture-report/internal/logger"
	"github.com/jonesrussell/posture-report/internal/stellar"
)

// caseBackend answers count queries by band and list queries with canned
// incidents.
func caseBackend(criticalPerDay, highPerDay map[string]int64, incidents []stellar.CaseEntry) func(url.Values) (*stellar.PagedResponse, error) {
	return func(params url.Values) (*stellar.PagedResponse, error) {
		resp := &stellar.PagedResponse{}
		if params.Get("sort") != "" {
			resp.Data.Incidents = incidents
			resp.Data.Total = int64(len(incidents))
			return resp, nil
		}

		from, _ := strconv.ParseInt(params.Get("FROM~created_at"), 10, 64)
		date := formatEpochDay(from)
		if params.Get("TO~incident_score") != "" {
			resp.Data.Total = highPerDay[date]
		} else {
			resp.Data.Total = criticalPerDay[date]
		}
		return resp, nil
	}
}

func formatEpochDay(ms int64) string {
	switch ms {
	case 1767225600000:
		return "2026-01-01"
	case 1767312000000:
		return "2026-01-02"
	case 1767398400000:
		return "2026-01-03"
	}
	return ""
}

func TestIncidentStats_DailyCountsAndBands(t *testing.T) {
	cases := &mockCases{handle: caseBackend(
		map[string]int64{"2026-01-01": 2, "2026-01-03": 1},
		map[string]int64{"2026-01-02": 4},
		nil,
	)}
	svc := newTestService(&mockSearch{}, cases)

	stats := svc.IncidentStats(context.Background(), testWindow(""))

	if got := stats.CriticalCountPerDay.Counts; len(got) != 3 || got[0] != 2 || got[1] != 0 || got[2] != 1 {
		t.Errorf("critical counts = %v", got)
	}
	if stats.CumulativeCriticalIncidentCount != 3 {
		t.Errorf("cumulative critical = %d, want 3", stats.CumulativeCriticalIncidentCount)
	}
	if got := stats.HighCountPerDay.Counts; got[1] != 4 {
		t.Errorf("high counts = %v", got)
	}
	if stats.HighIncidentCount != 4 {
		t.Errorf("high total = %d, want 4", stats.HighIncidentCount)
	}
}

func TestIncidentStats_QueryParams(t *testing.T) {
	cases := &mockCases{}
	svc := newTestService(&mockSearch{}, cases)

	_ = svc.IncidentStats(context.Background(), testWindow(""))

	first := cases.calls[0]
	if first.Get("FROM~created_at") != "1767225600000" {
		t.Errorf("FROM~created_at = %q", first.Get("FROM~created_at"))
	}
	if first.Get("TO~created_at") != "1767311999999" {
		t.Errorf("TO~created_at = %q", first.Get("TO~created_at"))
	}
	if first.Get("FROM~incident_score") != "75" || first.Get("limit") != "1" {
		t.Errorf("critical params = %v", first)
	}

	second := cases.calls[1]
	if second.Get("FROM~incident_score") != "50" || second.Get("TO~incident_score") != "74.999" {
		t.Errorf("high band params = %v", second)
	}
}

func TestIncidentStats_TenantScope(t *testing.T) {
	cases := &mockCases{}
	svc := newTestService(&mockSearch{}, cases)

	_ = svc.IncidentStats(context.Background(), testWindow("Acme"))

	if got := cases.calls[0].Get("cust_id"); got != "t-1" {
		t.Errorf("cust_id = %q, want resolved t-1", got)
	}
}

func TestIncidentStats_TenantResolutionFailureDegrades(t *testing.T) {
	cases := &mockCases{}
	svc := NewService(&mockSearch{}, cases, &mockResolver{err: errors.New("no such tenant")}, nil, "", logger.NewNop())

	stats := svc.IncidentStats(context.Background(), testWindow("Ghost"))

	if len(cases.calls) != 0 {
		t.Errorf("backend queried %d times after failed resolution", len(cases.calls))
	}
	if len(stats.CriticalCountPerDay.Counts) != 0 {
		t.Errorf("stats = %+v, want empty", stats)
	}
}

func TestIncidentStats_MidwayFailureKeepsPartial(t *testing.T) {
	var calls int
	cases := &mockCases{handle: func(url.Values) (*stellar.PagedResponse, error) {
		calls++
		if calls > 2 {
			return nil, errors.New("backend went away")
		}
		resp := &stellar.PagedResponse{}
		resp.Data.Total = 1
		return resp, nil
	}}
	svc := newTestService(&mockSearch{}, cases)

	stats := svc.IncidentStats(context.Background(), testWindow(""))

	// Day one's critical and high counts survived the failure on day two.
	if len(stats.CriticalCountPerDay.Counts) != 1 || stats.CriticalCountPerDay.Counts[0] != 1 {
		t.Errorf("critical counts = %v", stats.CriticalCountPerDay.Counts)
	}
	if len(stats.HighCountPerDay.Counts) != 1 {
		t.Errorf("high counts = %v", stats.HighCountPerDay.Counts)
	}
	if len(stats.TopIncidents) != 0 {
		t.Errorf("top incidents = %v, want none", stats.TopIncidents)
	}
}

func TestIncidentStats_TopAndCases(t *testing.T) {
	incidents := []stellar.CaseEntry{
		{CreatedAt: 1767268800000, Name: "Lateral movement cluster", Score: 91},
		{CreatedAt: 1767355200000, Name: "Phishing campaign", Score: 62},
	}
	cases := &mockCases{handle: caseBackend(nil, nil, incidents)}
	svc := newTestService(&mockSearch{}, cases)

	stats := svc.IncidentStats(context.Background(), testWindow(""))

	if len(stats.TopIncidents) != 2 {
		t.Fatalf("top incidents = %d, want 2", len(stats.TopIncidents))
	}
	if stats.TopIncidents[0].Name != "Lateral movement cluster" || stats.TopIncidents[0].Score != 91 {
		t.Errorf("top incident = %+v", stats.TopIncidents[0])
	}

	if len(stats.Cases) != 2 {
		t.Fatalf("cases = %d, want 2", len(stats.Cases))
	}
	if stats.Cases[0].Date != "2026-01-01" {
		t.Errorf("case date = %q", stats.Cases[0].Date)
	}
	if !stats.Cases[0].Critical {
		t.Error("score 91 should be critical")
	}
	if stats.Cases[1].Critical {
		t.Error("score 62 should not be critical")
	}
}
