package stats

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func countBody(counts ...int64) string {
	dates := []string{"2026-01-01", "2026-01-02", "2026-01-03"}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf(`{"key_as_string":"%sT00:00:00.000Z","doc_count":%d}`, dates[i], c)
	}
	return `{"aggregations":{"date":{"buckets":[` + strings.Join(parts, ",") + `]}}}`
}

const alertTypesBody = `{
  "aggregations": {
    "alert_type": {
      "buckets": [
        {"key": "External Firewall Denial", "doc_count": 12},
        {"key": "Bad Reputation Login", "doc_count": 5}
      ]
    }
  }
}`

const topAlertsBody = `{
  "hits": {
    "total": {"value": 2},
    "hits": [
      {
        "_source": {
          "timestamp": 1767268800000,
          "event_score": 92.5,
          "xdr_event": {
            "display_name": "Internal RDP Brute Force",
            "xdr_killchain_stage": "Initial Attempts",
            "description": "Multiple failed RDP logins.",
            "tactic": {"name": "Credential Access"},
            "technique": {"name": "Brute Force"}
          }
        }
      },
      {
        "_source": {
          "timestamp": 1767355200000,
          "event_score": 81.0,
          "xdr_event": {
            "display_name": "Anomalous Outbound Transfer"
          }
        }
      }
    ]
  }
}`

func TestAlertStats_CountsAndCumulatives(t *testing.T) {
	search := &mockSearch{bodies: []string{
		countBody(5, 0, 3),
		countBody(2, 0, 1),
		countBody(1, 1, 1),
		alertTypesBody,
		topAlertsBody,
	}}
	svc := newTestService(search, &mockCases{})

	stats, err := svc.AlertStats(context.Background(), testWindow(""))
	if err != nil {
		t.Fatalf("AlertStats() error: %v", err)
	}

	if stats.CumulativeAlertCount != 8 {
		t.Errorf("cumulative alerts = %d, want 8", stats.CumulativeAlertCount)
	}
	if stats.CumulativeCriticalAlertCount != 3 {
		t.Errorf("cumulative critical = %d, want 3", stats.CumulativeCriticalAlertCount)
	}
	if stats.CumulativeHighFidelityAlertCount != 3 {
		t.Errorf("cumulative high fidelity = %d, want 3", stats.CumulativeHighFidelityAlertCount)
	}
	if stats.UniqueAlertTypeCount != 2 {
		t.Errorf("unique alert types = %d, want 2", stats.UniqueAlertTypeCount)
	}
	if got := stats.CountPerDay.Counts; got[0] != 5 || got[1] != 0 || got[2] != 3 {
		t.Errorf("counts = %v", got)
	}
	if len(search.calls) != 5 {
		t.Fatalf("calls = %d, want 5", len(search.calls))
	}
}

func TestAlertStats_ScoreThresholds(t *testing.T) {
	search := &mockSearch{bodies: []string{emptyHistogramBody}}
	svc := newTestService(search, &mockCases{})

	if _, err := svc.AlertStats(context.Background(), testWindow("")); err != nil {
		t.Fatalf("AlertStats() error: %v", err)
	}

	// Second call is the critical cut on event_score, third the
	// high-fidelity cut on fidelity.
	if field := scoreFilterField(t, search.calls[1].query); field != "event_score" {
		t.Errorf("critical cut field = %q, want event_score", field)
	}
	if field := scoreFilterField(t, search.calls[2].query); field != "fidelity" {
		t.Errorf("high fidelity cut field = %q, want fidelity", field)
	}
}

// scoreFilterField extracts the range field name from an unscoped
// score-filtered count query.
func scoreFilterField(t *testing.T, query map[string]any) string {
	t.Helper()

	filter, ok := digQuery(t, query, "query", "bool")["filter"].([]any)
	if !ok || len(filter) != 2 {
		t.Fatalf("filter = %v", filter)
	}
	scoreClause := filter[0].(map[string]any)
	should, ok := scoreClause["bool"].(map[string]any)["should"].([]any)
	if !ok || len(should) != 1 {
		t.Fatalf("score clause = %v", scoreClause)
	}
	rng, ok := should[0].(map[string]any)["range"].(map[string]any)
	if !ok || len(rng) != 1 {
		t.Fatalf("range clause = %v", should[0])
	}
	for field := range rng {
		return field
	}
	return ""
}

func TestAlertStats_TopAlertRecords(t *testing.T) {
	search := &mockSearch{bodies: []string{
		emptyHistogramBody,
		emptyHistogramBody,
		emptyHistogramBody,
		alertTypesBody,
		topAlertsBody,
	}}
	svc := newTestService(search, &mockCases{})

	stats, err := svc.AlertStats(context.Background(), testWindow(""))
	if err != nil {
		t.Fatalf("AlertStats() error: %v", err)
	}
	if len(stats.TopAlerts) != 2 {
		t.Fatalf("top alerts = %d, want 2", len(stats.TopAlerts))
	}

	first := stats.TopAlerts[0]
	if first.DisplayName != "Internal RDP Brute Force" || first.Score != 92.5 {
		t.Errorf("first record = %+v", first)
	}
	if first.KillchainOverview != "Stage: Initial Attempts<br>Tactic: Credential Access<br>Technique: Brute Force" {
		t.Errorf("overview = %q", first.KillchainOverview)
	}
	if !strings.Contains(first.Timestamp, "2026") {
		t.Errorf("timestamp = %q", first.Timestamp)
	}

	second := stats.TopAlerts[1]
	if second.TacticName != "null" || second.KillchainStage != "null" || second.TechniqueName != "null" {
		t.Errorf("missing fields should render as null, got %+v", second)
	}
	if second.Description != "" {
		t.Errorf("description = %q, want empty", second.Description)
	}
	if second.KillchainOverview != "Stage: null<br>Tactic: null<br>Technique: null" {
		t.Errorf("overview = %q", second.KillchainOverview)
	}
}
