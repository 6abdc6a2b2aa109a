package stats

import (
	"context"
	"testing"
)

const sensorSeriesBody = `{
  "aggregations": {
    "date": {
      "buckets": [
        {"key_as_string": "2026-01-01T00:00:00.000Z", "doc_count": 4, "out_bytes_delta_total": {"value": 500}},
        {"key_as_string": "2026-01-02T00:00:00.000Z", "doc_count": 0, "out_bytes_delta_total": {"value": 0}},
        {"key_as_string": "2026-01-03T00:00:00.000Z", "doc_count": 2, "out_bytes_delta_total": {"value": 250}}
      ]
    }
  }
}`

const uniqueCountBody = `{"aggregations": {"unique_sensors": {"value": 7}}}`

func TestLinuxSensorStats_SeriesAndUniqueCount(t *testing.T) {
	search := &mockSearch{bodies: []string{sensorSeriesBody, uniqueCountBody}}
	svc := newTestService(search, &mockCases{})

	stats, err := svc.LinuxSensorStats(context.Background(), testWindow(""))
	if err != nil {
		t.Fatalf("LinuxSensorStats() error: %v", err)
	}

	if stats.CumulativeVolume != 750 {
		t.Errorf("cumulative = %v, want 750", stats.CumulativeVolume)
	}
	if stats.UniqueSensors != 7 {
		t.Errorf("unique sensors = %d, want 7", stats.UniqueSensors)
	}
	if len(stats.VolumePerDay.Dates) != 3 || stats.VolumePerDay.Dates[1] != "2026-01-02" {
		t.Errorf("dates = %v", stats.VolumePerDay.Dates)
	}
	if len(search.calls) != 2 {
		t.Fatalf("calls = %d, want series + cardinality", len(search.calls))
	}
}

func TestWindowsSensorStats_FilterShape(t *testing.T) {
	search := &mockSearch{bodies: []string{emptyHistogramBody, uniqueCountBody}}
	svc := newTestService(search, &mockCases{})

	if _, err := svc.WindowsSensorStats(context.Background(), testWindow("")); err != nil {
		t.Fatalf("WindowsSensorStats() error: %v", err)
	}

	filter, ok := digQuery(t, search.calls[0].query, "query", "bool")["filter"].([]any)
	if !ok || len(filter) != 2 {
		t.Fatalf("filter = %v", filter)
	}
	scoped := filter[0].(map[string]any)
	clauses, ok := scoped["bool"].(map[string]any)["filter"].([]any)
	if !ok || len(clauses) != 2 {
		t.Fatalf("scoped clauses = %v, want feature + msgtype", scoped)
	}
	should, ok := clauses[0].(map[string]any)["bool"].(map[string]any)["should"].([]any)
	if !ok || len(should) != 1 {
		t.Fatalf("feature clause = %v", clauses[0])
	}
	match := should[0].(map[string]any)["match"].(map[string]any)
	if match["feature"] != "wds" {
		t.Errorf("feature = %v, want wds", match["feature"])
	}
}

func TestNetworkSensorStats_UsesTrafficMsgType(t *testing.T) {
	search := &mockSearch{bodies: []string{emptyHistogramBody, uniqueCountBody}}
	svc := newTestService(search, &mockCases{})

	stats, err := svc.NetworkSensorStats(context.Background(), testWindow(""))
	if err != nil {
		t.Fatalf("NetworkSensorStats() error: %v", err)
	}
	if stats.CumulativeVolume != 0 {
		t.Errorf("cumulative = %v, want 0 for empty series", stats.CumulativeVolume)
	}
}

func TestSecuritySensorStats_FeatureSplit(t *testing.T) {
	body := `{
	  "aggregations": {
	    "date": {
	      "buckets": [
	        {
	          "key_as_string": "2026-01-01T00:00:00.000Z",
	          "doc_count": 5,
	          "feature": {
	            "buckets": [
	              {"key": 37, "out_bytes_delta_total": {"value": 300}},
	              {"key": 33, "out_bytes_delta_total": {"value": 120}}
	            ]
	          }
	        },
	        {
	          "key_as_string": "2026-01-02T00:00:00.000Z",
	          "doc_count": 1,
	          "feature": {
	            "buckets": [
	              {"key": 33, "out_bytes_delta_total": {"value": 400}}
	            ]
	          }
	        }
	      ]
	    }
	  }
	}`
	search := &mockSearch{bodies: []string{body, uniqueCountBody}}
	svc := newTestService(search, &mockCases{})

	stats, err := svc.SecuritySensorStats(context.Background(), testWindow(""))
	if err != nil {
		t.Fatalf("SecuritySensorStats() error: %v", err)
	}

	if stats.DailyVolumeByFeature[0].Name != featureTraffic {
		t.Errorf("feature[0] = %q", stats.DailyVolumeByFeature[0].Name)
	}
	if stats.DailyVolumeByFeature[1].Name != featureIDSMalware {
		t.Errorf("feature[1] = %q", stats.DailyVolumeByFeature[1].Name)
	}

	// IDS & malware accumulates 520 and outranks traffic's 300.
	if stats.CumulativeVolumeByFeat[0].Name != featureIDSMalware || stats.CumulativeVolumeByFeat[0].Volume != 520 {
		t.Errorf("top feature = %+v", stats.CumulativeVolumeByFeat[0])
	}
	if stats.VolumePerDay.Values[0] != 420 || stats.VolumePerDay.Values[1] != 400 {
		t.Errorf("daily totals = %v", stats.VolumePerDay.Values)
	}
	if stats.UniqueSensors != 7 {
		t.Errorf("unique sensors = %d", stats.UniqueSensors)
	}
}
