package stats

import (
	"context"
	"testing"
)

const topAssetsBody = `{
  "hits": {
    "total": {"value": 2},
    "hits": [
      {
        "_source": {
          "name": "dc01",
          "risk_score": 97.2,
          "mac": ["00:1a:2b:3c:4d:5e", "00:1a:2b:3c:4d:5f"],
          "ip": ["10.0.0.5", "10.0.0.6"],
          "data_sources": ["Windows Sensor", "office365"],
          "location": "Austin,TX,US"
        }
      },
      {
        "_source": {
          "name": "web01",
          "risk_score": 88.0,
          "mac": "00:aa:bb:cc:dd:ee",
          "ip": ["192.168.1.10"],
          "data_sources": ["Network Sensor - Traffic"]
        }
      }
    ]
  }
}`

func TestTopAssetsStats_Records(t *testing.T) {
	search := &mockSearch{bodies: []string{topAssetsBody}}
	svc := newTestService(search, &mockCases{})

	stats, err := svc.TopAssetsStats(context.Background(), testWindow(""))
	if err != nil {
		t.Fatalf("TopAssetsStats() error: %v", err)
	}
	if len(stats.TopAssets) != 2 {
		t.Fatalf("assets = %d, want 2", len(stats.TopAssets))
	}

	first := stats.TopAssets[0]
	if first.Name != "dc01" || first.RiskScore != 97.2 {
		t.Errorf("first = %+v", first)
	}
	if first.MACs != "00:1a:2b:3c:4d:5e\n00:1a:2b:3c:4d:5f" {
		t.Errorf("macs = %q", first.MACs)
	}
	if first.IPs != "10.0.0.5\n10.0.0.6" {
		t.Errorf("ips = %q", first.IPs)
	}
	if first.Location != "Austin, TX, US" {
		t.Errorf("location = %q", first.Location)
	}

	second := stats.TopAssets[1]
	if second.MACs != "00:aa:bb:cc:dd:ee" {
		t.Errorf("scalar mac = %q", second.MACs)
	}
	if second.Location != "" {
		t.Errorf("missing location = %q, want empty", second.Location)
	}
}

func TestTopAssetsStats_QuerySortsByRisk(t *testing.T) {
	search := &mockSearch{bodies: []string{topAssetsBody}}
	svc := newTestService(search, &mockCases{})

	if _, err := svc.TopAssetsStats(context.Background(), testWindow("")); err != nil {
		t.Fatalf("TopAssetsStats() error: %v", err)
	}

	q := search.calls[0].query
	if q["size"] != topAssetCount {
		t.Errorf("size = %v, want %d", q["size"], topAssetCount)
	}
	sortClause, ok := q["sort"].([]any)
	if !ok || len(sortClause) != 1 {
		t.Fatalf("sort = %v", q["sort"])
	}
	if _, ok := sortClause[0].(map[string]any)["risk_score"]; !ok {
		t.Errorf("sort field missing risk_score: %v", sortClause[0])
	}
}
