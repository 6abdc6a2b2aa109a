package stats

import (
	"context"
	"testing"
)

const countryBucketsBody = `{
  "aggregations": {
    "country": {
      "buckets": [
        {"key": "US", "doc_count": 40},
        {"key": "DE", "doc_count": 12},
        {"key": "XX", "doc_count": 3}
      ]
    }
  }
}`

func TestAlertGeoStats_ResolvesAlpha3(t *testing.T) {
	search := &mockSearch{bodies: []string{countryBucketsBody}}
	svc := newTestService(search, &mockCases{})

	stats, err := svc.AlertGeoStats(context.Background(), testWindow(""))
	if err != nil {
		t.Fatalf("AlertGeoStats() error: %v", err)
	}

	counts := stats.HighFidelityCountByCountry
	if len(counts) != 3 {
		t.Fatalf("countries = %d, want 3", len(counts))
	}
	if counts[0].Alpha2 != "US" || counts[0].Alpha3 != "USA" || counts[0].Count != 40 {
		t.Errorf("first = %+v", counts[0])
	}
	if counts[1].Alpha3 != "DEU" {
		t.Errorf("second alpha3 = %q", counts[1].Alpha3)
	}
}

func TestAlertGeoStats_UnresolvableKeepsCount(t *testing.T) {
	search := &mockSearch{bodies: []string{countryBucketsBody}}
	svc := newTestService(search, &mockCases{})

	stats, err := svc.AlertGeoStats(context.Background(), testWindow(""))
	if err != nil {
		t.Fatalf("AlertGeoStats() error: %v", err)
	}

	unknown := stats.HighFidelityCountByCountry[2]
	if unknown.Alpha2 != "XX" || unknown.Alpha3 != "" {
		t.Errorf("unknown country = %+v", unknown)
	}
	if unknown.Count != 3 {
		t.Errorf("unknown count = %d, want 3 (retained)", unknown.Count)
	}

	var total int64
	for _, c := range stats.HighFidelityCountByCountry {
		total += c.Count
	}
	if total != 55 {
		t.Errorf("total = %d, want conserved 55", total)
	}
}
