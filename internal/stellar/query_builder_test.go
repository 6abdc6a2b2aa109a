package stellar //nolint:testpackage // exercising unexported query skeleton helpers

import (
	"encoding/json"
	"testing"
)

// --- Index patterns ---

func TestIndexPatterns_OnPrem(t *testing.T) {
	t.Helper()

	if got := AlertIndex(""); got != "aella-ser-*" {
		t.Errorf("AlertIndex(\"\") = %q, want %q", got, "aella-ser-*")
	}
	if got := TrafficIndex(""); got != "aella-ade-*" {
		t.Errorf("TrafficIndex(\"\") = %q, want %q", got, "aella-ade-*")
	}
	if got := AssetIndex(""); got != "aella-assets-*" {
		t.Errorf("AssetIndex(\"\") = %q, want %q", got, "aella-assets-*")
	}
}

func TestIndexPatterns_OrgScoped(t *testing.T) {
	t.Helper()

	const orgID = "b86e449dbda34826"

	if got := AlertIndex(orgID); got != "stellar-index-v1-ser-b86e449dbda34826-*" {
		t.Errorf("AlertIndex(org) = %q", got)
	}
	if got := TrafficIndex(orgID); got != "stellar-index-v1-ade-b86e449dbda34826-*" {
		t.Errorf("TrafficIndex(org) = %q", got)
	}
	if got := AssetIndex(orgID); got != "stellar-index-v1-assets-b86e449dbda34826-*" {
		t.Errorf("AssetIndex(org) = %q", got)
	}
}

// --- Filters ---

func TestTenantFilter_NamedTenant(t *testing.T) {
	t.Helper()

	f := TenantFilter("Acme Corp")
	phrase := digMap(t, f, "bool", "should", 0, "match_phrase")
	if phrase["tenant_name"] != "Acme Corp" {
		t.Errorf("tenant_name = %v, want Acme Corp", phrase["tenant_name"])
	}
}

func TestTenantFilter_EmptyDefaultsToAllTenants(t *testing.T) {
	t.Helper()

	f := TenantFilter("")
	phrase := digMap(t, f, "bool", "should", 0, "match_phrase")
	if phrase["tenant_name"] != AllTenants {
		t.Errorf("tenant_name = %v, want %q", phrase["tenant_name"], AllTenants)
	}
}

func TestDateFilter(t *testing.T) {
	t.Helper()

	f := DateFilter("2026-01-01", "2026-01-07")
	ts := digMap(t, f, "range", "timestamp")
	if ts["gte"] != "2026-01-01" || ts["lte"] != "2026-01-07" {
		t.Errorf("range bounds = %v/%v", ts["gte"], ts["lte"])
	}
	if ts["format"] != "strict_date_optional_time" {
		t.Errorf("format = %v", ts["format"])
	}
}

func TestScoreFilter(t *testing.T) {
	t.Helper()

	f := ScoreFilter("event_score", "gte", CriticalScoreMin)
	rng := digMap(t, f, "bool", "should", 0, "range", "event_score")
	if rng["gte"] != float64(CriticalScoreMin) {
		t.Errorf("gte = %v, want 75", rng["gte"])
	}
}

func TestMsgTypesFilter_OneClausePerCode(t *testing.T) {
	t.Helper()

	f := MsgTypesFilter(MsgTypeTraffic, MsgTypeIDSMalware)
	should, ok := digMap(t, f, "bool")["should"].([]any)
	if !ok {
		t.Fatal("should clause missing")
	}
	if len(should) != 2 {
		t.Fatalf("should has %d clauses, want 2", len(should))
	}
}

func TestSensorModeFilter_CoversBothFeatureEncodings(t *testing.T) {
	t.Helper()

	f := SensorModeFilter("agent")
	should, ok := digMap(t, f, "bool")["should"].([]any)
	if !ok {
		t.Fatal("should clause missing")
	}
	if len(should) != 2 {
		t.Fatalf("should has %d encodings, want 2", len(should))
	}

	features := map[string]bool{}
	for i := range should {
		features[digMap(t, f, "bool", "should", i, "bool", "filter", 0, "bool", "should", 0, "match_phrase")["feature"].(string)] = true
		mode := digMap(t, f, "bool", "should", i, "bool", "filter", 1, "bool", "should", 0, "match_phrase")["mode"]
		if mode != "agent" {
			t.Errorf("mode = %v, want agent", mode)
		}
	}
	if !features["ds"] || !features["modular"] {
		t.Errorf("feature encodings = %v, want ds and modular", features)
	}
}

// --- Queries ---

func TestTimeseriesQuery_VolumeSum(t *testing.T) {
	t.Helper()

	q := TimeseriesQuery("2026-01-01", "2026-01-07", QueryFilter(DateFilter("2026-01-01", "2026-01-07")), AggVolumeSum)

	hist := digMap(t, q, "aggs", "date", "date_histogram")
	if hist["calendar_interval"] != "1d" {
		t.Errorf("calendar_interval = %v", hist["calendar_interval"])
	}
	if hist["time_zone"] != "+00:00" {
		t.Errorf("time_zone = %v", hist["time_zone"])
	}
	if hist["min_doc_count"] != 0 {
		t.Errorf("min_doc_count = %v", hist["min_doc_count"])
	}
	bounds := digMap(t, q, "aggs", "date", "date_histogram", "extended_bounds")
	if bounds["min"] != "2026-01-01" || bounds["max"] != "2026-01-07" {
		t.Errorf("extended_bounds = %v", bounds)
	}

	sum := digMap(t, q, "aggs", "date", "aggs", "out_bytes_delta_total", "sum")
	if sum["field"] != "out_bytes_delta" {
		t.Errorf("sum field = %v", sum["field"])
	}
	if q["size"] != 0 {
		t.Errorf("size = %v, want 0", q["size"])
	}
}

func TestTimeseriesQuery_StageTactic(t *testing.T) {
	t.Helper()

	q := TimeseriesQuery("2026-01-01", "2026-01-07", nil, AggStageTactic)

	stage := digMap(t, q, "aggs", "date", "aggs", "stage", "terms")
	if stage["field"] != "xdr_event.xdr_killchain_stage.keyword" {
		t.Errorf("stage field = %v", stage["field"])
	}
	tactic := digMap(t, q, "aggs", "date", "aggs", "stage", "aggs", "tactic", "terms")
	if tactic["field"] != "xdr_event.tactic.name.keyword" {
		t.Errorf("tactic field = %v", tactic["field"])
	}
}

func TestBaseCountQuery_NoTimeZone(t *testing.T) {
	t.Helper()

	q := BaseCountQuery("2026-01-01", "2026-01-07", nil)
	hist := digMap(t, q, "aggs", "date", "date_histogram")
	if _, ok := hist["time_zone"]; ok {
		t.Error("base count histogram should not set time_zone")
	}
	if _, ok := digMap(t, q, "aggs", "date")["aggs"]; ok {
		t.Error("base count histogram should have no sub-aggregation")
	}
}

func TestUniqueCountQuery(t *testing.T) {
	t.Helper()

	q := UniqueCountQuery(nil)
	card := digMap(t, q, "aggs", "unique_sensors", "cardinality")
	if card["field"] != "engid.keyword" {
		t.Errorf("cardinality field = %v", card["field"])
	}
}

func TestTopQuery(t *testing.T) {
	t.Helper()

	q := TopQuery("event_score", 3, nil)
	if q["size"] != 3 {
		t.Errorf("size = %v, want 3", q["size"])
	}
	sort, ok := q["sort"].([]any)
	if !ok || len(sort) != 1 {
		t.Fatalf("sort clause = %v", q["sort"])
	}
	order := digMap(t, sort[0].(map[string]any), "event_score")
	if order["order"] != "desc" {
		t.Errorf("order = %v, want desc", order["order"])
	}
}

func TestQueriesAreJSONSerializable(t *testing.T) {
	t.Helper()

	filter := QueryFilter(
		CombineFilters(TenantFilter("Acme"), SensorModeFilter("ids"), MsgTypeFilter(MsgTypeTraffic)),
		DateFilter("2026-01-01", "2026-01-07"),
	)

	queries := []map[string]any{
		TimeseriesQuery("2026-01-01", "2026-01-07", filter, AggVolumeSum),
		TimeseriesQuery("2026-01-01", "2026-01-07", filter, AggSecurityFeature),
		TimeseriesQuery("2026-01-01", "2026-01-07", filter, AggKillchainStage),
		TimeseriesQuery("2026-01-01", "2026-01-07", filter, AggStageTactic),
		SourceTimeseriesQuery("2026-01-01", "2026-01-07", filter, "msg_origin.source.keyword", "out_bytes_delta"),
		MetricHistogramQuery("2026-01-01", "2026-01-07", filter, "volume", "max", "throughput"),
		BaseCountQuery("2026-01-01", "2026-01-07", filter),
		UniqueCountQuery(filter),
		TopQuery("risk_score", 5, filter),
		AlertTypesQuery(filter),
		CountryQuery(filter),
	}
	for i, q := range queries {
		if _, err := json.Marshal(q); err != nil {
			t.Errorf("query %d not serializable: %v", i, err)
		}
	}
}

// digMap walks a nested map/slice structure built by the query builders.
// Path elements are string keys for maps and int indexes for slices.
func digMap(t *testing.T, m map[string]any, path ...any) map[string]any {
	t.Helper()

	var cur any = m
	for _, p := range path {
		switch key := p.(type) {
		case string:
			node, ok := cur.(map[string]any)
			if !ok {
				t.Fatalf("expected map at %v, got %T", p, cur)
			}
			cur, ok = node[key]
			if !ok {
				t.Fatalf("missing key %q", key)
			}
		case int:
			node, ok := cur.([]any)
			if !ok {
				t.Fatalf("expected slice at %v, got %T", p, cur)
			}
			if key >= len(node) {
				t.Fatalf("index %d out of range (%d)", key, len(node))
			}
			cur = node[key]
		}
	}
	out, ok := cur.(map[string]any)
	if !ok {
		t.Fatalf("expected map leaf, got %T", cur)
	}
	return out
}
