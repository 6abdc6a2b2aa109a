package stellar

// Query builders for the platform's search path. All builders are
// stateless: the same inputs always produce an identical descriptor, and
// no builder performs I/O.

import "fmt"

// AllTenants is the sentinel used when no tenant filter is requested.
const AllTenants = "All Tenants"

// On-premises index patterns per data domain.
const (
	onPremAlertIndex   = "aella-ser-*"
	onPremTrafficIndex = "aella-ade-*"
	onPremAssetIndex   = "aella-assets-*"

	// VolumeLicenseIndex holds on-prem throughput license records.
	VolumeLicenseIndex = "aella-metalicense-1"
	// AssetLicenseIndex holds on-prem asset usage license records.
	AssetLicenseIndex = "aella-assetlicense-1"
)

// Message-type codes distinguishing traffic classes on the traffic index.
const (
	MsgTypeIDSMalware    = 33
	MsgTypeLinuxAgent    = 34
	MsgTypeWindowsSensor = 35
	MsgTypeTraffic       = 37
	MsgTypeLogSource     = 39
	MsgTypeConnector     = 40
)

// Score thresholds. Critical and high-fidelity are inclusive lower bounds;
// "High" is the half-open band [50, 75) so a score of exactly 75 counts
// only as critical.
const (
	CriticalScoreMin = 75
	HighScoreMin     = 50
)

const (
	termsAggSize     = 1000
	alertTypeAggSize = 10000
)

// AlertIndex returns the alert index pattern, org-scoped when orgID is set.
func AlertIndex(orgID string) string {
	if orgID == "" {
		return onPremAlertIndex
	}
	return fmt.Sprintf("stellar-index-v1-ser-%s-*", orgID)
}

// TrafficIndex returns the device-traffic index pattern, org-scoped when
// orgID is set.
func TrafficIndex(orgID string) string {
	if orgID == "" {
		return onPremTrafficIndex
	}
	return fmt.Sprintf("stellar-index-v1-ade-%s-*", orgID)
}

// AssetIndex returns the asset index pattern, org-scoped when orgID is set.
func AssetIndex(orgID string) string {
	if orgID == "" {
		return onPremAssetIndex
	}
	return fmt.Sprintf("stellar-index-v1-assets-%s-*", orgID)
}

// TenantFilter matches the literal tenant name, defaulting to the
// AllTenants sentinel when tenant is empty so callers never special-case
// the aggregate query.
func TenantFilter(tenant string) map[string]any {
	name := tenant
	if name == "" {
		name = AllTenants
	}
	return map[string]any{
		"bool": map[string]any{
			"should": []any{
				map[string]any{
					"match_phrase": map[string]any{"tenant_name": name},
				},
			},
			"minimum_should_match": 1,
		},
	}
}

// DateFilter matches the inclusive [start, end] window on the timestamp
// field with a format-tolerant comparison.
func DateFilter(startDate, endDate string) map[string]any {
	return map[string]any{
		"range": map[string]any{
			"timestamp": map[string]any{
				"gte":    startDate,
				"lte":    endDate,
				"format": "strict_date_optional_time",
			},
		},
	}
}

// ScoreFilter builds a generic (field, operator, threshold) range filter.
func ScoreFilter(field, op string, score float64) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"should": []any{
				map[string]any{
					"range": map[string]any{
						field: map[string]any{op: score},
					},
				},
			},
			"minimum_should_match": 1,
		},
	}
}

// MsgTypeFilter matches a single message-type code.
func MsgTypeFilter(msgType int) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"should": []any{
				map[string]any{
					"match": map[string]any{"msgtype": msgType},
				},
			},
			"minimum_should_match": 1,
		},
	}
}

// MsgTypesFilter matches any of the given message-type codes.
func MsgTypesFilter(msgTypes ...int) map[string]any {
	should := make([]any, 0, len(msgTypes))
	for _, mt := range msgTypes {
		should = append(should, MsgTypeFilter(mt))
	}
	return map[string]any{
		"bool": map[string]any{
			"should":               should,
			"minimum_should_match": 1,
		},
	}
}

// SensorModeFilter matches a sensor mode across the two historical
// encodings of the deployment feature ("ds" and "modular"). Both encodings
// coexist in the data, so the filter ORs them.
func SensorModeFilter(mode string) map[string]any {
	encoding := func(feature string) map[string]any {
		return map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{
						"bool": map[string]any{
							"should": []any{
								map[string]any{"match_phrase": map[string]any{"feature": feature}},
							},
							"minimum_should_match": 1,
						},
					},
					map[string]any{
						"bool": map[string]any{
							"should": []any{
								map[string]any{"match_phrase": map[string]any{"mode": mode}},
							},
							"minimum_should_match": 1,
						},
					},
				},
			},
		}
	}
	return map[string]any{
		"bool": map[string]any{
			"should": []any{
				encoding("ds"),
				encoding("modular"),
			},
			"minimum_should_match": 1,
		},
	}
}

// FeatureFilter matches a sensor feature code directly (wds, sds).
func FeatureFilter(feature string) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"should": []any{
				map[string]any{
					"match": map[string]any{"feature": feature},
				},
			},
			"minimum_should_match": 1,
		},
	}
}

// CombineFilters wraps multiple filters into one conjunctive bool filter.
func CombineFilters(filters ...map[string]any) map[string]any {
	combined := make([]any, 0, len(filters))
	for _, f := range filters {
		combined = append(combined, f)
	}
	return map[string]any{
		"bool": map[string]any{"filter": combined},
	}
}

// QueryFilter assembles the filter clause list passed to query builders,
// skipping nil clauses.
func QueryFilter(filters ...map[string]any) []any {
	clause := make([]any, 0, len(filters))
	for _, f := range filters {
		if f == nil {
			continue
		}
		clause = append(clause, f)
	}
	return clause
}

// boolQuery is the common query skeleton shared by all search queries.
func boolQuery(queryFilter []any) map[string]any {
	return map[string]any{
		"bool": map[string]any{
			"must":     []any{},
			"filter":   queryFilter,
			"should":   []any{},
			"must_not": []any{},
		},
	}
}

// dateHistogram is the daily, UTC-aligned, zero-filled histogram used by
// every time-series query.
func dateHistogram(startDate, endDate string) map[string]any {
	return map[string]any{
		"field":             "timestamp",
		"calendar_interval": "1d",
		"time_zone":         "+00:00",
		"min_doc_count":     0,
		"extended_bounds": map[string]any{
			"min": startDate,
			"max": endDate,
		},
	}
}

// TimeseriesAgg selects the sub-aggregation nested in a time-series query.
type TimeseriesAgg int

const (
	// AggVolumeSum sums outbound byte deltas per day.
	AggVolumeSum TimeseriesAgg = iota
	// AggSecurityFeature splits the per-day byte sum by message type.
	AggSecurityFeature
	// AggKillchainStage counts per day by kill-chain stage.
	AggKillchainStage
	// AggStageTactic counts per day by kill-chain stage, then tactic.
	AggStageTactic
)

// TimeseriesQuery builds a daily histogram query with the selected nested
// sub-aggregation.
func TimeseriesQuery(startDate, endDate string, queryFilter []any, agg TimeseriesAgg) map[string]any {
	var aggs map[string]any
	switch agg {
	case AggSecurityFeature:
		aggs = map[string]any{
			"feature": map[string]any{
				"terms": map[string]any{
					"field": "msgtype",
					"order": map[string]any{"out_bytes_delta_total": "desc"},
					"size":  termsAggSize,
				},
				"aggs": map[string]any{
					"out_bytes_delta_total": map[string]any{
						"sum": map[string]any{"field": "out_bytes_delta"},
					},
				},
			},
		}
	case AggKillchainStage:
		aggs = map[string]any{
			"stage": map[string]any{
				"terms": map[string]any{
					"field": "xdr_event.xdr_killchain_stage.keyword",
					"order": map[string]any{"_count": "desc"},
					"size":  termsAggSize,
				},
			},
		}
	case AggStageTactic:
		aggs = map[string]any{
			"stage": map[string]any{
				"terms": map[string]any{
					"field": "xdr_event.xdr_killchain_stage.keyword",
					"order": map[string]any{"_count": "desc"},
					"size":  termsAggSize,
				},
				"aggs": map[string]any{
					"tactic": map[string]any{
						"terms": map[string]any{"field": "xdr_event.tactic.name.keyword"},
					},
				},
			},
		}
	default:
		aggs = map[string]any{
			"out_bytes_delta_total": map[string]any{
				"sum": map[string]any{"field": "out_bytes_delta"},
			},
		}
	}

	return map[string]any{
		"aggs": map[string]any{
			"date": map[string]any{
				"date_histogram": dateHistogram(startDate, endDate),
				"aggs":           aggs,
			},
		},
		"size":  0,
		"query": boolQuery(queryFilter),
	}
}

// SourceTimeseriesQuery builds a daily histogram with a per-source byte-sum
// terms sub-aggregation, used by the connector and log-source families.
func SourceTimeseriesQuery(startDate, endDate string, queryFilter []any, termsField, sumField string) map[string]any {
	return map[string]any{
		"aggs": map[string]any{
			"date": map[string]any{
				"date_histogram": dateHistogram(startDate, endDate),
				"aggs": map[string]any{
					"source": map[string]any{
						"terms": map[string]any{
							"field": termsField,
							"order": map[string]any{"out_bytes_delta_total": "desc"},
							"size":  termsAggSize,
						},
						"aggs": map[string]any{
							"out_bytes_delta_total": map[string]any{
								"sum": map[string]any{"field": sumField},
							},
						},
					},
				},
			},
		},
		"size":  0,
		"query": boolQuery(queryFilter),
	}
}

// BaseCountQuery builds a daily histogram that counts matching documents
// per day with no sub-aggregation.
func BaseCountQuery(startDate, endDate string, queryFilter []any) map[string]any {
	return map[string]any{
		"aggs": map[string]any{
			"date": map[string]any{
				"date_histogram": map[string]any{
					"field":             "timestamp",
					"calendar_interval": "1d",
					"min_doc_count":     0,
					"extended_bounds": map[string]any{
						"min": startDate,
						"max": endDate,
					},
				},
			},
		},
		"size":  0,
		"query": boolQuery(queryFilter),
	}
}

// MetricHistogramQuery builds a daily histogram with a single named metric
// sub-aggregation, used against the license indexes (max throughput, sum of
// asset usage). License records carry UTC timestamps already, so no
// time-zone adjustment is applied.
func MetricHistogramQuery(startDate, endDate string, queryFilter []any, aggName, metric, field string) map[string]any {
	return map[string]any{
		"aggs": map[string]any{
			"date": map[string]any{
				"date_histogram": map[string]any{
					"field":             "timestamp",
					"calendar_interval": "1d",
					"min_doc_count":     0,
					"extended_bounds": map[string]any{
						"min": startDate,
						"max": endDate,
					},
				},
				"aggs": map[string]any{
					aggName: map[string]any{
						metric: map[string]any{"field": field},
					},
				},
			},
		},
		"size":  0,
		"query": boolQuery(queryFilter),
	}
}

// UniqueCountQuery builds a cardinality query on the sensor identifier.
func UniqueCountQuery(queryFilter []any) map[string]any {
	return map[string]any{
		"aggs": map[string]any{
			"unique_sensors": map[string]any{
				"cardinality": map[string]any{"field": "engid.keyword"},
			},
		},
		"size":  0,
		"query": boolQuery(queryFilter),
	}
}

// TopQuery builds a top-N query sorted descending by the given field.
func TopQuery(field string, size int, queryFilter []any) map[string]any {
	return map[string]any{
		"sort": []any{
			map[string]any{field: map[string]any{"order": "desc"}},
		},
		"size":  size,
		"query": boolQuery(queryFilter),
	}
}

// AlertTypesQuery builds a capped terms aggregation over alert type names,
// used for the distinct alert-type count.
func AlertTypesQuery(queryFilter []any) map[string]any {
	return map[string]any{
		"aggs": map[string]any{
			"alert_type": map[string]any{
				"terms": map[string]any{
					"field": "xdr_event.name.keyword",
					"order": map[string]any{"_count": "desc"},
					"size":  alertTypeAggSize,
				},
			},
		},
		"size":  0,
		"query": boolQuery(queryFilter),
	}
}

// CountryQuery builds a terms aggregation over source country codes.
func CountryQuery(queryFilter []any) map[string]any {
	return map[string]any{
		"aggs": map[string]any{
			"country": map[string]any{
				"terms": map[string]any{
					"field": "srcip_geo.countryCode.keyword",
					"order": map[string]any{"_count": "desc"},
					"size":  termsAggSize,
				},
			},
		},
		"size":  0,
		"query": boolQuery(queryFilter),
	}
}
