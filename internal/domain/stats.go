// Package domain defines the statistics snapshot types produced by the
// aggregation layer and consumed by report rendering. Field names are part
// of the persisted snapshot contract; renaming them breaks templated
// reports generated from older snapshots.
package domain

import "time"

// TimeSeries is a parallel pair of (date, value) sequences representing a
// daily series. For zero-filled series len(Dates) == len(Values) equals the
// date-scale length; the on-prem volume path carries exactly the buckets
// the backend returned.
type TimeSeries struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// CountSeries is a daily series of integer counts.
type CountSeries struct {
	Dates  []string `json:"dates"`
	Counts []int64  `json:"counts"`
}

// SourceVolume is one entry of a cumulative per-source volume ranking.
type SourceVolume struct {
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
}

// DailySourceVolume is one (date, source, volume) observation.
type DailySourceVolume struct {
	Date   string  `json:"date"`
	Name   string  `json:"name"`
	Volume float64 `json:"volume"`
}

// VolumeStats holds ingest-volume statistics in bytes.
type VolumeStats struct {
	VolumePerDay       TimeSeries `json:"volume_per_day"`
	AverageDailyVolume float64    `json:"average_daily_volume"`
}

// AssetStats holds licensed-asset statistics.
type AssetStats struct {
	AssetsPerDay       CountSeries `json:"assets_per_day"`
	AverageDailyAssets float64     `json:"average_daily_assets"`
}

// SourceFamilyStats holds the common shape shared by connector and
// log-source statistics: daily per-source volumes, a cumulative ranking
// sorted descending by volume, merged daily totals, and the distinct
// source count.
type SourceFamilyStats struct {
	DailyVolumeBySource  []DailySourceVolume `json:"daily_volume_by_source"`
	CumulativeVolumeList []SourceVolume      `json:"cumulative_volume_by_source"`
	VolumePerDay         TimeSeries          `json:"volume_per_day"`
	UniqueSources        int                 `json:"unique_sources"`
}

// SensorStats holds per-platform sensor statistics.
type SensorStats struct {
	VolumePerDay     TimeSeries `json:"volume_per_day"`
	CumulativeVolume float64    `json:"cumulative_volume"`
	UniqueSensors    int64      `json:"unique_sensors"`
}

// SecuritySensorStats extends SensorStats with the per-feature split
// (traffic vs. IDS & malware).
type SecuritySensorStats struct {
	DailyVolumeByFeature   []DailySourceVolume `json:"daily_volume_by_feature"`
	CumulativeVolumeByFeat []SourceVolume      `json:"cumulative_volume_by_feature"`
	VolumePerDay           TimeSeries          `json:"volume_per_day"`
	UniqueSensors          int64               `json:"unique_sensors"`
}

// AlertRecord is one flattened top-N alert. Optional source fields default
// to the literal string "null" rather than being omitted.
type AlertRecord struct {
	Timestamp         string  `json:"timestamp"`
	DisplayName       string  `json:"display_name"`
	Score             float64 `json:"score"`
	TacticName        string  `json:"tactic_name"`
	KillchainStage    string  `json:"killchain_stage"`
	TechniqueName     string  `json:"technique_name"`
	KillchainOverview string  `json:"killchain_overview"`
	Description       string  `json:"description,omitempty"`
}

// AlertStats holds the alert metric family.
type AlertStats struct {
	CountPerDay                      CountSeries   `json:"count_per_day"`
	CriticalCountPerDay              CountSeries   `json:"critical_count_per_day"`
	HighFidelityCountPerDay          CountSeries   `json:"high_fidelity_count_per_day"`
	TopAlerts                        []AlertRecord `json:"top_3_alerts"`
	CumulativeAlertCount             int64         `json:"cumulative_alert_count"`
	CumulativeCriticalAlertCount     int64         `json:"cumulative_critical_alert_count"`
	CumulativeHighFidelityAlertCount int64         `json:"cumulative_high_fidelity_alert_count"`
	UniqueAlertTypeCount             int           `json:"unique_alert_type_count"`
}

// AlertStageStats is a dense (stage x day) high-fidelity count matrix.
// Rows follow the fixed kill-chain stage order; columns follow Dates.
type AlertStageStats struct {
	Stages      []string  `json:"stages"`
	Dates       []string  `json:"dates"`
	CountMatrix [][]int64 `json:"count_matrix"`
}

// AlertTacticStats is a dense ((stage,tactic) x day) high-fidelity count
// matrix. Stages and Tactics are parallel row labels; Dates are the sorted
// distinct dates observed in the grouped response, which may be a subset of
// the report date scale.
type AlertTacticStats struct {
	Stages      []string  `json:"stages"`
	Tactics     []string  `json:"tactics"`
	Dates       []string  `json:"dates"`
	CountMatrix [][]int64 `json:"count_matrix"`
}

// CountryCount is a high-fidelity alert count for one source country.
// Alpha3 is empty when the two-letter code could not be resolved; the count
// is retained regardless.
type CountryCount struct {
	Alpha2 string `json:"alpha_2"`
	Alpha3 string `json:"alpha_3"`
	Count  int64  `json:"count"`
}

// AlertGeoStats holds the geographic alert distribution.
type AlertGeoStats struct {
	HighFidelityCountByCountry []CountryCount `json:"high_fidelity_count_by_country"`
}

// AssetRecord is one flattened top-risk asset. List-valued source fields
// are joined with newlines for display.
type AssetRecord struct {
	Name        string  `json:"name"`
	RiskScore   float64 `json:"risk_score"`
	MACs        string  `json:"macs"`
	IPs         string  `json:"ips"`
	DataSources string  `json:"data_sources"`
	Location    string  `json:"location"`
}

// TopAssetsStats holds the top risky assets at the end of the window.
type TopAssetsStats struct {
	TopAssets []AssetRecord `json:"top_5_assets"`
}

// CaseRecord is one flattened top-N case from the case-management backend.
type CaseRecord struct {
	CreatedAt string  `json:"created_at"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
}

// CaseRow is one row of the flat case table, tagged with its calendar date
// and whether its score reached the critical band.
type CaseRow struct {
	Date      string  `json:"date"`
	CreatedAt string  `json:"created_at"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Critical  bool    `json:"is_critical"`
}

// IncidentStats holds the incident/case metric family. Its aggregation may
// be partial: a backend failure mid-phase leaves the fields computed so far.
type IncidentStats struct {
	CriticalCountPerDay             CountSeries  `json:"critical_count_per_day"`
	HighCountPerDay                 CountSeries  `json:"high_count_per_day"`
	TopIncidents                    []CaseRecord `json:"top_3_incidents"`
	Cases                           []CaseRow    `json:"cases"`
	CumulativeCriticalIncidentCount int64        `json:"cumulative_critical_incident_count"`
	HighIncidentCount               int64        `json:"high_incident_count"`
}

// Snapshot is the composite statistics snapshot for one report run. It is
// assembled once by the orchestrator and never mutated afterwards; it can
// be persisted and reloaded to reproduce a report without re-querying.
type Snapshot struct {
	Tenant    string    `json:"tenant"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	DateScale []string  `json:"date_scale"`
	QueriedAt time.Time `json:"queried_at"`

	Volume          VolumeStats         `json:"volume_stats"`
	Assets          AssetStats          `json:"asset_stats"`
	Connectors      SourceFamilyStats   `json:"connector_stats"`
	LogSources      SourceFamilyStats   `json:"log_source_stats"`
	LinuxSensors    SensorStats         `json:"linux_sensor_stats"`
	WindowsSensors  SensorStats         `json:"windows_sensor_stats"`
	NetworkSensors  SensorStats         `json:"network_sensor_stats"`
	SecuritySensors SecuritySensorStats `json:"security_sensor_stats"`
	Alerts          AlertStats          `json:"alert_stats"`
	AlertStages     AlertStageStats     `json:"alert_stage_stats"`
	AlertTactics    AlertTacticStats    `json:"alert_tactic_stats"`
	AlertGeo        AlertGeoStats       `json:"alert_geo_stats"`
	TopAssets       TopAssetsStats      `json:"top_assets_stats"`
	Incidents       IncidentStats       `json:"incident_stats"`
}

// KillChainStages is the fixed attack-lifecycle taxonomy, in order.
var KillChainStages = []string{
	"Initial Attempts",
	"Persistent Foothold",
	"Exploration",
	"Propagation",
	"Exfiltration & Impact",
}
