package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/jonesrussell/posture-report/internal/domain"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

const topDataSourceCount = 10

// dataSourceRow is one row of the top-data-sources table.
type dataSourceRow struct {
	Category string
	Source   string
	Volume   string
}

// reportView is the flattened view model rendered by the HTML template.
type reportView struct {
	CustomerName string
	StartDate    string
	EndDate      string
	GeneratedAt  string

	CriticalIncidentCount string
	HighIncidentCount     string
	CriticalAlertCount    string
	DistinctAlertTypes    string

	AverageDailyVolume  string
	AverageDailyAssets  string
	DistinctDataSources string

	SecuritySensorCount string
	WindowsSensorCount  string
	LinuxSensorCount    string

	TopIncidents   []domain.CaseRecord
	TopAlerts      []domain.AlertRecord
	TopAssets      []domain.AssetRecord
	TopDataSources []dataSourceRow
}

var reportTemplate = template.Must(template.New("report.html.tmpl").
	Funcs(template.FuncMap{
		// overview re-renders the Stage/Tactic/Technique summary with
		// real line breaks instead of the stored <br> separators.
		"overview": func(s string) template.HTML {
			parts := strings.Split(s, "<br>")
			for i, p := range parts {
				parts[i] = template.HTMLEscapeString(p)
			}
			return template.HTML(strings.Join(parts, "<br>")) //nolint:gosec
		},
		"multiline": func(s string) template.HTML {
			parts := strings.Split(s, "\n")
			for i, p := range parts {
				parts[i] = template.HTMLEscapeString(p)
			}
			return template.HTML(strings.Join(parts, "<br>")) //nolint:gosec
		},
	}).
	ParseFS(templateFS, "templates/report.html.tmpl"))

// RenderHTML renders the full HTML report for a snapshot.
func RenderHTML(snap *domain.Snapshot) ([]byte, error) {
	combined := snap.CombineDataSources()

	view := reportView{
		CustomerName: customerName(snap.Tenant),
		StartDate:    snap.StartDate,
		EndDate:      snap.EndDate,
		GeneratedAt:  snap.QueriedAt.UTC().Format(time.DateTime),

		CriticalIncidentCount: HumanCount(float64(snap.Incidents.CumulativeCriticalIncidentCount), 2),
		HighIncidentCount:     HumanCount(float64(snap.Incidents.HighIncidentCount), 0),
		CriticalAlertCount:    HumanCount(float64(snap.Alerts.CumulativeCriticalAlertCount), 2),
		DistinctAlertTypes:    HumanCount(float64(snap.Alerts.UniqueAlertTypeCount), 2),

		AverageDailyVolume:  HumanBytes(snap.Volume.AverageDailyVolume, 2),
		AverageDailyAssets:  HumanCount(snap.Assets.AverageDailyAssets, 2),
		DistinctDataSources: HumanCount(float64(len(combined)), 0),

		SecuritySensorCount: HumanCount(float64(snap.SecuritySensors.UniqueSensors), 0),
		WindowsSensorCount:  HumanCount(float64(snap.WindowsSensors.UniqueSensors), 0),
		LinuxSensorCount:    HumanCount(float64(snap.LinuxSensors.UniqueSensors), 0),

		TopIncidents: snap.Incidents.TopIncidents,
		TopAlerts:    snap.Alerts.TopAlerts,
		TopAssets:    snap.TopAssets.TopAssets,
	}

	for i, ds := range combined {
		if i == topDataSourceCount {
			break
		}
		view.TopDataSources = append(view.TopDataSources, dataSourceRow{
			Category: ds.Category,
			Source:   ds.Source,
			Volume:   HumanBytes(ds.VolumeGB*1e9, 2),
		})
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render HTML report: %w", err)
	}
	return buf.Bytes(), nil
}

// customerName maps the empty tenant to the all-tenants display name.
func customerName(tenant string) string {
	if tenant == "" {
		return "All Tenants"
	}
	return tenant
}
