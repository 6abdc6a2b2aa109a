package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/jonesrussell/posture-report/internal/domain"
)

// PDFExporter renders the executive summary PDF from a snapshot.
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportExecutiveSummary generates the executive summary PDF.
func (e *PDFExporter) ExportExecutiveSummary(snap *domain.Snapshot) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, snap)
	e.addDetections(pdf, snap)
	e.addVisibility(pdf, snap)
	e.addTopIncidents(pdf, snap)
	e.addTopAlerts(pdf, snap)
	e.addTopAssets(pdf, snap)
	e.addFooter(pdf, snap)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, snap *domain.Snapshot) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 15, customerName(snap.Tenant)+" Executive Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6,
		fmt.Sprintf("Period: %s to %s", snap.StartDate, snap.EndDate),
		"", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6,
		fmt.Sprintf("Generated: %s", snap.QueriedAt.UTC().Format("2006-01-02 15:04")),
		"", 1, "L", false, 0, "")
	pdf.Ln(8)
}

func (e *PDFExporter) addDetections(pdf *gofpdf.Fpdf, snap *domain.Snapshot) {
	e.sectionTitle(pdf, "Detections")
	e.metricGrid(pdf, []metric{
		{"Critical Cases Detected", HumanCount(float64(snap.Incidents.CumulativeCriticalIncidentCount), 2), colorRed},
		{"High Cases Detected", HumanCount(float64(snap.Incidents.HighIncidentCount), 0), colorOrange},
		{"Critical Alerts Detected", HumanCount(float64(snap.Alerts.CumulativeCriticalAlertCount), 2), colorRed},
		{"Distinct Alert Types", HumanCount(float64(snap.Alerts.UniqueAlertTypeCount), 2), colorBlue},
	})
}

func (e *PDFExporter) addVisibility(pdf *gofpdf.Fpdf, snap *domain.Snapshot) {
	e.sectionTitle(pdf, "Visibility")
	e.metricGrid(pdf, []metric{
		{"Average Daily Data Volume", HumanBytes(snap.Volume.AverageDailyVolume, 2), colorBlue},
		{"Average Daily Assets", HumanCount(snap.Assets.AverageDailyAssets, 2), colorBlue},
		{"Security Sensors Deployed", HumanCount(float64(snap.SecuritySensors.UniqueSensors), 0), colorBlue},
		{"Windows Sensors Deployed", HumanCount(float64(snap.WindowsSensors.UniqueSensors), 0), colorBlue},
		{"Linux Sensors Deployed", HumanCount(float64(snap.LinuxSensors.UniqueSensors), 0), colorBlue},
		{"Distinct Data Sources", HumanCount(float64(len(snap.CombineDataSources())), 0), colorBlue},
	})
}

type metric struct {
	label string
	value string
	color []int
}

var (
	colorRed    = []int{220, 53, 69}
	colorOrange = []int{255, 149, 0}
	colorBlue   = []int{0, 102, 204}
)

// metricGrid displays metrics in 2 columns.
func (e *PDFExporter) metricGrid(pdf *gofpdf.Fpdf, metrics []metric) {
	colWidth := 85.0
	for i, m := range metrics {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}

		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, m.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(m.color[0], m.color[1], m.color[2])
		pdf.CellFormat(colWidth-55, 7, m.value, "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}
	if len(metrics)%2 == 1 {
		pdf.Ln(7)
	}
	pdf.Ln(6)
}

func (e *PDFExporter) addTopIncidents(pdf *gofpdf.Fpdf, snap *domain.Snapshot) {
	e.sectionTitle(pdf, "Top Cases by Risk Score")

	if len(snap.Incidents.TopIncidents) == 0 {
		e.emptyNote(pdf, "No cases in this period")
		return
	}

	e.tableHeader(pdf, []col{{"Start", 55}, {"Title", 90}, {"Score", 25}})
	pdf.SetFont("Arial", "", 9)
	for _, c := range snap.Incidents.TopIncidents {
		r, g, b := scoreColor(c.Score)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(55, 7, c.CreatedAt, "1", 0, "L", false, 0, "")
		pdf.CellFormat(90, 7, truncate(c.Name, 55), "1", 0, "L", false, 0, "")
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(25, 7, fmt.Sprintf("%.0f", c.Score), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addTopAlerts(pdf *gofpdf.Fpdf, snap *domain.Snapshot) {
	e.sectionTitle(pdf, "Top Alerts by Risk Score")

	if len(snap.Alerts.TopAlerts) == 0 {
		e.emptyNote(pdf, "No alerts in this period")
		return
	}

	e.tableHeader(pdf, []col{{"Time", 50}, {"Alert", 60}, {"Score", 20}, {"Stage", 40}})
	pdf.SetFont("Arial", "", 9)
	for _, a := range snap.Alerts.TopAlerts {
		r, g, b := scoreColor(a.Score)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(50, 7, a.Timestamp, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, truncate(a.DisplayName, 35), "1", 0, "L", false, 0, "")
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(20, 7, fmt.Sprintf("%.0f", a.Score), "1", 0, "C", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(40, 7, truncate(a.KillchainStage, 24), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addTopAssets(pdf *gofpdf.Fpdf, snap *domain.Snapshot) {
	if pdf.GetY() > 230 {
		pdf.AddPage()
	}
	e.sectionTitle(pdf, "Top Assets by Risk Score")

	if len(snap.TopAssets.TopAssets) == 0 {
		e.emptyNote(pdf, "No assets in this period")
		return
	}

	e.tableHeader(pdf, []col{{"Asset", 60}, {"Score", 20}, {"Data Sources", 50}, {"Location", 40}})
	pdf.SetFont("Arial", "", 9)
	for _, a := range snap.TopAssets.TopAssets {
		r, g, b := scoreColor(a.RiskScore)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(60, 7, truncate(a.Name, 35), "1", 0, "L", false, 0, "")
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(20, 7, fmt.Sprintf("%.0f", a.RiskScore), "1", 0, "C", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(50, 7, truncate(firstLine(a.DataSources), 30), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, truncate(a.Location, 24), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(8)
}

type col struct {
	name  string
	width float64
}

func (e *PDFExporter) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func (e *PDFExporter) tableHeader(pdf *gofpdf.Fpdf, cols []col) {
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(c.width, 8, c.name, "1", ln, "L", true, 0, "")
	}
}

func (e *PDFExporter) emptyNote(pdf *gofpdf.Fpdf, note string) {
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 7, note, "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, snap *domain.Snapshot) {
	pdf.SetY(-20)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5,
		fmt.Sprintf("Generated %s UTC", snap.QueriedAt.UTC().Format(time.DateTime)),
		"", 1, "C", false, 0, "")
}

// scoreColor returns RGB color for a 0-100 risk score band.
func scoreColor(score float64) (r, g, b int) {
	switch {
	case score >= 75:
		return 220, 53, 69
	case score >= 50:
		return 255, 149, 0
	default:
		return 52, 199, 89
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
