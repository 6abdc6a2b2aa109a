package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonesrussell/posture-report/internal/domain"
)

// Artifact file names within a run directory.
const (
	htmlFileName     = "report.html"
	csvFileName      = "critical_incidents.csv"
	snapshotFileName = "snapshot.json"
)

const dirPerm = 0o755

// Store persists report artifacts under a base directory, one subdirectory
// per run.
type Store struct {
	baseDir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{baseDir: dir}
}

// Artifacts lists the file paths written for one report run.
type Artifacts struct {
	Dir          string `json:"dir"`
	HTMLPath     string `json:"html_path"`
	PDFPath      string `json:"pdf_path"`
	CSVPath      string `json:"csv_path"`
	SnapshotPath string `json:"snapshot_path"`
}

// RunName returns the per-run directory name for a tenant and date range:
// "<tenant>_<start>-<end>" with the date dashes stripped.
func RunName(tenant, start, end string) string {
	return fmt.Sprintf("%s_%s-%s",
		customerName(tenant),
		strings.ReplaceAll(start, "-", ""),
		strings.ReplaceAll(end, "-", ""))
}

// RunDir returns the absolute run directory path for a tenant and range.
func (s *Store) RunDir(tenant, start, end string) string {
	return filepath.Join(s.baseDir, RunName(tenant, start, end))
}

// Write renders and persists every artifact for a snapshot: the HTML
// report, the PDF executive summary, the critical-cases CSV, and the JSON
// snapshot itself.
func (s *Store) Write(snap *domain.Snapshot) (*Artifacts, error) {
	dir := s.RunDir(snap.Tenant, snap.StartDate, snap.EndDate)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create report directory %s: %w", dir, err)
	}

	a := &Artifacts{
		Dir:          dir,
		HTMLPath:     filepath.Join(dir, htmlFileName),
		PDFPath:      filepath.Join(dir, customerName(snap.Tenant)+" Executive Report.pdf"),
		CSVPath:      filepath.Join(dir, csvFileName),
		SnapshotPath: filepath.Join(dir, snapshotFileName),
	}

	html, err := RenderHTML(snap)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(a.HTMLPath, html, 0o644); err != nil {
		return nil, fmt.Errorf("write HTML report: %w", err)
	}

	pdf, err := NewPDFExporter().ExportExecutiveSummary(snap)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(a.PDFPath, pdf, 0o644); err != nil {
		return nil, fmt.Errorf("write PDF report: %w", err)
	}

	csvFile, err := os.Create(a.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("create critical cases CSV: %w", err)
	}
	if err := WriteCriticalCasesCSV(csvFile, snap); err != nil {
		csvFile.Close()
		return nil, err
	}
	if err := csvFile.Close(); err != nil {
		return nil, fmt.Errorf("close critical cases CSV: %w", err)
	}

	if err := s.saveSnapshot(a.SnapshotPath, snap); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Store) saveSnapshot(path string, snap *domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads back the persisted snapshot for a run, allowing the
// report to be re-rendered without re-querying the platform.
func (s *Store) LoadSnapshot(tenant, start, end string) (*domain.Snapshot, error) {
	path := filepath.Join(s.RunDir(tenant, start, end), snapshotFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}
