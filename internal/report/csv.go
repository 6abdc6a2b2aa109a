package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jonesrussell/posture-report/internal/domain"
)

// WriteCriticalCasesCSV writes the critical rows of the case table as CSV.
// The header is always written, even when no case reached the critical band.
func WriteCriticalCasesCSV(w io.Writer, snap *domain.Snapshot) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"date", "created_at", "name", "score"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, c := range snap.Incidents.Cases {
		if !c.Critical {
			continue
		}
		row := []string{
			c.Date,
			c.CreatedAt,
			c.Name,
			strconv.FormatFloat(c.Score, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	return nil
}
