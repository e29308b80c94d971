package extract

import (
	"strings"

	"quarterly_intel/pkg/core/labels"
	"quarterly_intel/pkg/core/numparse"
	"quarterly_intel/pkg/models"
)

// Table is a grid of cell strings recovered from one page or sheet.
// Rows may be ragged.
type Table struct {
	Page int
	Rows [][]string
}

// GridReach bounds how far ScanGrid looks for a value from a label cell.
type GridReach struct {
	Right int
	Down  int
}

// ScanGrid looks at every cell that reads like a financial label and takes
// the first parseable number up to reach.Right cells to its right, or failing
// that up to reach.Down cells below it.
func ScanGrid(t Table, reach GridReach, confidence float64) []models.RawCandidate {
	var out []models.RawCandidate
	for r, row := range t.Rows {
		for c, cell := range row {
			if !labels.IsFinancialLabel(cell) {
				continue
			}
			v, unit, ok := scanRight(row, c, reach.Right)
			if !ok {
				v, unit, ok = scanDown(t.Rows, r, c, reach.Down)
			}
			if !ok {
				continue
			}
			page := t.Page
			out = append(out, models.RawCandidate{
				Label:      strings.TrimSpace(cell),
				Value:      numparse.ToCrore(v, unit),
				Unit:       models.UnitINRCrore,
				Page:       &page,
				Confidence: confidence,
			})
		}
	}
	return out
}

func scanRight(row []string, c, reach int) (float64, string, bool) {
	for k := c + 1; k < len(row) && k <= c+reach; k++ {
		if v, unit := numparse.ParseWithUnit(row[k]); v != nil {
			return *v, unit, true
		}
	}
	return 0, "", false
}

func scanDown(rows [][]string, r, c, reach int) (float64, string, bool) {
	for k := r + 1; k < len(rows) && k <= r+reach; k++ {
		if c >= len(rows[k]) {
			continue
		}
		if v, unit := numparse.ParseWithUnit(rows[k][c]); v != nil {
			return *v, unit, true
		}
	}
	return 0, "", false
}
