package document

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// minCellGap is the horizontal gap, in points, that separates two cells
const minCellGap = 12.0

// rowCells splits each text row into cells at wide horizontal gaps
func rowCells(rows pdf.Rows) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		cells := splitCells(row.Content)
		if len(cells) > 0 {
			out = append(out, cells)
		}
	}
	return out
}

func splitCells(texts []pdf.Text) []string {
	if len(texts) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var (
		cells []string
		cur   strings.Builder
		end   = sorted[0].X
	)
	for i, t := range sorted {
		gap := minCellGap
		if t.FontSize > 0 {
			gap = max(minCellGap, t.FontSize*1.5)
		}
		if i > 0 && t.X-end > gap {
			if c := strings.TrimSpace(cur.String()); c != "" {
				cells = append(cells, c)
			}
			cur.Reset()
		}
		cur.WriteString(t.S)
		end = max(end, t.X+t.W)
	}
	if c := strings.TrimSpace(cur.String()); c != "" {
		cells = append(cells, c)
	}
	return cells
}

// detectTables finds runs of at least two consecutive rows that share the
// same cell count of two or more
func detectTables(rows [][]string) []Table {
	var (
		tables []Table
		run    [][]string
	)
	flush := func() {
		if len(run) >= 2 {
			tables = append(tables, Table{Rows: run})
		}
		run = nil
	}
	for _, row := range rows {
		if len(row) < 2 {
			flush()
			continue
		}
		if len(run) > 0 && len(run[0]) != len(row) {
			flush()
		}
		run = append(run, row)
	}
	flush()
	return tables
}
