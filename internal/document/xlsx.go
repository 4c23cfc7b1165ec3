package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractXLSX treats each sheet as one unit; its rows are both the text and
// the single table of that unit
func (e *Extractor) extractXLSX(ctx context.Context, doc *Document) (*Extraction, error) {
	f, err := excelize.OpenReader(bytes.NewReader(doc.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	x := &Extraction{Kind: KindXLSX}
	for i, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := PageText{Number: i + 1, Label: sheet}
		rows, err := f.GetRows(sheet)
		if err != nil {
			x.addError("sheet "+sheet, err)
			x.Pages = append(x.Pages, page)
			continue
		}
		rows = trimRows(rows)
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, strings.Join(row, " | "))
		}
		page.Text = strings.Join(lines, "\n")
		if len(rows) > 0 {
			page.Tables = []Table{{Rows: rows}}
		}
		x.Pages = append(x.Pages, page)
	}
	return x, nil
}

// trimRows drops trailing empty cells and wholly empty rows
func trimRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		end := len(row)
		for end > 0 && strings.TrimSpace(row[end-1]) == "" {
			end--
		}
		if end == 0 {
			continue
		}
		cells := make([]string, end)
		for i := range cells {
			cells[i] = strings.TrimSpace(row[i])
		}
		out = append(out, cells)
	}
	return out
}
