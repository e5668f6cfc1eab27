package excel

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/EdwarHercules/bots-telegram/internal/domain/plan"
)

// Header names accepted for the key and date columns, lower-cased. Planner
// workbooks come from two templates with different labels.
var (
	keyHeaders  = []string{"clave", "medidor"}
	dateHeaders = []string{"fecha de programación", "fecha de programacion", "fecha"}
)

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01-02-06",
	"1/2/06 15:04",
}

// ParsePlanWorkbook reads an xlsx planning workbook and returns one plan
// entry per data row on the first sheet. Rows with a blank key are
// discarded; a workbook without a recognizable key column is rejected.
func ParsePlanWorkbook(r io.Reader) ([]*plan.Entry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	keyCol, dateCol := locateColumns(rows[0])
	if keyCol < 0 {
		return nil, fmt.Errorf("no key column found, expected one of %v", keyHeaders)
	}

	entries := make([]*plan.Entry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		key := cellAt(row, keyCol)
		if key == "" {
			continue
		}
		e := &plan.Entry{Key: key}
		if dateCol >= 0 {
			raw := cellAt(row, dateCol)
			if raw != "" {
				t, err := parseDate(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d: bad date %q: %w", i+2, raw, err)
				}
				e.PlannedAt = t
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func locateColumns(header []string) (keyCol, dateCol int) {
	keyCol, dateCol = -1, -1
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		if keyCol < 0 && contains(keyHeaders, name) {
			keyCol = i
		}
		if dateCol < 0 && contains(dateHeaders, name) {
			dateCol = i
		}
	}
	return keyCol, dateCol
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func cellAt(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}
