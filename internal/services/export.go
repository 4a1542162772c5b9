package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/localnerve/shelter-intake/internal/filters"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const exportSheet = "Responses"

var exportFixedHeaders = []string{"Session", "Submitted At", "Client"}

// ExportFormResponses writes every materialized session of a form matching
// filter and search to a workbook: fixed columns, then one column per
// question in display order. It returns the workbook and a file name.
func ExportFormResponses(ctx context.Context, db *gorm.DB, formID uint64, filter *filters.Filter, search string) (*excelize.File, string, error) {
	form, err := GetForm(ctx, db, formID)
	if err != nil {
		return nil, "", err
	}
	questions, err := ListQuestions(ctx, db, formID, true)
	if err != nil {
		return nil, "", err
	}
	sessions, err := materializeSessions(ctx, db, formID, filter, search)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, "", fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	headers := append([]string{}, exportFixedHeaders...)
	for _, q := range questions {
		headers = append(headers, q.QuestionText)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, h)
		f.SetCellStyle(exportSheet, cell, cell, headerStyle)
	}

	for r, s := range sessions {
		row := r + 2
		rec := s.record

		cells := []any{rec[KeySessionID], s.submittedAt.UTC().Format(time.RFC3339), s.displayName()}
		for _, q := range questions {
			cells = append(cells, exportCell(rec[q.FieldKey]))
		}
		for i, v := range cells {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(exportSheet, cell, v)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetColWidth(exportSheet, "A", "A", 38)
	f.SetColWidth(exportSheet, "B", "C", 22)
	if len(headers) > len(exportFixedHeaders) {
		f.SetColWidth(exportSheet, "D", lastCol, 24)
	}

	filename := fmt.Sprintf("%s_%s.xlsx", form.FormKey, time.Now().UTC().Format("20060102"))
	return f, filename, nil
}

func (s *sessionRecord) displayName() string {
	first, _ := s.record[KeyClientFirstName].(string)
	last, _ := s.record[KeyClientLastName].(string)
	return strings.TrimSpace(first + " " + last)
}

// exportCell renders a decoded answer for a spreadsheet cell
func exportCell(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
	return v
}
