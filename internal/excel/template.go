package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// sheetSpec is a photo-template worksheet captured as plain data:
// column widths, row heights, cell values with style IDs, and merge
// ranges. Charts, images, and conditional formatting are not carried.
// Capturing once and re-applying per clone keeps the cloning logic
// testable and avoids mutating the template sheet itself.
type sheetSpec struct {
	colWidths  map[int]float64
	rowHeights map[int]float64
	cells      []cellSpec
	merges     [][2]string
	maxCol     int
	maxRow     int
}

type cellSpec struct {
	col, row int
	value    string
	styleID  int
}

// captureSheet snapshots a worksheet into a sheetSpec.
func captureSheet(f *excelize.File, sheet string) (*sheetSpec, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("capture sheet %q: %w", sheet, err)
	}

	spec := &sheetSpec{
		colWidths:  make(map[int]float64),
		rowHeights: make(map[int]float64),
		maxRow:     len(rows),
	}

	for r, row := range rows {
		if len(row) > spec.maxCol {
			spec.maxCol = len(row)
		}
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("capture style of %s!%s: %w", sheet, cell, err)
			}
			if value == "" && styleID == 0 {
				continue
			}
			spec.cells = append(spec.cells, cellSpec{col: c + 1, row: r + 1, value: value, styleID: styleID})
		}
	}

	for c := 1; c <= spec.maxCol; c++ {
		name, err := excelize.ColumnNumberToName(c)
		if err != nil {
			return nil, err
		}
		w, err := f.GetColWidth(sheet, name)
		if err == nil {
			spec.colWidths[c] = w
		}
	}

	for r := 1; r <= spec.maxRow; r++ {
		h, err := f.GetRowHeight(sheet, r)
		if err == nil {
			spec.rowHeights[r] = h
		}
	}

	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("capture merges of %q: %w", sheet, err)
	}
	for _, m := range merges {
		spec.merges = append(spec.merges, [2]string{m.GetStartAxis(), m.GetEndAxis()})
	}

	return spec, nil
}

// applyTo writes the captured spec into an (empty) worksheet.
func (s *sheetSpec) applyTo(f *excelize.File, sheet string) error {
	for col, w := range s.colWidths {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return fmt.Errorf("apply col width %s!%s: %w", sheet, name, err)
		}
	}

	for row, h := range s.rowHeights {
		if err := f.SetRowHeight(sheet, row, h); err != nil {
			return fmt.Errorf("apply row height %s!%d: %w", sheet, row, err)
		}
	}

	for _, c := range s.cells {
		cell, err := excelize.CoordinatesToCellName(c.col, c.row)
		if err != nil {
			return err
		}
		if c.value != "" {
			if err := f.SetCellValue(sheet, cell, c.value); err != nil {
				return fmt.Errorf("apply cell %s!%s: %w", sheet, cell, err)
			}
		}
		if c.styleID != 0 {
			if err := f.SetCellStyle(sheet, cell, cell, c.styleID); err != nil {
				return fmt.Errorf("apply style %s!%s: %w", sheet, cell, err)
			}
		}
	}

	for _, m := range s.merges {
		if err := f.MergeCell(sheet, m[0], m[1]); err != nil {
			return fmt.Errorf("apply merge %s!%s:%s: %w", sheet, m[0], m[1], err)
		}
	}

	return nil
}
