// Package excel implements the two workbook pipelines of the service:
// importing safety-expense line items from an uploaded workbook, and
// exporting persisted items back into an annotated template workbook
// with embedded evidence photos.
//
// The import side operates on a Grid: the first sheet of the workbook
// read as raw cell values, so date cells surface as Excel serial numbers
// and numeric cells keep whatever separators the author typed. All
// coercion to typed values happens in this package.
package excel

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Grid is a 2-D slice of raw cell values from one worksheet.
// Rows may be ragged; use Cell for bounds-safe access.
type Grid [][]string

// LoadGrid reads the first sheet of an xlsx workbook into a Grid.
// Cells are read raw (unformatted), so dates come back as serials.
func LoadGrid(r io.Reader) (Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("unreadable workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("empty workbook: no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	return Grid(rows), nil
}

// Cell returns the raw value at (row, col), or "" when out of range.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	if col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// IsBlankRow reports whether every cell in the row is empty after trimming.
func IsBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// numericRe validates a cleaned-up cell as a plain number.
var numericRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// headerPunct strips brackets and punctuation that site staff sprinkle
// into header cells, e.g. "수량(EA)" or "품 명".
var headerPunct = strings.NewReplacer(
	"(", "", ")", "", "[", "", "]", "", "{", "", "}", "",
	".", "", ",", "", ":", "", "/", "", "-", "", "_", "", "*", "",
)

// NormalizeHeaderCell canonicalizes a header cell for token matching:
// trim, lowercase, collapse internal whitespace, strip brackets and
// punctuation.
func NormalizeHeaderCell(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = headerPunct.Replace(s)
	return strings.Join(strings.Fields(s), "")
}

// CoerceNumber parses a cell as a real number, tolerating thousands
// separators, currency marks, and surrounding whitespace. Returns false
// for empty or non-numeric cells.
func CoerceNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "₩", "") // won sign
	s = strings.TrimSuffix(s, "원")
	s = strings.TrimSpace(s)
	if !numericRe.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Accepted textual date shapes. Two-digit years pivot at 70:
// "70" and above map to 19xx, below to 20xx.
var (
	twoDigitDateRe  = regexp.MustCompile(`^(\d{2})\.(\d{1,2})\.(\d{1,2})$`)
	fourDigitDateRe = regexp.MustCompile(`^(\d{4})[.\-](\d{1,2})[.\-](\d{1,2})$`)
)

// CoerceDate parses a cell as a calendar date. Numeric cells are treated
// as Excel date serials (decoded through excelize, which carries the
// 1900 leap-year anomaly). String cells must match "YY.M.D" or
// "YYYY-M-D" / "YYYY.M.D"; anything else is simply not a date.
func CoerceDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil || t.Year() < 1900 {
			return time.Time{}, false
		}
		return t.Truncate(24 * time.Hour), true
	}

	if m := twoDigitDateRe.FindStringSubmatch(s); m != nil {
		yy, _ := strconv.Atoi(m[1])
		year := 2000 + yy
		if yy >= 70 {
			year = 1900 + yy
		}
		return makeDate(year, m[2], m[3])
	}

	if m := fourDigitDateRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		return makeDate(year, m[2], m[3])
	}

	return time.Time{}, false
}

func makeDate(year int, monthStr, dayStr string) (time.Time, bool) {
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. Feb 30); reject such inputs.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
