package excel

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Record is one normalized line item produced by the import parser.
// Row is the 1-based source row, kept for warning and conflict reports.
type Record struct {
	Row         int
	CategoryKey string
	CategoryNo  int
	EvidenceNo  int
	ItemName    string
	Quantity    float64
	UnitPrice   *float64
	Amount      *float64
	UsedAt      *time.Time
}

// Warning describes a skipped row. Row numbers are 1-based to match
// what the uploader sees in their spreadsheet program.
type Warning struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// TotalRow is a subtotal/total row captured for cross-checking; such
// rows are never persisted as items.
type TotalRow struct {
	Row         int      `json:"row"`
	CategoryKey string   `json:"categoryKey,omitempty"`
	Label       string   `json:"label"`
	Amount      *float64 `json:"amount,omitempty"`
}

// totalSentinels are item-name cells that mark a total/subtotal row.
var totalSentinels = map[string]bool{
	"계":  true,
	"합계": true,
	"총계": true,
	"소계": true,
}

// quantityFallbackCeiling caps the fallback quantity heuristic: numeric
// cells at or above this are assumed to be prices, not quantities.
const quantityFallbackCeiling = 100000

// ParseOptions control one import parse.
type ParseOptions struct {
	// Rules overrides the header scoring table; nil uses DefaultHeaderRules.
	Rules []HeaderRule

	// QuantityFallback enables the opt-in heuristic that, when the mapped
	// quantity cell fails to coerce, picks the smallest positive numeric
	// cell in the row (below quantityFallbackCeiling) as the quantity.
	// Off by default because it can misassign quantity vs. amount.
	QuantityFallback bool
}

// ParseResult is everything one parse pass produced.
type ParseResult struct {
	Records        []Record
	Warnings       []Warning
	CategoryCounts map[string]int
	Totals         []TotalRow
	Header         HeaderInfo
}

// ParseWorkbook reads the first sheet of the workbook and runs the full
// import parse: header detection, category tracking, row normalization.
// It fails hard on unreadable input or undetectable headers; row-level
// problems become Warnings and the pass continues.
func ParseWorkbook(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	grid, err := LoadGrid(r)
	if err != nil {
		return nil, err
	}
	return ParseGrid(grid, opts)
}

// ParseGrid is ParseWorkbook for an already-loaded grid. Split out so
// the pipeline is testable without workbook bytes.
func ParseGrid(g Grid, opts ParseOptions) (*ParseResult, error) {
	header, err := DetectHeader(g, opts.Rules)
	if err != nil {
		return nil, err
	}

	res := &ParseResult{
		Header:         header,
		CategoryCounts: make(map[string]int),
	}

	var active *Category
	evidence := 0

	for i := header.Row + 1; i < len(g); i++ {
		row := g[i]
		rowNo := i + 1

		if IsBlankRow(row) {
			continue
		}

		if cat, ok := DetectCategory(row); ok {
			active = &cat
			evidence = 0
			continue
		}

		rec, warn := parseDetailRow(row, rowNo, header.Columns, active, opts, res)
		if warn != nil {
			res.Warnings = append(res.Warnings, *warn)
			continue
		}
		if rec == nil {
			continue // total row, captured separately
		}

		evidence++
		rec.EvidenceNo = evidence
		res.Records = append(res.Records, *rec)
		res.CategoryCounts[rec.CategoryKey]++
	}

	return res, nil
}

// parseDetailRow converts one body row into a Record, or explains why it
// was skipped. A nil Record with a nil Warning means the row was a total
// row and has been captured into res.Totals.
func parseDetailRow(row []string, rowNo int, cols ColumnMap, active *Category, opts ParseOptions, res *ParseResult) (*Record, *Warning) {
	if active == nil {
		return nil, &Warning{Row: rowNo, Reason: "row appears before any category header"}
	}

	name := strings.TrimSpace(cellAt(row, cols, FieldItemName))
	if name == "" {
		return nil, &Warning{Row: rowNo, Reason: "blank item name"}
	}

	if totalSentinels[name] {
		total := TotalRow{Row: rowNo, CategoryKey: active.Key, Label: name}
		if v, ok := CoerceNumber(cellAt(row, cols, FieldAmount)); ok {
			total.Amount = &v
		}
		res.Totals = append(res.Totals, total)
		return nil, nil
	}

	qty, ok := CoerceNumber(cellAt(row, cols, FieldQuantity))
	if !ok && opts.QuantityFallback {
		qty, ok = fallbackQuantity(row)
	}
	if !ok {
		return nil, &Warning{Row: rowNo, Reason: fmt.Sprintf("item %q has no parseable quantity", name)}
	}
	if qty <= 0 {
		return nil, &Warning{Row: rowNo, Reason: fmt.Sprintf("item %q has non-positive quantity", name)}
	}

	rec := &Record{
		Row:         rowNo,
		CategoryKey: active.Key,
		CategoryNo:  active.Number,
		ItemName:    name,
		Quantity:    qty,
	}

	if v, ok := CoerceNumber(cellAt(row, cols, FieldUnitPrice)); ok {
		rec.UnitPrice = &v
	}
	if v, ok := CoerceNumber(cellAt(row, cols, FieldAmount)); ok {
		rec.Amount = &v
	}
	if t, ok := CoerceDate(cellAt(row, cols, FieldUsedAt)); ok {
		rec.UsedAt = &t
	}

	return rec, nil
}

// fallbackQuantity scans every cell of the row and picks the smallest
// positive number under the sanity ceiling. Opt-in; see ParseOptions.
func fallbackQuantity(row []string) (float64, bool) {
	best := 0.0
	found := false
	for _, cell := range row {
		v, ok := CoerceNumber(cell)
		if !ok || v <= 0 || v >= quantityFallbackCeiling {
			continue
		}
		if !found || v < best {
			best = v
			found = true
		}
	}
	return best, found
}

func cellAt(row []string, cols ColumnMap, f Field) string {
	idx, ok := cols[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
