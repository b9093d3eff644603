package excel

import (
	"fmt"
	"strings"
)

// Field identifies one logical column of an expense sheet.
type Field string

const (
	FieldSequence  Field = "sequence"
	FieldItemName  Field = "item_name"
	FieldQuantity  Field = "quantity"
	FieldUnitPrice Field = "unit_price"
	FieldAmount    Field = "amount"
	FieldUsedAt    Field = "used_at"
)

// HeaderRule declares the synonyms that identify a field's header cell
// and the weight that field contributes to a row's header score.
// Synonyms are matched by substring against normalized header cells.
type HeaderRule struct {
	Field    Field
	Weight   int
	Synonyms []string
}

// DefaultHeaderRules is the scoring table for the safety-expense sheets
// this service ingests. Item-name tokens carry the most weight, quantity
// next; the remaining fields only help break ties between candidate rows.
var DefaultHeaderRules = []HeaderRule{
	{Field: FieldItemName, Weight: 5, Synonyms: []string{"품명", "품목", "항목", "사용내역", "자재명", "내역", "item"}},
	{Field: FieldQuantity, Weight: 4, Synonyms: []string{"수량", "qty", "quantity"}},
	{Field: FieldUsedAt, Weight: 2, Synonyms: []string{"사용일", "사용일자", "구입일", "일자", "날짜", "date"}},
	{Field: FieldUnitPrice, Weight: 2, Synonyms: []string{"단가", "unitprice"}},
	{Field: FieldAmount, Weight: 2, Synonyms: []string{"금액", "공급가액", "amount"}},
	{Field: FieldSequence, Weight: 1, Synonyms: []string{"번호", "연번", "순번", "no"}},
}

// headerScanLimit bounds how deep into the sheet the detector looks for
// a header row. Site workbooks put title blocks and approval stamps
// above the table, but never this many rows of them.
const headerScanLimit = 40

// ColumnMap maps each detected logical field to its column index.
type ColumnMap map[Field]int

// HeaderInfo is the result of header detection.
type HeaderInfo struct {
	Row     int // 0-based grid row of the header
	Columns ColumnMap
	Score   int
}

// DetectHeader locates the header row of a grid by scoring the first
// headerScanLimit rows against the rule table. The highest-scoring row
// wins; ties keep the earlier row. Detection fails when no row scores
// above zero or when the winning row maps neither an item-name nor a
// quantity column, since nothing below it could be parsed.
func DetectHeader(g Grid, rules []HeaderRule) (HeaderInfo, error) {
	if len(rules) == 0 {
		rules = DefaultHeaderRules
	}

	limit := headerScanLimit
	if len(g) < limit {
		limit = len(g)
	}

	best := HeaderInfo{Row: -1}
	for i := 0; i < limit; i++ {
		score := scoreRow(g[i], rules)
		if score > best.Score {
			best = HeaderInfo{Row: i, Score: score}
		}
	}

	if best.Row < 0 || best.Score == 0 {
		return HeaderInfo{}, fmt.Errorf("no header row detected in first %d rows", limit)
	}

	best.Columns = mapColumns(g[best.Row], rules)

	var missing []string
	if _, ok := best.Columns[FieldItemName]; !ok {
		missing = append(missing, string(FieldItemName))
	}
	if _, ok := best.Columns[FieldQuantity]; !ok {
		missing = append(missing, string(FieldQuantity))
	}
	if len(missing) > 0 {
		return HeaderInfo{}, fmt.Errorf("header row %d is missing required column(s): %s",
			best.Row+1, strings.Join(missing, ", "))
	}

	return best, nil
}

// scoreRow sums the weight of every field whose synonyms appear
// somewhere in the row. Each field counts at most once per row.
func scoreRow(row []string, rules []HeaderRule) int {
	score := 0
	for _, rule := range rules {
		for _, cell := range row {
			if matchesRule(NormalizeHeaderCell(cell), rule) {
				score += rule.Weight
				break
			}
		}
	}
	return score
}

// mapColumns assigns each field the first column whose normalized header
// matches one of its synonyms. Fields with no matching column are left
// out of the map and treated as absent for every row.
func mapColumns(row []string, rules []HeaderRule) ColumnMap {
	cols := make(ColumnMap, len(rules))
	for _, rule := range rules {
		for i, cell := range row {
			if matchesRule(NormalizeHeaderCell(cell), rule) {
				cols[rule.Field] = i
				break
			}
		}
	}
	return cols
}

func matchesRule(normalized string, rule HeaderRule) bool {
	if normalized == "" {
		return false
	}
	for _, syn := range rule.Synonyms {
		if strings.Contains(normalized, syn) {
			return true
		}
	}
	return false
}
