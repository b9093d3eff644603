package excel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Category identifies one expense-category block inside the sheet body.
type Category struct {
	Number int    // ordinal from the source row, e.g. 2 in "2. 안전시설물"
	Key    string // stable machine key, e.g. "safety_facility"
	Title  string // remaining text of the category row
}

// categoryRowRe matches "leading integer, period, remaining text".
// Both the ASCII period and the fullwidth form show up in the wild.
var categoryRowRe = regexp.MustCompile(`^\s*(\d+)\s*[.．]\s*(\S.*)$`)

// categoryKeyByNumber is the primary lookup from source category number
// to stable key, following the statutory safety-management cost items.
var categoryKeyByNumber = map[int]string{
	1: "safety_manager",
	2: "safety_facility",
	3: "ppe",
	4: "safety_diagnosis",
	5: "safety_education",
	6: "health_care",
	7: "tech_guidance",
	8: "accident_prevention",
}

// categoryKeyBySubstring is the fallback for workbooks that renumber
// their sections. Order matters: first matching substring wins.
var categoryKeyBySubstring = []struct {
	substr string
	key    string
}{
	{"보호구", "ppe"},
	{"개인보호", "ppe"},
	{"personal protective", "ppe"},
	{"안전시설", "safety_facility"},
	{"시설물", "safety_facility"},
	{"인건비", "safety_manager"},
	{"진단", "safety_diagnosis"},
	{"교육", "safety_education"},
	{"건강", "health_care"},
	{"기술지도", "tech_guidance"},
	{"재해예방", "accident_prevention"},
}

// DetectCategory reports whether the row is a category header. A row
// matches when any single cell, or the concatenation of its non-empty
// cells, has the "N. title" shape.
func DetectCategory(row []string) (Category, bool) {
	for _, cell := range row {
		if cat, ok := parseCategoryText(cell); ok {
			return cat, true
		}
	}

	var parts []string
	for _, cell := range row {
		if s := strings.TrimSpace(cell); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 1 {
		if cat, ok := parseCategoryText(strings.Join(parts, " ")); ok {
			return cat, true
		}
	}

	return Category{}, false
}

func parseCategoryText(s string) (Category, bool) {
	m := categoryRowRe.FindStringSubmatch(s)
	if m == nil {
		return Category{}, false
	}
	num, err := strconv.Atoi(m[1])
	if err != nil || num <= 0 || num > 99 {
		return Category{}, false
	}
	title := strings.TrimSpace(m[2])
	// Guard against numeric cells like "2.5" or date serials with a time
	// fraction: a real category title always carries at least one letter.
	if !containsLetter(title) {
		return Category{}, false
	}
	return Category{
		Number: num,
		Key:    CategoryKey(num, title),
		Title:  title,
	}, true
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// CategoryNumber is the reverse of CategoryKey for known keys; "cat_N"
// keys recover N, anything else maps to 0.
func CategoryNumber(key string) int {
	for num, k := range categoryKeyByNumber {
		if k == key {
			return num
		}
	}
	if rest, ok := strings.CutPrefix(key, "cat_"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// CategoryKey resolves the stable key for a category: number lookup
// first, then title-substring fallback, then a deterministic "cat_N".
func CategoryKey(number int, title string) string {
	if key, ok := categoryKeyByNumber[number]; ok {
		return key
	}
	lower := strings.ToLower(title)
	for _, m := range categoryKeyBySubstring {
		if strings.Contains(lower, m.substr) {
			return m.key
		}
	}
	return fmt.Sprintf("cat_%d", number)
}
