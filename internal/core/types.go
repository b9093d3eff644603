package core

import (
	"github.com/gwonsinchan1234/expense-photo-platform/internal/excel"
)

// ImportResult summarizes one committed workbook import. Warnings cover
// rows that were skipped; they never block the commit.
type ImportResult struct {
	Inserted       int              `json:"inserted"`
	Mode           string           `json:"mode"`
	Warnings       []excel.Warning  `json:"warnings"`
	CategoryCounts map[string]int   `json:"categoryCounts"`
	Totals         []excel.TotalRow `json:"totals,omitempty"`
}

// ExportFile is a rendered audit workbook ready to be served as an
// attachment.
type ExportFile struct {
	Name string
	Data []byte
}
