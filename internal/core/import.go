package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gwonsinchan1234/expense-photo-platform/internal/config"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/excel"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/store"
)

// ImportWorkbook runs the full import pipeline for one document: parse
// the workbook, validate the batch, and commit it all-or-nothing under
// the configured mode. Row-level problems surface as warnings in the
// result; batch-level problems fail the whole import and nothing is
// written.
func (s *Service) ImportWorkbook(ctx context.Context, documentID uuid.UUID, r io.Reader) (*ImportResult, error) {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}

	parsed, err := excel.ParseWorkbook(r, excel.ParseOptions{
		QuantityFallback: s.cfg.Import.QuantityFallback,
	})
	if err != nil {
		return nil, err
	}

	if len(parsed.Records) == 0 {
		return nil, ErrNoDetailRows
	}
	if err := checkBatchKeys(parsed.Records); err != nil {
		return nil, err
	}

	records := make([]store.ItemRecord, len(parsed.Records))
	for i, rec := range parsed.Records {
		records[i] = store.ItemRecord{
			CategoryKey: rec.CategoryKey,
			CategoryNo:  rec.CategoryNo,
			EvidenceNo:  rec.EvidenceNo,
			ItemName:    rec.ItemName,
			Quantity:    rec.Quantity,
			UnitPrice:   rec.UnitPrice,
			Amount:      rec.Amount,
			UsedAt:      rec.UsedAt,
		}
	}

	switch s.cfg.Import.Mode {
	case config.ImportModeReplace:
		err = s.items.ReplaceAll(ctx, documentID, records)
	default:
		err = s.items.UpsertBatch(ctx, documentID, records)
	}
	if err != nil {
		return nil, &CommitError{Err: err}
	}

	slog.Info("workbook imported",
		"document_id", documentID,
		"site", doc.SiteName,
		"month", doc.MonthKey,
		"mode", s.cfg.Import.Mode,
		"items", len(records),
		"warnings", len(parsed.Warnings),
	)

	return &ImportResult{
		Inserted:       len(records),
		Mode:           s.cfg.Import.Mode,
		Warnings:       parsed.Warnings,
		CategoryCounts: parsed.CategoryCounts,
		Totals:         parsed.Totals,
	}, nil
}

// checkBatchKeys rejects batches where two rows map to the same
// (category, evidence) key. The parser assigns evidence numbers
// sequentially so this only happens with custom rules or hand-edited
// grids, but committing such a batch would collapse rows silently.
func checkBatchKeys(records []excel.Record) error {
	rows := make(map[string][]int)
	for _, rec := range records {
		key := fmt.Sprintf("%s/%d", rec.CategoryKey, rec.EvidenceNo)
		rows[key] = append(rows[key], rec.Row)
	}

	conflicts := make(map[string][]int)
	for key, rs := range rows {
		if len(rs) > 1 {
			conflicts[key] = rs
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}
