package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/gwonsinchan1234/expense-photo-platform/internal/excel"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/store"
)

// ExportWorkbook renders the audit workbook for one document: the
// template's summary sheet filled with the document's items, plus one
// cloned photo sheet per item carrying its evidence photos. Photo bytes
// are fetched from object storage through short-lived signed URLs.
//
// The export is all-or-nothing; a single unfetchable photo or template
// problem aborts it rather than producing a workbook with holes.
func (s *Service) ExportWorkbook(ctx context.Context, documentID uuid.UUID) (*ExportFile, error) {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}

	items, err := s.items.List(ctx, documentID)
	if err != nil {
		return nil, err
	}
	photos, err := s.photos.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	byItem := make(map[uuid.UUID][]store.Photo)
	for _, p := range photos {
		byItem[p.ItemID] = append(byItem[p.ItemID], p)
	}

	exportItems := make([]excel.ExportItem, 0, len(items))
	for _, item := range items {
		ei := excel.ExportItem{
			ItemID:     item.ID.String(),
			CategoryNo: item.CategoryNo,
			EvidenceNo: item.EvidenceNo,
			ItemName:   item.ItemName,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			Amount:     item.Amount,
			UsedAt:     item.UsedAt,
		}
		for _, p := range byItem[item.ID] {
			data, err := s.fetchPhoto(ctx, p.StoragePath)
			if err != nil {
				return nil, fmt.Errorf("fetch photo %s of item %d/%d: %w",
					p.StoragePath, item.CategoryNo, item.EvidenceNo, err)
			}
			photo := excel.Photo{
				Kind:      p.Kind,
				Slot:      p.Slot,
				Extension: photoExtension(p.StoragePath),
				Data:      data,
			}
			switch p.Kind {
			case store.KindInbound:
				ei.Inbound = append(ei.Inbound, photo)
			case store.KindInstall:
				ei.Install = append(ei.Install, photo)
			}
		}
		exportItems = append(exportItems, ei)
	}

	template, err := os.Open(s.cfg.Export.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("export template: %w", err)
	}
	defer template.Close()

	layout := excel.DefaultExportLayout
	layout.PhotoSheet = s.cfg.Export.PhotoSheet

	data, err := excel.Export(template, exportItems, layout)
	if err != nil {
		return nil, err
	}

	slog.Info("workbook exported",
		"document_id", documentID,
		"site", doc.SiteName,
		"month", doc.MonthKey,
		"items", len(exportItems),
		"photos", len(photos),
		"bytes", len(data),
	)

	return &ExportFile{
		Name: fmt.Sprintf("safety-expenses-%s.xlsx", doc.MonthKey),
		Data: data,
	}, nil
}

// fetchPhoto downloads one stored photo through a signed URL. When the
// primary bucket fails and a fallback bucket is configured, the fallback
// is tried once; objects predating the bucket migration live there.
func (s *Service) fetchPhoto(ctx context.Context, object string) ([]byte, error) {
	data, err := s.fetchFromBucket(ctx, s.cfg.Storage.Bucket, object)
	if err == nil {
		return data, nil
	}
	if s.cfg.Storage.FallbackBucket == "" {
		return nil, err
	}

	slog.Warn("primary bucket miss, trying fallback",
		"object", object, "error", err)

	data, ferr := s.fetchFromBucket(ctx, s.cfg.Storage.FallbackBucket, object)
	if ferr != nil {
		return nil, fmt.Errorf("primary: %w (fallback: %v)", err, ferr)
	}
	return data, nil
}

func (s *Service) fetchFromBucket(ctx context.Context, bucket, object string) ([]byte, error) {
	url, err := s.objects.SignedURL(ctx, bucket, object, s.cfg.Storage.SignedURLTTL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("object %s/%s: status %d", bucket, object, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// photoExtension maps a storage path to the placement extension. Only
// png is distinguished; everything else is treated as jpeg.
func photoExtension(object string) string {
	if strings.EqualFold(path.Ext(object), ".png") {
		return ".png"
	}
	return ".jpg"
}
