package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gwonsinchan1234/expense-photo-platform/internal/config"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/store"
)

type fakeDocs struct {
	docs map[uuid.UUID]*store.Document
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: make(map[uuid.UUID]*store.Document)}
}

func (f *fakeDocs) add(siteName, monthKey string) *store.Document {
	doc := &store.Document{
		ID:        uuid.New(),
		SiteName:  siteName,
		MonthKey:  monthKey,
		CreatedAt: time.Now(),
	}
	f.docs[doc.ID] = doc
	return doc
}

func (f *fakeDocs) GetOrCreate(_ context.Context, siteName, monthKey string) (*store.Document, error) {
	for _, d := range f.docs {
		if d.SiteName == siteName && d.MonthKey == monthKey {
			return d, nil
		}
	}
	return f.add(siteName, monthKey), nil
}

func (f *fakeDocs) Get(_ context.Context, id uuid.UUID) (*store.Document, error) {
	if d, ok := f.docs[id]; ok {
		return d, nil
	}
	return nil, errors.New("no rows in result set")
}

type fakeItems struct {
	byID      map[uuid.UUID]*store.Item
	committed []store.ItemRecord
	replaced  bool
	upserted  bool
}

func newFakeItems() *fakeItems {
	return &fakeItems{byID: make(map[uuid.UUID]*store.Item)}
}

func (f *fakeItems) add(documentID uuid.UUID, r store.ItemRecord) *store.Item {
	item := &store.Item{
		ID:          uuid.New(),
		DocumentID:  documentID,
		CategoryKey: r.CategoryKey,
		CategoryNo:  r.CategoryNo,
		EvidenceNo:  r.EvidenceNo,
		ItemName:    r.ItemName,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		Amount:      r.Amount,
		UsedAt:      r.UsedAt,
	}
	f.byID[item.ID] = item
	return item
}

// UpsertBatch mirrors the SQL conflict target: one row per
// (document, category, evidence), later writes overwrite the fields.
func (f *fakeItems) UpsertBatch(_ context.Context, documentID uuid.UUID, records []store.ItemRecord) error {
	f.upserted = true
	f.committed = append(f.committed, records...)
	for _, r := range records {
		if existing := f.find(documentID, r.CategoryKey, r.EvidenceNo); existing != nil {
			existing.CategoryNo = r.CategoryNo
			existing.ItemName = r.ItemName
			existing.Quantity = r.Quantity
			existing.UnitPrice = r.UnitPrice
			existing.Amount = r.Amount
			existing.UsedAt = r.UsedAt
			continue
		}
		f.add(documentID, r)
	}
	return nil
}

func (f *fakeItems) find(documentID uuid.UUID, categoryKey string, evidenceNo int) *store.Item {
	for _, item := range f.byID {
		if item.DocumentID == documentID && item.CategoryKey == categoryKey && item.EvidenceNo == evidenceNo {
			return item
		}
	}
	return nil
}

func (f *fakeItems) ReplaceAll(_ context.Context, documentID uuid.UUID, records []store.ItemRecord) error {
	f.replaced = true
	f.byID = make(map[uuid.UUID]*store.Item)
	f.committed = records
	for _, r := range records {
		f.add(documentID, r)
	}
	return nil
}

func (f *fakeItems) List(_ context.Context, documentID uuid.UUID) ([]store.Item, error) {
	var items []store.Item
	for _, item := range f.byID {
		if item.DocumentID == documentID {
			items = append(items, *item)
		}
	}
	return items, nil
}

func (f *fakeItems) Get(_ context.Context, id uuid.UUID) (*store.Item, error) {
	if item, ok := f.byID[id]; ok {
		return item, nil
	}
	return nil, errors.New("no rows in result set")
}

func (f *fakeItems) Create(_ context.Context, documentID uuid.UUID, r store.ItemRecord) (*store.Item, error) {
	return f.add(documentID, r), nil
}

func (f *fakeItems) Update(_ context.Context, id uuid.UUID, r store.ItemRecord) (*store.Item, error) {
	item, ok := f.byID[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	item.ItemName = r.ItemName
	item.Quantity = r.Quantity
	item.UnitPrice = r.UnitPrice
	item.Amount = r.Amount
	item.UsedAt = r.UsedAt
	return item, nil
}

func (f *fakeItems) DeleteByDocument(_ context.Context, documentID uuid.UUID) (int64, error) {
	var n int64
	for id, item := range f.byID {
		if item.DocumentID == documentID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

type fakePhotos struct {
	photos []store.Photo
	items  *fakeItems
}

func (f *fakePhotos) Upsert(_ context.Context, itemID uuid.UUID, kind string, slot int, storagePath string, publicURL *string) (*store.Photo, error) {
	for i := range f.photos {
		p := &f.photos[i]
		if p.ItemID == itemID && p.Kind == kind && p.Slot == slot {
			p.StoragePath = storagePath
			p.PublicURL = publicURL
			return p, nil
		}
	}
	p := store.Photo{
		ID:          uuid.New(),
		ItemID:      itemID,
		Kind:        kind,
		Slot:        slot,
		StoragePath: storagePath,
		PublicURL:   publicURL,
		UploadedAt:  time.Now(),
	}
	f.photos = append(f.photos, p)
	return &p, nil
}

func (f *fakePhotos) ListByItem(_ context.Context, itemID uuid.UUID) ([]store.Photo, error) {
	var out []store.Photo
	for _, p := range f.photos {
		if p.ItemID == itemID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePhotos) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]store.Photo, error) {
	items, _ := f.items.List(ctx, documentID)
	var out []store.Photo
	for _, item := range items {
		ps, _ := f.ListByItem(ctx, item.ID)
		out = append(out, ps...)
	}
	return out, nil
}

// fakeObjects records uploads and signs URLs against a test HTTP server.
type fakeObjects struct {
	baseURL string
	uploads map[string][]byte
	signErr error
}

func newFakeObjects(baseURL string) *fakeObjects {
	return &fakeObjects{baseURL: baseURL, uploads: make(map[string][]byte)}
}

func (f *fakeObjects) Upload(_ context.Context, bucket, object, _ string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.uploads[bucket+"/"+object] = data
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, bucket, object string) error {
	delete(f.uploads, bucket+"/"+object)
	return nil
}

func (f *fakeObjects) SignedURL(_ context.Context, bucket, object string, _ time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("%s/%s/%s", f.baseURL, bucket, object), nil
}

func testConfig(templatePath string) *config.Config {
	return &config.Config{
		Import: config.ImportConfig{Mode: config.ImportModeUpsert},
		Export: config.ExportConfig{TemplatePath: templatePath, PhotoSheet: "사진대지"},
		Storage: config.StorageConfig{
			Bucket:       "photos",
			SignedURLTTL: time.Minute,
		},
	}
}

func newTestService(t *testing.T, docs *fakeDocs, items *fakeItems, photos *fakePhotos, objects *fakeObjects, cfg *config.Config) *Service {
	t.Helper()
	svc, err := NewService(docs, items, photos, objects, cfg)
	require.NoError(t, err)
	return svc
}

// workbookBytes writes the rows into a fresh workbook's first sheet.
func workbookBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	return buf.Bytes()
}
