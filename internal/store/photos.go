package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Photo kinds and their slot caps. Inbound (goods-received) evidence
// gets a single slot; install evidence gets four.
const (
	KindInbound = "inbound"
	KindInstall = "install"
)

// MaxSlots returns the slot cap for a photo kind, or 0 for unknown kinds.
func MaxSlots(kind string) int {
	switch kind {
	case KindInbound:
		return 1
	case KindInstall:
		return 4
	}
	return 0
}

// Photo associates an item with one stored evidence image. The triple
// (item, kind, slot) is the overwrite key for re-uploads.
type Photo struct {
	ID          uuid.UUID `json:"id"`
	ItemID      uuid.UUID `json:"itemId"`
	Kind        string    `json:"kind"`
	Slot        int       `json:"slot"`
	StoragePath string    `json:"storagePath"`
	PublicURL   *string   `json:"publicUrl,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type PhotoStore struct {
	db DBTX
}

func NewPhotoStore(db DBTX) *PhotoStore {
	return &PhotoStore{db: db}
}

// Upsert records an upload into (item, kind, slot), replacing whatever
// occupied the slot before.
func (s *PhotoStore) Upsert(ctx context.Context, itemID uuid.UUID, kind string, slot int, storagePath string, publicURL *string) (*Photo, error) {
	p := &Photo{}
	err := s.db.QueryRow(ctx, `
		INSERT INTO expense_photos (item_id, kind, slot, storage_path, public_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id, kind, slot) DO UPDATE SET
			storage_path = EXCLUDED.storage_path,
			public_url   = EXCLUDED.public_url,
			uploaded_at  = now()
		RETURNING id, item_id, kind, slot, storage_path, public_url, uploaded_at
	`, itemID, kind, slot, storagePath, publicURL).Scan(
		&p.ID, &p.ItemID, &p.Kind, &p.Slot, &p.StoragePath, &p.PublicURL, &p.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert photo %s/%s/%d: %w", itemID, kind, slot, err)
	}
	return p, nil
}

// ListByItem returns an item's photos ordered by kind then slot.
func (s *PhotoStore) ListByItem(ctx context.Context, itemID uuid.UUID) ([]Photo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, item_id, kind, slot, storage_path, public_url, uploaded_at
		FROM expense_photos
		WHERE item_id = $1
		ORDER BY kind, slot
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list photos of item %s: %w", itemID, err)
	}
	defer rows.Close()
	return collectPhotos(rows)
}

// ListByDocument returns every photo of a document's items, for export.
func (s *PhotoStore) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Photo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.id, p.item_id, p.kind, p.slot, p.storage_path, p.public_url, p.uploaded_at
		FROM expense_photos p
		JOIN expense_items i ON i.id = p.item_id
		WHERE i.document_id = $1
		ORDER BY i.category_no, i.evidence_no, p.kind, p.slot
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list photos of document %s: %w", documentID, err)
	}
	defer rows.Close()
	return collectPhotos(rows)
}

func collectPhotos(rows pgx.Rows) ([]Photo, error) {
	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.ItemID, &p.Kind, &p.Slot, &p.StoragePath, &p.PublicURL, &p.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
