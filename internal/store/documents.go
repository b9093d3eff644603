package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document is one site/month audit unit. Items hang off it; the record
// itself is immutable after creation.
type Document struct {
	ID        uuid.UUID `json:"id"`
	SiteName  string    `json:"siteName"`
	MonthKey  string    `json:"monthKey"` // "2025-12"
	CreatedAt time.Time `json:"createdAt"`
}

type DocumentStore struct {
	db DBTX
}

func NewDocumentStore(db DBTX) *DocumentStore {
	return &DocumentStore{db: db}
}

// GetOrCreate returns the document for (site, month), creating it on
// first access. The no-op DO UPDATE makes RETURNING yield the existing
// row on conflict.
func (s *DocumentStore) GetOrCreate(ctx context.Context, siteName, monthKey string) (*Document, error) {
	doc := &Document{}
	err := s.db.QueryRow(ctx, `
		INSERT INTO expense_documents (site_name, month_key)
		VALUES ($1, $2)
		ON CONFLICT (site_name, month_key) DO UPDATE SET site_name = EXCLUDED.site_name
		RETURNING id, site_name, month_key, created_at
	`, siteName, monthKey).Scan(&doc.ID, &doc.SiteName, &doc.MonthKey, &doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get or create document %s/%s: %w", siteName, monthKey, err)
	}
	return doc, nil
}

func (s *DocumentStore) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	doc := &Document{}
	err := s.db.QueryRow(ctx, `
		SELECT id, site_name, month_key, created_at
		FROM expense_documents WHERE id = $1
	`, id).Scan(&doc.ID, &doc.SiteName, &doc.MonthKey, &doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}
