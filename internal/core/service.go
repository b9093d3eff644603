// Package core provides the business logic for expense-document import
// and export. It has no HTTP dependencies; the web layer is a thin
// translation over this package.
package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gwonsinchan1234/expense-photo-platform/internal/config"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/photostore"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/store"
)

// DocumentStore is the document persistence contract the core consumes.
type DocumentStore interface {
	GetOrCreate(ctx context.Context, siteName, monthKey string) (*store.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*store.Document, error)
}

// ItemStore is the item persistence contract.
type ItemStore interface {
	UpsertBatch(ctx context.Context, documentID uuid.UUID, records []store.ItemRecord) error
	ReplaceAll(ctx context.Context, documentID uuid.UUID, records []store.ItemRecord) error
	List(ctx context.Context, documentID uuid.UUID) ([]store.Item, error)
	Get(ctx context.Context, id uuid.UUID) (*store.Item, error)
	Create(ctx context.Context, documentID uuid.UUID, r store.ItemRecord) (*store.Item, error)
	Update(ctx context.Context, id uuid.UUID, r store.ItemRecord) (*store.Item, error)
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) (int64, error)
}

// PhotoStore is the photo-record persistence contract.
type PhotoStore interface {
	Upsert(ctx context.Context, itemID uuid.UUID, kind string, slot int, storagePath string, publicURL *string) (*store.Photo, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]store.Photo, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]store.Photo, error)
}

// Service wires the stores, the object-storage collaborator, and the
// configuration into the two pipelines. Everything it needs is passed
// at construction; nothing is read from ambient state at call sites.
type Service struct {
	docs    DocumentStore
	items   ItemStore
	photos  PhotoStore
	objects photostore.Store
	cfg     *config.Config
	client  *http.Client // fetches photo bytes over signed URLs
}

func NewService(docs DocumentStore, items ItemStore, photos PhotoStore, objects photostore.Store, cfg *config.Config) (*Service, error) {
	if docs == nil || items == nil || photos == nil {
		return nil, fmt.Errorf("core: all stores are required")
	}
	if objects == nil {
		return nil, fmt.Errorf("core: object store is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("core: config is required")
	}
	return &Service{
		docs:    docs,
		items:   items,
		photos:  photos,
		objects: objects,
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// GetOrCreateDocument returns the audit unit for (site, month),
// creating it on first access.
func (s *Service) GetOrCreateDocument(ctx context.Context, siteName, monthKey string) (*store.Document, error) {
	return s.docs.GetOrCreate(ctx, siteName, monthKey)
}

func (s *Service) GetDocument(ctx context.Context, id uuid.UUID) (*store.Document, error) {
	return s.docs.Get(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, documentID uuid.UUID) ([]store.Item, error) {
	return s.items.List(ctx, documentID)
}

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*store.Item, error) {
	return s.items.Get(ctx, id)
}

func (s *Service) CreateItem(ctx context.Context, documentID uuid.UUID, r store.ItemRecord) (*store.Item, error) {
	if r.CategoryKey == "" {
		return nil, validationErrorf("categoryKey is required")
	}
	if err := validateItemRecord(r); err != nil {
		return nil, err
	}
	return s.items.Create(ctx, documentID, r)
}

// UpdateItem rewrites the editable fields; the (category, evidence)
// identity of an item is fixed at creation.
func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, r store.ItemRecord) (*store.Item, error) {
	if err := validateItemRecord(r); err != nil {
		return nil, err
	}
	return s.items.Update(ctx, id, r)
}

// ClearItems removes every item of a document, typically ahead of a
// fresh import in replace deployments.
func (s *Service) ClearItems(ctx context.Context, documentID uuid.UUID) (int64, error) {
	return s.items.DeleteByDocument(ctx, documentID)
}

func (s *Service) ListItemPhotos(ctx context.Context, itemID uuid.UUID) ([]store.Photo, error) {
	return s.photos.ListByItem(ctx, itemID)
}

func validateItemRecord(r store.ItemRecord) error {
	if r.ItemName == "" {
		return validationErrorf("itemName is required")
	}
	if r.Quantity <= 0 {
		return validationErrorf("quantity must be positive")
	}
	if r.UnitPrice != nil && *r.UnitPrice < 0 {
		return validationErrorf("unitPrice must be non-negative")
	}
	if r.Amount != nil && *r.Amount < 0 {
		return validationErrorf("amount must be non-negative")
	}
	return nil
}
