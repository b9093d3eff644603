package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gwonsinchan1234/expense-photo-platform/internal/store"
)

// UploadPhoto stores one evidence photo: bytes to object storage, then
// the (item, kind, slot) record to the database. Re-uploading into an
// occupied slot replaces the previous photo; a same-extension re-upload
// overwrites the object in place, and an extension change deletes the
// old object after the record moves.
func (s *Service) UploadPhoto(ctx context.Context, itemID uuid.UUID, kind string, slot int, contentType string, r io.Reader) (*store.Photo, error) {
	maxSlots := store.MaxSlots(kind)
	if maxSlots == 0 {
		return nil, fmt.Errorf("unknown photo kind %q", kind)
	}
	if slot < 1 || slot > maxSlots {
		return nil, fmt.Errorf("slot out of range: %s slot %d (max %d)", kind, slot, maxSlots)
	}

	item, err := s.items.Get(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}

	previous := s.previousObjectPath(ctx, itemID, kind, slot)

	object := photoObjectPath(item.DocumentID, itemID, kind, slot, contentType)
	if err := s.objects.Upload(ctx, s.cfg.Storage.Bucket, object, contentType, r); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	photo, err := s.photos.Upsert(ctx, itemID, kind, slot, object, nil)
	if err != nil {
		return nil, err
	}

	// The object path embeds the image extension, so a jpg-to-png
	// re-upload lands on a new path. Remove the superseded object once
	// the record points at the new one.
	if previous != "" && previous != object {
		if err := s.objects.Delete(ctx, s.cfg.Storage.Bucket, previous); err != nil {
			slog.Warn("failed to delete superseded photo object",
				"item_id", itemID,
				"object", previous,
				"error", err,
			)
		}
	}

	slog.Info("photo uploaded",
		"item_id", itemID,
		"kind", kind,
		"slot", slot,
		"object", object,
	)
	return photo, nil
}

// previousObjectPath returns the storage path currently occupying the
// slot, or "" when the slot is empty or the lookup fails.
func (s *Service) previousObjectPath(ctx context.Context, itemID uuid.UUID, kind string, slot int) string {
	existing, err := s.photos.ListByItem(ctx, itemID)
	if err != nil {
		return ""
	}
	for _, p := range existing {
		if p.Kind == kind && p.Slot == slot {
			return p.StoragePath
		}
	}
	return ""
}

// photoObjectPath is documents/{doc}/items/{item}/{kind}_{slot}{ext}.
// Deterministic so slot re-uploads overwrite rather than accumulate.
func photoObjectPath(documentID, itemID uuid.UUID, kind string, slot int, contentType string) string {
	ext := ".jpg"
	if strings.Contains(strings.ToLower(contentType), "png") {
		ext = ".png"
	}
	return fmt.Sprintf("documents/%s/items/%s/%s_%d%s", documentID, itemID, kind, slot, ext)
}
