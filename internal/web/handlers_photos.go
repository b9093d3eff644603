package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gwonsinchan1234/expense-photo-platform/internal/store"
)

// handleUploadPhoto accepts one evidence photo in the "photo" multipart
// field and stores it into the item's (kind, slot). Uploading into an
// occupied slot replaces the previous photo.
func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	itemID, ok := s.pathUUID(w, r, "itemID")
	if !ok {
		return
	}

	kind := chi.URLParam(r, "kind")
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("slot out of range: %q is not a number", chi.URLParam(r, "slot")), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxPhotoSize)
	if err := r.ParseMultipartForm(s.cfg.Upload.MaxPhotoSize); err != nil {
		s.respondError(w, r, fmt.Errorf("unreadable photo upload: %w", err), http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("no file provided: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	photo, err := s.service.UploadPhoto(r.Context(), itemID, kind, slot, contentType, file)
	if err != nil {
		s.respondError(w, r, err, photoErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	itemID, ok := s.pathUUID(w, r, "itemID")
	if !ok {
		return
	}

	photos, err := s.service.ListItemPhotos(r.Context(), itemID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if photos == nil {
		photos = []store.Photo{}
	}
	writeJSON(w, http.StatusOK, photos)
}

func photoErrorStatus(err error) int {
	if status := errorStatus(err); status != http.StatusInternalServerError {
		return status
	}
	msg := err.Error()
	if strings.Contains(msg, "unknown photo kind") || strings.Contains(msg, "slot out of range") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
