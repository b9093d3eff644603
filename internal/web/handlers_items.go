package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gwonsinchan1234/expense-photo-platform/internal/excel"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/store"
)

// itemRequest is the write shape for manual item entry and edits.
// EvidenceNo 0 on create means "assign the next number in the category".
type itemRequest struct {
	CategoryKey string   `json:"categoryKey"`
	EvidenceNo  int      `json:"evidenceNo"`
	ItemName    string   `json:"itemName"`
	Quantity    float64  `json:"quantity"`
	UnitPrice   *float64 `json:"unitPrice"`
	Amount      *float64 `json:"amount"`
	UsedAt      *string  `json:"usedAt"` // "2006-01-02"
}

func (req *itemRequest) record() (store.ItemRecord, error) {
	rec := store.ItemRecord{
		CategoryKey: req.CategoryKey,
		CategoryNo:  excel.CategoryNumber(req.CategoryKey),
		EvidenceNo:  req.EvidenceNo,
		ItemName:    req.ItemName,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Amount:      req.Amount,
	}
	if req.UsedAt != nil && *req.UsedAt != "" {
		t, err := time.Parse("2006-01-02", *req.UsedAt)
		if err != nil {
			return rec, fmt.Errorf("usedAt %q must look like 2025-07-15", *req.UsedAt)
		}
		rec.UsedAt = &t
	}
	return rec, nil
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "documentID")
	if !ok {
		return
	}

	items, err := s.service.ListItems(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []store.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "documentID")
	if !ok {
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	rec, err := req.record()
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	item, err := s.service.CreateItem(r.Context(), id, rec)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "itemID")
	if !ok {
		return
	}

	item, err := s.service.GetItem(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "itemID")
	if !ok {
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	rec, err := req.record()
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	item, err := s.service.UpdateItem(r.Context(), id, rec)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleClearItems(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "documentID")
	if !ok {
		return
	}

	deleted, err := s.service.ClearItems(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
