package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// monthKeyRe pins the audit period format: "2025-07".
var monthKeyRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type createDocumentRequest struct {
	SiteName string `json:"siteName"`
	MonthKey string `json:"monthKey"`
}

// handleCreateDocument gets or creates the document for (site, month).
// Repeating the call returns the same document, so clients need no
// exists-check before importing.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	req.SiteName = strings.TrimSpace(req.SiteName)
	if req.SiteName == "" {
		s.respondError(w, r, fmt.Errorf("siteName is required"), http.StatusBadRequest)
		return
	}
	if !monthKeyRe.MatchString(req.MonthKey) {
		s.respondError(w, r, fmt.Errorf("monthKey %q must look like 2025-07", req.MonthKey), http.StatusBadRequest)
		return
	}

	doc, err := s.service.GetOrCreateDocument(r.Context(), req.SiteName, req.MonthKey)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "documentID")
	if !ok {
		return
	}

	doc, err := s.service.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// pathUUID parses a UUID route parameter, answering 400 itself on
// malformed input.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("invalid %s %q", param, raw), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
