package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gwonsinchan1234/expense-photo-platform/internal/core"
)

// handleImport accepts a multipart xlsx upload in the "file" field and
// runs the all-or-nothing import pipeline. On success the parse summary
// comes back with any skipped-row warnings; on a batch-level failure
// nothing was committed.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "documentID")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxWorkbookSize)
	if err := r.ParseMultipartForm(s.cfg.Upload.MaxWorkbookSize); err != nil {
		s.respondError(w, r, fmt.Errorf("unreadable workbook upload: %w", err), http.StatusRequestEntityTooLarge)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("no file provided: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := s.service.ImportWorkbook(r.Context(), id, file)
	if err != nil {
		s.respondError(w, r, err, importErrorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// importErrorStatus distinguishes workbook problems (client-fixable,
// 4xx) from commit problems (5xx). Anything before the commit phase is
// something the uploader can fix in their file.
func importErrorStatus(err error) int {
	if status := errorStatus(err); status != http.StatusInternalServerError {
		return status
	}
	var commit *core.CommitError
	if errors.As(err, &commit) {
		return http.StatusInternalServerError
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusUnprocessableEntity
}

// handleExport renders and serves the audit workbook as an attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "documentID")
	if !ok {
		return
	}

	file, err := s.service.ExportWorkbook(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, errorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}
