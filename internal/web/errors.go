package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gwonsinchan1234/expense-photo-platform/internal/core"
	"github.com/gwonsinchan1234/expense-photo-platform/internal/logging"
)

// ErrorResponse is the JSON shape of every API error. Code is stable
// across releases; clients and support staff key off it.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
}

// respondError logs the technical error and answers with the mapped
// user-facing message. The raw error text never reaches the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	)

	writeJSON(w, status, ErrorResponse{
		Error:  msg.Message,
		Action: msg.Action,
		Code:   msg.Code,
	})
}

// errorStatus picks the HTTP status for a pipeline error. Handlers use
// it for errors bubbling out of the core where the cause is not known
// at the call site.
func errorStatus(err error) int {
	var conflict *core.ConflictError
	var invalid *core.ValidationError
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNoDetailRows):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing to do but log.
		slog.Error("json encode", "error", err)
	}
}
