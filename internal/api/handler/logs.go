package handler

import (
	"net/http"

	"github.com/ragwidget/kbchat/internal/api/middleware"
	"github.com/ragwidget/kbchat/internal/api/response"
	"github.com/ragwidget/kbchat/internal/store"
)

// NewLogsGetHandler returns the handler for GET /api/v1/tenant/logs.
// Entries come back newest first.
func NewLogsGetHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.GetTenant(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		entries, err := s.ListLog(r.Context(), t.Email)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load conversation log", nil)
			return
		}
		response.JSON(w, map[string]any{
			"entries": entries,
			"count":   len(entries),
		})
	}
}

// NewLogsClearHandler returns the handler for DELETE /api/v1/tenant/logs.
func NewLogsClearHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.GetTenant(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		if err := s.ClearLog(r.Context(), t.Email); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear conversation log", nil)
			return
		}
		response.JSON(w, map[string]any{"status": "cleared"})
	}
}
