package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ragwidget/kbchat/internal/api/middleware"
	"github.com/ragwidget/kbchat/internal/api/response"
	"github.com/ragwidget/kbchat/internal/cache"
	"github.com/ragwidget/kbchat/internal/docstore"
	"github.com/ragwidget/kbchat/pkg/models"
)

// maxDocumentBytes bounds uploaded knowledge base documents.
const maxDocumentBytes = 2 << 20

// NewDocumentGetHandler returns the handler for GET /api/v1/tenant/document.
func NewDocumentGetHandler(docs *docstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.GetTenant(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		content, err := docs.Load(t.Subdomain)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				response.JSON(w, map[string]any{"content": "", "exists": false})
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read document", nil)
			return
		}
		response.JSON(w, map[string]any{"content": content, "exists": true})
	}
}

// NewDocumentUpdateHandler returns the handler for POST /api/v1/tenant/document.
// The document is persisted first; enrichment runs in the background and the
// handler responds as soon as the write lands.
func NewDocumentUpdateHandler(docs *docstore.Store, enricher Enricher, notif Notifier, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.GetTenant(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentBytes)).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid or oversized JSON body", nil)
			return
		}

		if err := docs.Save(t.Subdomain, req.Content); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save document", nil)
			return
		}

		// Stale widget settings disappear within the cache TTL anyway, but
		// dropping them now makes a fresh upload visible immediately.
		for _, lang := range models.SupportedLanguages {
			_ = c.Delete(r.Context(), cache.PublicSettingsKey(t.Subdomain, lang))
		}

		runID := enricher.Trigger(t.Email, t.Subdomain, req.Content)
		go notif.Notify(context.Background(),
			fmt.Sprintf("Knowledge base updated: %s (%d bytes)", t.Subdomain, len(req.Content)))

		response.JSON(w, map[string]any{
			"status":            "saved",
			"enrichment_run_id": runID.String(),
		})
	}
}
