package handler

import (
	"net/http"

	"github.com/ragwidget/kbchat/internal/api/response"
	"github.com/ragwidget/kbchat/internal/docstore"
	"github.com/ragwidget/kbchat/internal/store"
)

// adminTenant is the per-tenant row in the admin listing. Password hashes
// and raw caches stay out of it.
type adminTenant struct {
	Email            string `json:"email"`
	Subdomain        string `json:"subdomain"`
	IsAdmin          bool   `json:"is_admin"`
	Visibility       string `json:"visibility"`
	DetectedLanguage string `json:"detected_language"`
	KBExists         bool   `json:"kb_exists"`
	CreatedAt        string `json:"created_at"`
}

// NewAdminTenantsHandler returns the handler for GET /api/v1/admin/tenants.
func NewAdminTenantsHandler(s store.Store, docs *docstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenants, err := s.ListTenants(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tenants", nil)
			return
		}

		out := make([]adminTenant, 0, len(tenants))
		for _, t := range tenants {
			out = append(out, adminTenant{
				Email:            t.Email,
				Subdomain:        t.Subdomain,
				IsAdmin:          t.IsAdmin,
				Visibility:       t.Settings.Visibility,
				DetectedLanguage: t.DetectedLanguage,
				KBExists:         docs.Exists(t.Subdomain),
				CreatedAt:        t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			})
		}
		response.JSON(w, map[string]any{
			"tenants": out,
			"count":   len(out),
		})
	}
}
