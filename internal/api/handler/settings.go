package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ragwidget/kbchat/internal/api/middleware"
	"github.com/ragwidget/kbchat/internal/api/response"
	"github.com/ragwidget/kbchat/internal/cache"
	"github.com/ragwidget/kbchat/internal/store"
	"github.com/ragwidget/kbchat/internal/tenant"
	"github.com/ragwidget/kbchat/pkg/models"
)

const publicSettingsTTL = 30 * time.Second

// publicSettings is the widget bootstrap payload for one language.
type publicSettings struct {
	BusinessName     string   `json:"business_name"`
	Signature        string   `json:"signature"`
	Suggestions      []string `json:"suggestions"`
	DetectedLanguage string   `json:"detected_language"`
	KBExists         bool     `json:"kb_exists"`
	Visibility       string   `json:"visibility"`
	SourceLabel      string   `json:"source_label"`
}

func buildPublicSettings(t *models.Tenant, lang string, kbExists bool) publicSettings {
	suggestions := t.SuggestionsByLang[lang]
	if suggestions == nil {
		suggestions = []string{}
	}
	return publicSettings{
		BusinessName:     t.BusinessNameByLang[lang],
		Signature:        t.SignatureByLang[lang],
		Suggestions:      suggestions,
		DetectedLanguage: t.DetectedLanguage,
		KBExists:         kbExists,
		Visibility:       t.Settings.Visibility,
		SourceLabel:      t.Settings.SourceLabel,
	}
}

// requestLanguage picks the widget language: explicit ?lang, then the
// tenant's detected language, then the default.
func requestLanguage(r *http.Request, t *models.Tenant) string {
	lang := r.URL.Query().Get("lang")
	if models.IsSupportedLanguage(lang) {
		return lang
	}
	if models.IsSupportedLanguage(t.DetectedLanguage) {
		return t.DetectedLanguage
	}
	return models.DefaultLanguage
}

// NewPublicSettingsHandler returns the handler for GET /api/v1/settings.
// The tenant is resolved from the request host; responses are cached
// briefly in Redis per subdomain and language.
func NewPublicSettingsHandler(resolver Resolver, docExists func(string) bool, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := resolver.Resolve(r.Context(), tenant.ResolveInput{
			Credential: middleware.ExtractBearerToken(r),
			Host:       r.Host,
		})
		if err != nil {
			response.Error(w, http.StatusNotFound, "NOT_CONFIGURED", "No knowledge base for this host", nil)
			return
		}

		lang := requestLanguage(r, t)

		key := cache.PublicSettingsKey(t.Subdomain, lang)
		if cached, ok, _ := c.Get(r.Context(), key); ok {
			var s publicSettings
			if json.Unmarshal(cached, &s) == nil {
				response.JSON(w, s)
				return
			}
		}

		s := buildPublicSettings(t, lang, docExists(t.Subdomain))
		if b, err := json.Marshal(s); err == nil {
			_ = c.Set(r.Context(), key, b, publicSettingsTTL)
		}
		response.JSON(w, s)
	}
}

// NewTenantSettingsGetHandler returns the handler for GET /api/v1/tenant/settings.
func NewTenantSettingsGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.GetTenant(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}
		response.JSON(w, map[string]any{
			"email":     t.Email,
			"subdomain": t.Subdomain,
			"settings":  t.Settings,
		})
	}
}

// NewTenantSettingsUpdateHandler returns the handler for POST /api/v1/tenant/settings.
func NewTenantSettingsUpdateHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := middleware.GetTenant(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
			return
		}

		var req models.TenantSettings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Visibility != "public" && req.Visibility != "private" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"visibility must be public or private", nil)
			return
		}

		if err := s.UpdateSettings(r.Context(), t.Email, req); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update settings", nil)
			return
		}
		response.JSON(w, map[string]any{"settings": req})
	}
}
