package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/ragwidget/kbchat/internal/api/middleware"
	"github.com/ragwidget/kbchat/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	// Public widget surface, resolved by host or credential.
	PublicSettingsHandler http.HandlerFunc
	SuggestionsHandler    http.HandlerFunc
	ChatHandler           http.HandlerFunc

	RegisterHandler http.HandlerFunc
	LoginHandler    http.HandlerFunc

	// Tenant dashboard surface, credential required.
	TenantSettingsGet    http.HandlerFunc
	TenantSettingsUpdate http.HandlerFunc
	DocumentGet          http.HandlerFunc
	DocumentUpdate       http.HandlerFunc
	LogsGet              http.HandlerFunc
	LogsClear            http.HandlerFunc

	AdminTenantsHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Public routes: the widget and account endpoints. Rate limited by
	// client IP since there is no credential yet.
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit)

		r.Get("/api/v1/settings", orNotImplemented(deps.PublicSettingsHandler))
		r.Get("/api/v1/suggestions", orNotImplemented(deps.SuggestionsHandler))
		r.Post("/api/v1/chat", orNotImplemented(deps.ChatHandler))

		r.Post("/api/v1/register", orNotImplemented(deps.RegisterHandler))
		r.Post("/api/v1/login", orNotImplemented(deps.LoginHandler))
	})

	// Tenant routes: credential required, rate limited per tenant.
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Get("/api/v1/tenant/settings", orNotImplemented(deps.TenantSettingsGet))
		r.Post("/api/v1/tenant/settings", orNotImplemented(deps.TenantSettingsUpdate))

		r.Get("/api/v1/tenant/document", orNotImplemented(deps.DocumentGet))
		r.Post("/api/v1/tenant/document", orNotImplemented(deps.DocumentUpdate))

		r.Get("/api/v1/tenant/logs", orNotImplemented(deps.LogsGet))
		r.Delete("/api/v1/tenant/logs", orNotImplemented(deps.LogsClear))

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireAdmin)

			r.Get("/api/v1/admin/tenants", orNotImplemented(deps.AdminTenantsHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
