package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ragwidget/kbchat/internal/api/response"
	"github.com/ragwidget/kbchat/internal/tenant"
)

// Auth provides authentication and admin-gating middleware on top of the
// tenant resolver.
type Auth struct {
	resolver *tenant.Resolver
}

// NewAuth creates a new Auth middleware.
func NewAuth(r *tenant.Resolver) *Auth {
	return &Auth{resolver: r}
}

// Authenticate requires a valid bearer credential, resolves its tenant,
// and stores it in the request context. Host-based fallback does not apply
// on authenticated routes.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, err := a.resolver.Resolve(r.Context(), tenant.ResolveInput{
			Credential:  ExtractBearerToken(r),
			RequireAuth: true,
		})
		if err != nil {
			if errors.Is(err, tenant.ErrUnauthorized) {
				response.Error(w, http.StatusUnauthorized,
					"INVALID_TOKEN", "Missing, invalid, or expired credential", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to resolve tenant", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetTenant(r.Context(), t)))
	})
}

// RequireAdmin rejects authenticated tenants without the administrative flag.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, ok := GetTenant(r)
		if !ok || !t.IsAdmin {
			response.Error(w, http.StatusForbidden,
				"FORBIDDEN", "Administrative access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractBearerToken returns the raw bearer token from the Authorization
// header, or "" when absent or malformed.
func ExtractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
