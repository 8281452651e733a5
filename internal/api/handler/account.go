package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ragwidget/kbchat/internal/api/response"
	"github.com/ragwidget/kbchat/internal/auth"
	"github.com/ragwidget/kbchat/internal/store"
	"github.com/ragwidget/kbchat/pkg/models"
)

const minPasswordLen = 8

var reSubdomain = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Subdomain labels that must never be claimed by a tenant.
var reservedSubdomains = map[string]struct{}{
	"www": {}, "api": {}, "rag": {}, "admin": {}, "default": {},
}

// NewRegisterHandler returns the handler for POST /api/v1/register.
// Registration creates the tenant record, issues a credential, and kicks
// off provisioning and an operator notification without blocking the
// response.
func NewRegisterHandler(s store.Store, tokens TokenIssuer, prov Provisioner, notif Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email     string `json:"email"`
			Password  string `json:"password"`
			Subdomain string `json:"subdomain"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		req.Subdomain = strings.ToLower(strings.TrimSpace(req.Subdomain))

		if req.Email == "" || !strings.Contains(req.Email, "@") {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "A valid email is required", nil)
			return
		}
		if len(req.Password) < minPasswordLen {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				fmt.Sprintf("Password must be at least %d characters", minPasswordLen), nil)
			return
		}
		if !reSubdomain.MatchString(req.Subdomain) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Subdomain must be a valid lowercase DNS label", nil)
			return
		}
		if _, reserved := reservedSubdomains[req.Subdomain]; reserved {
			response.Error(w, http.StatusConflict, "SUBDOMAIN_TAKEN", "This subdomain is reserved", nil)
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account", nil)
			return
		}

		now := time.Now().UTC()
		t := &models.Tenant{
			Email:        req.Email,
			PasswordHash: hash,
			Subdomain:    req.Subdomain,
			Settings:     models.TenantSettings{Visibility: "public"},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.CreateTenant(r.Context(), t); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, "ALREADY_EXISTS",
					"Email or subdomain is already registered", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account", nil)
			return
		}

		token, err := tokens.Issue(t.Email, t.IsAdmin)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue credential", nil)
			return
		}

		prov.Provision(t.Subdomain)
		go notif.Notify(context.Background(),
			fmt.Sprintf("New tenant registered: %s (%s)", t.Subdomain, t.Email))

		response.Created(w, map[string]any{
			"token":     token,
			"email":     t.Email,
			"subdomain": t.Subdomain,
		})
	}
}

// NewLoginHandler returns the handler for POST /api/v1/login.
func NewLoginHandler(s store.Store, tokens TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		t, err := s.GetTenant(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
		if err != nil || !auth.VerifyPassword(req.Password, t.PasswordHash) {
			// Same response for unknown email and wrong password.
			response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS",
				"Email or password is incorrect", nil)
			return
		}

		token, err := tokens.Issue(t.Email, t.IsAdmin)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue credential", nil)
			return
		}

		response.JSON(w, map[string]any{
			"token":     token,
			"email":     t.Email,
			"subdomain": t.Subdomain,
			"is_admin":  t.IsAdmin,
		})
	}
}
