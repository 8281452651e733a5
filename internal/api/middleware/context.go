package middleware

import (
	"context"
	"net/http"

	"github.com/ragwidget/kbchat/pkg/models"
)

type contextKey string

const tenantKey contextKey = "tenant"

// SetTenant stores the authenticated tenant in the request context.
func SetTenant(ctx context.Context, t *models.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// GetTenant returns the authenticated tenant set by the Auth middleware.
func GetTenant(r *http.Request) (*models.Tenant, bool) {
	t, ok := r.Context().Value(tenantKey).(*models.Tenant)
	return t, ok
}
