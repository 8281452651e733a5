// Package handler contains the HTTP handlers for the public and tenant API.
// Each handler only extracts and validates request data, calls one core
// component, and maps the result onto the response envelope.
package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/ragwidget/kbchat/internal/tenant"
	"github.com/ragwidget/kbchat/pkg/models"
)

// TokenIssuer issues signed credentials for registered tenants.
type TokenIssuer interface {
	Issue(email string, admin bool) (string, error)
}

// Resolver maps a request's credential and host to a tenant.
type Resolver interface {
	Resolve(ctx context.Context, in tenant.ResolveInput) (*models.Tenant, error)
}

// Answerer produces a chat answer; it never fails, only degrades.
type Answerer interface {
	Answer(ctx context.Context, t *models.Tenant, query, lang string) string
}

// Enricher dispatches a background enrichment run for uploaded content.
type Enricher interface {
	Trigger(email, subdomain, content string) uuid.UUID
}

// Provisioner kicks off tenant infrastructure provisioning.
type Provisioner interface {
	Provision(subdomain string)
}

// Notifier delivers best-effort operator notifications.
type Notifier interface {
	Notify(ctx context.Context, text string)
}
