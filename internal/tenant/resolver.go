// Package tenant maps inbound requests to tenant records.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/ragwidget/kbchat/internal/auth"
	"github.com/ragwidget/kbchat/internal/store"
	"github.com/ragwidget/kbchat/pkg/models"
)

// ErrUnauthorized is returned when a credential is required but missing,
// invalid, or expired, or when its subject no longer exists.
var ErrUnauthorized = errors.New("unauthorized")

// ResolveInput carries the two identity sources of a request.
type ResolveInput struct {
	// Credential is the raw bearer token, empty when the request carried none.
	Credential string
	// Host is the request Host header (may include a port).
	Host string
	// RequireAuth makes a missing or invalid credential an error instead
	// of degrading to host-based resolution.
	RequireAuth bool
}

// Resolver applies the ordered resolution policy:
// credential subject → host-pattern match → fixed default tenant.
// Resolution is side-effect-free and idempotent.
type Resolver struct {
	store        store.Store
	tokens       *auth.TokenIssuer
	marker       string
	defaultEmail string
}

// NewResolver creates a Resolver. marker is the reserved third-from-last
// host label ("rag" in production) that flags tenant subdomains.
func NewResolver(s store.Store, tokens *auth.TokenIssuer, marker, defaultEmail string) *Resolver {
	return &Resolver{store: s, tokens: tokens, marker: marker, defaultEmail: defaultEmail}
}

// Resolve returns exactly one tenant for the given input, or ErrUnauthorized
// when RequireAuth is set and the credential does not hold up.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (*models.Tenant, error) {
	if in.Credential != "" {
		claims, err := r.tokens.Verify(in.Credential)
		if err == nil {
			t, err := r.store.GetTenant(ctx, claims.Email)
			if err == nil {
				return t, nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("lookup credential subject: %w", err)
			}
			// Subject vanished: with required auth that is an auth failure,
			// otherwise fall through to host resolution.
			if in.RequireAuth {
				return nil, fmt.Errorf("%w: unknown subject", ErrUnauthorized)
			}
		} else if in.RequireAuth {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
	} else if in.RequireAuth {
		return nil, fmt.Errorf("%w: missing credential", ErrUnauthorized)
	}

	if sub, ok := SubdomainFromHost(in.Host, r.marker); ok {
		t, err := r.store.GetTenantBySubdomain(ctx, sub)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("lookup subdomain %q: %w", sub, err)
		}
	}

	t, err := r.store.GetTenant(ctx, r.defaultEmail)
	if err != nil {
		return nil, fmt.Errorf("lookup default tenant: %w", err)
	}
	return t, nil
}

// SubdomainFromHost extracts the tenant subdomain from a request host.
// The host matches when it has at least four labels and the third-from-last
// label equals the reserved marker: "acme.rag.example.com" → "acme".
func SubdomainFromHost(host, marker string) (string, bool) {
	if host == "" {
		return "", false
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	labels := strings.Split(strings.ToLower(host), ".")
	if len(labels) < 4 {
		return "", false
	}
	if labels[len(labels)-3] != marker {
		return "", false
	}
	return labels[0], true
}
