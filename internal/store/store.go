package store

import (
	"context"
	"errors"

	"github.com/ragwidget/kbchat/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrVersionConflict is returned by UpdateEnrichmentCaches when the tenant
// row version moved between the caller's read and the write. Callers
// re-read and retry, or discard their result.
var ErrVersionConflict = errors.New("tenant version conflict")

// Store is the data access interface. All tenant-record and conversation-log
// operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	// CreateTenant inserts a new tenant record. Returns ErrDuplicateKey
	// when the email or the subdomain is already taken.
	CreateTenant(ctx context.Context, t *models.Tenant) error
	GetTenant(ctx context.Context, email string) (*models.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	UpdateSettings(ctx context.Context, email string, settings models.TenantSettings) error

	// UpdateEnrichmentCaches replaces all derived caches on the tenant in
	// one write, guarded by the version the caller read. Returns
	// ErrVersionConflict when the row has since been updated by another
	// writer, ErrNotFound when the tenant does not exist.
	UpdateEnrichmentCaches(ctx context.Context, email string, caches models.EnrichmentCaches, expectedVersion int64) error

	AppendLogEntry(ctx context.Context, entry *models.ConversationLogEntry) error
	ListLog(ctx context.Context, email string) ([]*models.ConversationLogEntry, error)
	ClearLog(ctx context.Context, email string) error
}
