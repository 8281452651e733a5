package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ragwidget/kbchat/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const tenantColumns = `email, password_hash, is_admin, subdomain, version,
	visibility, source_label,
	suggestions, business_names, signatures, detected_language,
	created_at, updated_at`

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.Email, &t.PasswordHash, &t.IsAdmin, &t.Subdomain, &t.Version,
		&t.Settings.Visibility, &t.Settings.SourceLabel,
		&t.SuggestionsByLang, &t.BusinessNameByLang, &t.SignatureByLang, &t.DetectedLanguage,
		&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return &t, nil
}

// --- Tenants ---

func (s *PostgresStore) CreateTenant(ctx context.Context, t *models.Tenant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenants (email, password_hash, is_admin, subdomain, version,
		   visibility, source_label,
		   suggestions, business_names, signatures, detected_language,
		   created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.Email, t.PasswordHash, t.IsAdmin, t.Subdomain, t.Version,
		t.Settings.Visibility, t.Settings.SourceLabel,
		t.SuggestionsByLang, t.BusinessNameByLang, t.SignatureByLang, t.DetectedLanguage,
		t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTenant(ctx context.Context, email string) (*models.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE email = $1`, email)
	return scanTenant(row)
}

func (s *PostgresStore) GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1`, subdomain)
	return scanTenant(row)
}

func (s *PostgresStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *PostgresStore) UpdateSettings(ctx context.Context, email string, settings models.TenantSettings) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET visibility = $2, source_label = $3, updated_at = NOW()
		 WHERE email = $1`, email, settings.Visibility, settings.SourceLabel)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateEnrichmentCaches replaces all four derived caches in one statement.
// The WHERE version guard makes the replace a compare-and-swap: a run that
// read a stale version writes nothing.
func (s *PostgresStore) UpdateEnrichmentCaches(ctx context.Context, email string, caches models.EnrichmentCaches, expectedVersion int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET
		   suggestions = $2, business_names = $3, signatures = $4, detected_language = $5,
		   version = version + 1, updated_at = NOW()
		 WHERE email = $1 AND version = $6`,
		email, caches.SuggestionsByLang, caches.BusinessNameByLang,
		caches.SignatureByLang, caches.DetectedLanguage, expectedVersion)
	if err != nil {
		return fmt.Errorf("update enrichment caches: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM tenants WHERE email = $1)`, email).Scan(&exists); err != nil {
			return fmt.Errorf("check tenant exists: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// --- Conversation log ---

func (s *PostgresStore) AppendLogEntry(ctx context.Context, entry *models.ConversationLogEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_log (id, tenant_email, ts, language, query, answer)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.TenantEmail, entry.Timestamp, entry.Language, entry.Query, entry.Answer)
	if err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListLog(ctx context.Context, email string) ([]*models.ConversationLogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_email, ts, language, query, answer
		 FROM conversation_log WHERE tenant_email = $1 ORDER BY ts DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("list log: %w", err)
	}
	defer rows.Close()

	entries := []*models.ConversationLogEntry{}
	for rows.Next() {
		var e models.ConversationLogEntry
		if err := rows.Scan(&e.ID, &e.TenantEmail, &e.Timestamp, &e.Language, &e.Query, &e.Answer); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) ClearLog(ctx context.Context, email string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_log WHERE tenant_email = $1`, email)
	if err != nil {
		return fmt.Errorf("clear log: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
