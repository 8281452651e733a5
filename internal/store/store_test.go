package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ragwidget/kbchat/internal/store"
	"github.com/ragwidget/kbchat/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("kbchat_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newTenant(email, subdomain string) *models.Tenant {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Tenant{
		Email:     email,
		Subdomain: subdomain,
		Settings:  models.TenantSettings{Visibility: "public"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- Tenant tests ---

func TestPostgres_SeededDefaultTenant(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))

	tenant, err := s.GetTenant(context.Background(), "admin@localhost")
	require.NoError(t, err)
	assert.True(t, tenant.IsAdmin)
	assert.Equal(t, "default", tenant.Subdomain)
	assert.Empty(t, tenant.PasswordHash)
}

func TestPostgres_CreateAndGetTenant(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.CreateTenant(ctx, newTenant("owner@acme.example", "acme")))

	got, err := s.GetTenant(ctx, "owner@acme.example")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Subdomain)
	assert.Equal(t, "public", got.Settings.Visibility)
	assert.EqualValues(t, 0, got.Version)

	bySub, err := s.GetTenantBySubdomain(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "owner@acme.example", bySub.Email)

	_, err = s.GetTenant(ctx, "ghost@acme.example")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgres_DuplicateKeys(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.CreateTenant(ctx, newTenant("owner@acme.example", "acme")))

	err := s.CreateTenant(ctx, newTenant("owner@acme.example", "other"))
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	err = s.CreateTenant(ctx, newTenant("other@acme.example", "acme"))
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestPostgres_UpdateSettings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	require.NoError(t, s.CreateTenant(ctx, newTenant("owner@acme.example", "acme")))

	settings := models.TenantSettings{Visibility: "private", SourceLabel: "ACME Docs"}
	require.NoError(t, s.UpdateSettings(ctx, "owner@acme.example", settings))

	got, err := s.GetTenant(ctx, "owner@acme.example")
	require.NoError(t, err)
	assert.Equal(t, settings, got.Settings)

	assert.ErrorIs(t, s.UpdateSettings(ctx, "ghost@acme.example", settings), store.ErrNotFound)
}

func TestPostgres_UpdateEnrichmentCaches_CAS(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	require.NoError(t, s.CreateTenant(ctx, newTenant("owner@acme.example", "acme")))

	caches := models.EnrichmentCaches{
		SuggestionsByLang: map[string][]string{
			"ru": {"Когда отпуск?"},
			"en": {"How to order?"},
		},
		BusinessNameByLang: map[string]string{"en": "ACME Store"},
		SignatureByLang:    map[string]string{"en": "Best regards"},
		DetectedLanguage:   "en",
	}

	require.NoError(t, s.UpdateEnrichmentCaches(ctx, "owner@acme.example", caches, 0))

	got, err := s.GetTenant(ctx, "owner@acme.example")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Version)
	assert.Equal(t, "en", got.DetectedLanguage)
	assert.Equal(t, []string{"Когда отпуск?"}, got.SuggestionsByLang["ru"])
	assert.Equal(t, "ACME Store", got.BusinessNameByLang["en"])

	// Stale version loses.
	err = s.UpdateEnrichmentCaches(ctx, "owner@acme.example", caches, 0)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	// Current version wins again.
	require.NoError(t, s.UpdateEnrichmentCaches(ctx, "owner@acme.example", caches, 1))

	err = s.UpdateEnrichmentCaches(ctx, "ghost@acme.example", caches, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgres_ListTenants(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.CreateTenant(ctx, newTenant("a@acme.example", "alpha")))
	require.NoError(t, s.CreateTenant(ctx, newTenant("b@acme.example", "beta")))

	tenants, err := s.ListTenants(ctx)
	require.NoError(t, err)
	// Two created plus the seeded default.
	assert.Len(t, tenants, 3)
}

// --- Conversation log tests ---

func TestPostgres_ConversationLog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	require.NoError(t, s.CreateTenant(ctx, newTenant("owner@acme.example", "acme")))

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, q := range []string{"first", "second", "third"} {
		require.NoError(t, s.AppendLogEntry(ctx, &models.ConversationLogEntry{
			ID:          uuid.New(),
			TenantEmail: "owner@acme.example",
			Timestamp:   base.Add(time.Duration(i) * time.Second),
			Language:    "en",
			Query:       q,
			Answer:      "answer to " + q,
		}))
	}

	entries, err := s.ListLog(ctx, "owner@acme.example")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].Query)
	assert.Equal(t, "first", entries[2].Query)

	require.NoError(t, s.ClearLog(ctx, "owner@acme.example"))
	entries, err = s.ListLog(ctx, "owner@acme.example")
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Empty log returns an empty slice, not nil.
	assert.NotNil(t, entries)
}
