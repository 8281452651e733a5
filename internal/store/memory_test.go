package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ragwidget/kbchat/internal/store"
	"github.com/ragwidget/kbchat/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTenant(t *testing.T, s store.Store, email, subdomain string) {
	t.Helper()
	require.NoError(t, s.CreateTenant(context.Background(), &models.Tenant{
		Email:     email,
		Subdomain: subdomain,
		Settings:  models.TenantSettings{Visibility: "public"},
		CreatedAt: time.Now().UTC(),
	}))
}

func TestMemory_CreateAndGet(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	seedTenant(t, s, "owner@acme.example", "acme")

	got, err := s.GetTenant(ctx, "owner@acme.example")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Subdomain)

	_, err = s.GetTenant(ctx, "ghost@acme.example")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemory_DuplicateKeys(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	seedTenant(t, s, "owner@acme.example", "acme")

	err := s.CreateTenant(ctx, &models.Tenant{Email: "owner@acme.example", Subdomain: "other"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	err = s.CreateTenant(ctx, &models.Tenant{Email: "other@acme.example", Subdomain: "acme"})
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestMemory_GetBySubdomain(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	seedTenant(t, s, "owner@acme.example", "acme")

	got, err := s.GetTenantBySubdomain(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "owner@acme.example", got.Email)

	_, err = s.GetTenantBySubdomain(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemory_UpdateSettings(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	seedTenant(t, s, "owner@acme.example", "acme")

	settings := models.TenantSettings{Visibility: "private", SourceLabel: "ACME Docs"}
	require.NoError(t, s.UpdateSettings(ctx, "owner@acme.example", settings))

	got, err := s.GetTenant(ctx, "owner@acme.example")
	require.NoError(t, err)
	assert.Equal(t, settings, got.Settings)

	assert.ErrorIs(t, s.UpdateSettings(ctx, "ghost@acme.example", settings), store.ErrNotFound)
}

func TestMemory_UpdateEnrichmentCaches_CAS(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	seedTenant(t, s, "owner@acme.example", "acme")

	caches := models.EnrichmentCaches{
		SuggestionsByLang: map[string][]string{"en": {"How to order?"}},
		DetectedLanguage:  "en",
	}

	require.NoError(t, s.UpdateEnrichmentCaches(ctx, "owner@acme.example", caches, 0))

	got, err := s.GetTenant(ctx, "owner@acme.example")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Version)
	assert.Equal(t, []string{"How to order?"}, got.SuggestionsByLang["en"])

	// A writer holding the old version loses.
	err = s.UpdateEnrichmentCaches(ctx, "owner@acme.example", caches, 0)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	err = s.UpdateEnrichmentCaches(ctx, "ghost@acme.example", caches, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemory_ClonesAreIsolated(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	seedTenant(t, s, "owner@acme.example", "acme")
	require.NoError(t, s.UpdateEnrichmentCaches(ctx, "owner@acme.example", models.EnrichmentCaches{
		SuggestionsByLang: map[string][]string{"en": {"Q?"}},
	}, 0))

	got, err := s.GetTenant(ctx, "owner@acme.example")
	require.NoError(t, err)
	got.SuggestionsByLang["en"][0] = "mutated"

	fresh, err := s.GetTenant(ctx, "owner@acme.example")
	require.NoError(t, err)
	assert.Equal(t, "Q?", fresh.SuggestionsByLang["en"][0])
}

func TestMemory_ConversationLog(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	seedTenant(t, s, "owner@acme.example", "acme")

	base := time.Now().UTC()
	for i, q := range []string{"first", "second", "third"} {
		require.NoError(t, s.AppendLogEntry(ctx, &models.ConversationLogEntry{
			ID:          uuid.New(),
			TenantEmail: "owner@acme.example",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Language:    "en",
			Query:       q,
			Answer:      "answer",
		}))
	}

	entries, err := s.ListLog(ctx, "owner@acme.example")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// Newest first.
	assert.Equal(t, "third", entries[0].Query)
	assert.Equal(t, "first", entries[2].Query)

	require.NoError(t, s.ClearLog(ctx, "owner@acme.example"))
	entries, err = s.ListLog(ctx, "owner@acme.example")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemory_ListTenants(t *testing.T) {
	s := store.NewMemoryStore()
	seedTenant(t, s, "a@acme.example", "alpha")
	seedTenant(t, s, "b@acme.example", "beta")

	tenants, err := s.ListTenants(context.Background())
	require.NoError(t, err)
	assert.Len(t, tenants, 2)
}
