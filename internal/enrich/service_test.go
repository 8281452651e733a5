package enrich_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ragwidget/kbchat/internal/ai/mock"
	"github.com/ragwidget/kbchat/internal/docstore"
	"github.com/ragwidget/kbchat/internal/enrich"
	"github.com/ragwidget/kbchat/internal/store"
	"github.com/ragwidget/kbchat/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passTokenizer never truncates; enrichment excerpts are tiny in tests.
type passTokenizer struct{}

func (passTokenizer) Count(s string) int              { return len(s) }
func (passTokenizer) Truncate(s string, _ int) string { return s }

type fixture struct {
	store   *store.MemoryStore
	docs    *docstore.Store
	service *enrich.Service
}

func newFixture(t *testing.T, provider models.GenerationProvider) fixture {
	t.Helper()
	s := store.NewMemoryStore()
	require.NoError(t, s.CreateTenant(context.Background(), &models.Tenant{
		Email: "owner@acme.example", Subdomain: "acme",
	}))

	docs, err := docstore.New(t.TempDir())
	require.NoError(t, err)

	return fixture{
		store:   s,
		docs:    docs,
		service: enrich.NewService(s, docs, provider, passTokenizer{}),
	}
}

// routingProvider answers the detection prompt with lang and the enrichment
// prompt with enrichResponse.
func routingProvider(lang, enrichResponse string) *mock.Provider {
	return &mock.Provider{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, req models.GenerationRequest) (string, error) {
			if strings.Contains(req.Turns[0].Text, "ISO-639-1") {
				return lang, nil
			}
			return enrichResponse, nil
		},
	}
}

func TestRun_HappyPath(t *testing.T) {
	provider := routingProvider("en", `{
		"questions": ["How to order?", "Where do you ship?"],
		"business_name": "ACME Store",
		"signature": "Best regards, ACME"
	}`)
	f := newFixture(t, provider)

	content := "# ACME FAQ\nWe sell everything."
	require.NoError(t, f.docs.Save("acme", content))
	require.NoError(t, f.service.Run(context.Background(), "owner@acme.example", "acme", content))

	tenant, err := f.store.GetTenant(context.Background(), "owner@acme.example")
	require.NoError(t, err)

	assert.Equal(t, "en", tenant.DetectedLanguage)
	for _, lang := range models.SupportedLanguages {
		assert.Equal(t, []string{"How to order?", "Where do you ship?"},
			tenant.SuggestionsByLang[lang], "lang %s", lang)
		assert.Equal(t, "ACME Store", tenant.BusinessNameByLang[lang])
		assert.Equal(t, "Best regards, ACME", tenant.SignatureByLang[lang])
	}
	assert.EqualValues(t, 1, tenant.Version)
}

func TestRun_CodeFencedResponseParses(t *testing.T) {
	provider := routingProvider("ru",
		"```json\n{\"questions\":[\"Когда отпуск?\"],\"business_name\":\"\",\"signature\":\"\"}\n```")
	f := newFixture(t, provider)

	content := "документ"
	require.NoError(t, f.docs.Save("acme", content))
	require.NoError(t, f.service.Run(context.Background(), "owner@acme.example", "acme", content))

	tenant, err := f.store.GetTenant(context.Background(), "owner@acme.example")
	require.NoError(t, err)
	assert.Equal(t, []string{"Когда отпуск?"}, tenant.SuggestionsByLang["ru"])
}

func TestRun_UnsupportedDetectionDefaultsToRussian(t *testing.T) {
	provider := routingProvider("de", `{"questions":["Q?"],"business_name":"","signature":""}`)
	f := newFixture(t, provider)

	content := "doc"
	require.NoError(t, f.docs.Save("acme", content))
	require.NoError(t, f.service.Run(context.Background(), "owner@acme.example", "acme", content))

	tenant, err := f.store.GetTenant(context.Background(), "owner@acme.example")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLanguage, tenant.DetectedLanguage)
}

func TestRun_UnparsableResponseFallsBackToHeuristic(t *testing.T) {
	provider := routingProvider("ru", "sorry, I cannot produce JSON today")
	f := newFixture(t, provider)

	content := "intro **Когда отпуск?** more **Как оплатить?** text"
	require.NoError(t, f.docs.Save("acme", content))
	require.NoError(t, f.service.Run(context.Background(), "owner@acme.example", "acme", content))

	tenant, err := f.store.GetTenant(context.Background(), "owner@acme.example")
	require.NoError(t, err)

	for _, lang := range models.SupportedLanguages {
		assert.Equal(t, []string{"Когда отпуск?", "Как оплатить?"},
			tenant.SuggestionsByLang[lang], "lang %s", lang)
		assert.Empty(t, tenant.BusinessNameByLang[lang])
		assert.Empty(t, tenant.SignatureByLang[lang])
	}
}

func TestRun_TotalFailureKeepsPreviousCaches(t *testing.T) {
	good := routingProvider("en", `{"questions":["How to order?"],"business_name":"ACME","signature":""}`)
	f := newFixture(t, good)

	content := "plain document, no bold questions"
	require.NoError(t, f.docs.Save("acme", content))
	require.NoError(t, f.service.Run(context.Background(), "owner@acme.example", "acme", content))

	// Second run fails everywhere and derives nothing; the document has no
	// heuristic questions either. The first run's caches must survive.
	failing := mock.NewFailingProvider(errors.New("upstream down"))
	svc := enrich.NewService(f.store, f.docs, failing, passTokenizer{})
	require.NoError(t, svc.Run(context.Background(), "owner@acme.example", "acme", content))

	tenant, err := f.store.GetTenant(context.Background(), "owner@acme.example")
	require.NoError(t, err)
	assert.Equal(t, []string{"How to order?"}, tenant.SuggestionsByLang["en"])
	assert.Equal(t, "ACME", tenant.BusinessNameByLang["en"])
}

func TestRun_SupersededRunDiscardsResults(t *testing.T) {
	provider := routingProvider("en", `{"questions":["Stale?"],"business_name":"Stale","signature":""}`)
	f := newFixture(t, provider)

	old := "old content"
	require.NoError(t, f.docs.Save("acme", "replacement uploaded mid-run"))

	// Run computed against old content finds a different document on disk
	// at persist time and must not write anything.
	require.NoError(t, f.service.Run(context.Background(), "owner@acme.example", "acme", old))

	tenant, err := f.store.GetTenant(context.Background(), "owner@acme.example")
	require.NoError(t, err)
	assert.Empty(t, tenant.SuggestionsByLang)
	assert.EqualValues(t, 0, tenant.Version)
}

func TestRun_RerunIsIdempotentOnVersion(t *testing.T) {
	provider := routingProvider("en", `{"questions":["Q?"],"business_name":"ACME","signature":""}`)
	f := newFixture(t, provider)

	content := "doc"
	require.NoError(t, f.docs.Save("acme", content))

	require.NoError(t, f.service.Run(context.Background(), "owner@acme.example", "acme", content))
	require.NoError(t, f.service.Run(context.Background(), "owner@acme.example", "acme", content))

	tenant, err := f.store.GetTenant(context.Background(), "owner@acme.example")
	require.NoError(t, err)
	assert.EqualValues(t, 2, tenant.Version)
	assert.Equal(t, []string{"Q?"}, tenant.SuggestionsByLang["en"])
}

func TestRun_TimeoutProviderDegrades(t *testing.T) {
	f := newFixture(t, mock.NewTimeoutProvider())

	content := "**Any questions?** here"
	require.NoError(t, f.docs.Save("acme", content))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, f.service.Run(ctx, "owner@acme.example", "acme", content))

	tenant, err := f.store.GetTenant(context.Background(), "owner@acme.example")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLanguage, tenant.DetectedLanguage)
	assert.Equal(t, []string{"Any questions?"}, tenant.SuggestionsByLang["ru"])
}

func TestContentHash_Stable(t *testing.T) {
	a := enrich.ContentHash("doc")
	b := enrich.ContentHash("doc")
	c := enrich.ContentHash("other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
