// Package enrich recomputes a tenant's derived caches (suggested questions,
// localized business name and signature, detected language) in the
// background after a document upload.
package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ragwidget/kbchat/internal/docstore"
	"github.com/ragwidget/kbchat/internal/kb"
	"github.com/ragwidget/kbchat/internal/store"
	"github.com/ragwidget/kbchat/pkg/models"
	"github.com/ragwidget/kbchat/pkg/prompt"
)

const (
	detectExcerptChars  = 1000
	enrichExcerptTokens = 2000

	detectTimeout = 10 * time.Second
	langTimeout   = 30 * time.Second

	persistAttempts = 3
)

// Service runs enrichment. Trigger dispatches a run in a goroutine and
// returns immediately; Run is the synchronous core.
type Service struct {
	store    store.Store
	docs     *docstore.Store
	provider models.GenerationProvider
	tok      kb.Tokenizer
	prompts  prompt.Builder
}

// NewService creates an enrichment Service.
func NewService(s store.Store, docs *docstore.Store, provider models.GenerationProvider, tok kb.Tokenizer) *Service {
	return &Service{store: s, docs: docs, provider: provider, tok: tok}
}

// ContentHash identifies a document version for supersede checks.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Trigger dispatches an enrichment run for the freshly uploaded content and
// returns its run ID without waiting. The upload response must not wait for
// caches; callers treat the returned ID as a log correlation handle only.
func (s *Service) Trigger(email, subdomain, content string) uuid.UUID {
	runID := uuid.New()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in enrichment run", "error", r, "run_id", runID)
			}
		}()
		if err := s.Run(context.Background(), email, subdomain, content); err != nil {
			slog.Error("enrichment run failed", "error", err, "run_id", runID, "tenant", email)
		}
	}()
	return runID
}

// Run executes one enrichment pass over content for the tenant. A failure
// for one language does not abort the others; a run whose document was
// replaced mid-flight discards its results instead of persisting them.
func (s *Service) Run(ctx context.Context, email, subdomain, content string) error {
	hash := ContentHash(content)
	started := time.Now()
	slog.Info("enrichment started", "tenant", email, "doc_hash", hash[:12])

	stripped := kb.StripComments(content)
	detected := s.detectLanguage(ctx, stripped)

	caches := models.EnrichmentCaches{
		SuggestionsByLang:  make(map[string][]string, len(models.SupportedLanguages)),
		BusinessNameByLang: make(map[string]string, len(models.SupportedLanguages)),
		SignatureByLang:    make(map[string]string, len(models.SupportedLanguages)),
		DetectedLanguage:   detected,
	}

	excerpt := s.tok.Truncate(stripped, enrichExcerptTokens)
	for _, lang := range models.SupportedLanguages {
		result, err := s.enrichLanguage(ctx, excerpt, lang)
		if err != nil {
			slog.Warn("enrichment degraded to heuristic", "tenant", email, "lang", lang, "error", err)
			caches.SuggestionsByLang[lang] = ExtractQuestions(content)
			continue
		}
		caches.SuggestionsByLang[lang] = result.Questions
		caches.BusinessNameByLang[lang] = result.BusinessName
		caches.SignatureByLang[lang] = result.Signature
	}

	if err := s.persist(ctx, email, subdomain, hash, caches); err != nil {
		return err
	}

	slog.Info("enrichment finished", "tenant", email, "doc_hash", hash[:12],
		"detected_language", detected, "duration_ms", time.Since(started).Milliseconds())
	return nil
}

// detectLanguage asks the provider for the ISO-639-1 code of a short
// excerpt. Any failure or unsupported code defaults to "ru".
func (s *Service) detectLanguage(ctx context.Context, stripped string) string {
	excerpt := []rune(stripped)
	if len(excerpt) > detectExcerptChars {
		excerpt = excerpt[:detectExcerptChars]
	}

	callCtx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	raw, err := s.provider.Generate(callCtx, models.GenerationRequest{
		Turns:           []models.Turn{{Role: "user", Text: s.prompts.BuildDetectPrompt(string(excerpt))}},
		Temperature:     0,
		MaxOutputTokens: 10,
	})
	if err != nil {
		return models.DefaultLanguage
	}

	code := strings.ToLower(strings.Trim(strings.TrimSpace(raw), "\"'.`"))
	if !models.IsSupportedLanguage(code) {
		return models.DefaultLanguage
	}
	return code
}

// languageResult is the structured object requested from the provider per
// target language.
type languageResult struct {
	Questions    []string `json:"questions"`
	BusinessName string   `json:"business_name"`
	Signature    string   `json:"signature"`
}

var errUnparsable = errors.New("unparsable enrichment response")

func (s *Service) enrichLanguage(ctx context.Context, excerpt, lang string) (*languageResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, langTimeout)
	defer cancel()

	raw, err := s.provider.Generate(callCtx, models.GenerationRequest{
		Turns:           []models.Turn{{Role: "user", Text: s.prompts.BuildEnrichmentPrompt(excerpt, lang)}},
		Temperature:     0.2,
		MaxOutputTokens: 500,
	})
	if err != nil {
		return nil, err
	}

	var result languageResult
	if err := json.Unmarshal([]byte(prompt.StripCodeFence(raw)), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", errUnparsable, err)
	}
	if len(result.Questions) > 3 {
		result.Questions = result.Questions[:3]
	}
	if result.Questions == nil {
		result.Questions = []string{}
	}
	return &result, nil
}

// persist writes all four caches as one versioned update. The run is
// discarded when the stored document no longer matches the hash this run
// was computed from, so a superseding upload always wins.
func (s *Service) persist(ctx context.Context, email, subdomain, hash string, caches models.EnrichmentCaches) error {
	for attempt := 0; attempt < persistAttempts; attempt++ {
		current, err := s.docs.Load(subdomain)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("re-read document: %w", err)
		}
		if ContentHash(current) != hash {
			slog.Info("enrichment superseded, discarding results", "tenant", email, "doc_hash", hash[:12])
			return nil
		}

		t, err := s.store.GetTenant(ctx, email)
		if err != nil {
			return fmt.Errorf("load tenant for persist: %w", err)
		}

		// A run that derived nothing must not clobber a previous coherent
		// cache set; the old values stay until the next successful run.
		if caches.Empty() && !t.Caches().Empty() {
			slog.Warn("enrichment produced no values, keeping previous caches", "tenant", email)
			return nil
		}

		err = s.store.UpdateEnrichmentCaches(ctx, email, caches, t.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return fmt.Errorf("persist caches: %w", err)
		}
	}
	return fmt.Errorf("persist caches for %s: %w", email, store.ErrVersionConflict)
}
