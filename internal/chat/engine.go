// Package chat answers visitor queries against a tenant's knowledge base.
package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ragwidget/kbchat/internal/kb"
	"github.com/ragwidget/kbchat/internal/store"
	"github.com/ragwidget/kbchat/pkg/models"
	"github.com/ragwidget/kbchat/pkg/prompt"
)

const (
	answerTemperature     = 0.3
	answerMaxOutputTokens = 1000
	answerTimeout         = 30 * time.Second
)

// Engine combines the assembled context with the visitor query and the
// target language into a single generation call. Answer never returns an
// error to the caller; every failure degrades to a fixed localized string.
type Engine struct {
	assembler *kb.Assembler
	provider  models.GenerationProvider
	store     store.Store
	prompts   prompt.Builder
	docExists func(subdomain string) bool
}

// NewEngine creates an Engine. docExists reports whether a tenant has an
// uploaded document (the document store's Exists in production).
func NewEngine(assembler *kb.Assembler, provider models.GenerationProvider, s store.Store, docExists func(string) bool) *Engine {
	return &Engine{
		assembler: assembler,
		provider:  provider,
		store:     s,
		docExists: docExists,
	}
}

// Answer resolves a single chat query. lang is normalized to a supported
// code before the call; unsupported codes answer in English.
func (e *Engine) Answer(ctx context.Context, tenant *models.Tenant, query, lang string) string {
	if !models.IsSupportedLanguage(lang) {
		lang = models.LangEN
	}

	if tenant == nil || tenant.Subdomain == "" || !e.docExists(tenant.Subdomain) {
		return localized(notConfiguredMessages, lang)
	}

	docContext, err := e.assembler.AssembleContext(ctx, tenant.Subdomain)
	if err != nil {
		slog.Error("context assembly failed", "tenant", tenant.Email, "error", err)
		return localized(connectionErrorMessages, lang)
	}

	callCtx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	answer, err := e.provider.Generate(callCtx, models.GenerationRequest{
		SystemInstruction: e.prompts.BuildAnswerInstruction(prompt.AnswerParams{
			Context:  docContext,
			Language: lang,
		}),
		Turns:           []models.Turn{{Role: "user", Text: query}},
		Temperature:     answerTemperature,
		MaxOutputTokens: answerMaxOutputTokens,
	})
	if err != nil {
		slog.Error("generation failed", "tenant", tenant.Email, "provider", e.provider.Name(), "error", err)
		return localized(connectionErrorMessages, lang)
	}

	entry := &models.ConversationLogEntry{
		ID:          uuid.New(),
		TenantEmail: tenant.Email,
		Timestamp:   time.Now().UTC(),
		Language:    lang,
		Query:       query,
		Answer:      answer,
	}
	if err := e.store.AppendLogEntry(ctx, entry); err != nil {
		// The visitor still gets the answer; only the log entry is lost.
		slog.Error("append conversation log failed", "tenant", tenant.Email, "error", err)
	}

	return answer
}
