package handler

import (
	"net/http"

	"github.com/ragwidget/kbchat/internal/api/middleware"
	"github.com/ragwidget/kbchat/internal/api/response"
	"github.com/ragwidget/kbchat/internal/tenant"
)

// NewSuggestionsHandler returns the handler for GET /api/v1/suggestions.
// Suggestions are served for the language requested via ?lang, falling back
// to the tenant's detected language.
func NewSuggestionsHandler(resolver Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := resolver.Resolve(r.Context(), tenant.ResolveInput{
			Credential: middleware.ExtractBearerToken(r),
			Host:       r.Host,
		})
		if err != nil {
			response.JSON(w, map[string]any{"suggestions": []string{}})
			return
		}

		lang := requestLanguage(r, t)
		suggestions := t.SuggestionsByLang[lang]
		if suggestions == nil {
			suggestions = []string{}
		}
		response.JSON(w, map[string]any{
			"suggestions": suggestions,
			"lang":        lang,
		})
	}
}
