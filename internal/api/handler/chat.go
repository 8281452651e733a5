package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ragwidget/kbchat/internal/api/middleware"
	"github.com/ragwidget/kbchat/internal/api/response"
	"github.com/ragwidget/kbchat/internal/tenant"
)

// NewChatHandler returns the handler for POST /api/v1/chat. The endpoint is
// public: the tenant comes from the credential when one is presented and
// from the request host otherwise. The answer engine degrades instead of
// failing, so a well-formed request always gets 200 with an answer string.
func NewChatHandler(resolver Resolver, answerer Answerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
			Lang  string `json:"lang"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		req.Query = strings.TrimSpace(req.Query)
		if req.Query == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "query is required", nil)
			return
		}

		t, err := resolver.Resolve(r.Context(), tenant.ResolveInput{
			Credential: middleware.ExtractBearerToken(r),
			Host:       r.Host,
		})
		if err != nil {
			// The engine renders the unconfigured-tenant answer itself.
			t = nil
		}

		answer := answerer.Answer(r.Context(), t, req.Query, req.Lang)
		response.JSON(w, map[string]any{"answer": answer})
	}
}
