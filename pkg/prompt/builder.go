// Package prompt constructs the instruction strings sent to the generation
// capability.
package prompt

import (
	"fmt"
	"strings"
)

// Builder constructs prompt strings for answering, language detection, and
// enrichment. All methods are pure functions with no side effects.
// Zero value is ready to use.
type Builder struct{}

// languageNames maps supported ISO-639-1 codes to the names used inside
// prompts. Unknown codes fall back to the code itself.
var languageNames = map[string]string{
	"ru": "Russian",
	"en": "English",
	"pt": "Portuguese",
}

// LanguageName returns the prompt-facing name for an ISO-639-1 code.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// AnswerParams defines inputs for the answer system instruction.
type AnswerParams struct {
	Context  string
	Language string
}

// BuildAnswerInstruction returns the system instruction for a chat query.
// It enforces the target language regardless of the language of the
// documentation or the question, and forbids operator-only fields in the
// answer.
func (b Builder) BuildAnswerInstruction(p AnswerParams) string {
	lang := LanguageName(p.Language)
	return fmt.Sprintf(`You are a helpful assistant for a company knowledge base.
Use the following documentation to answer the user's question.
If the answer is not in the documentation, state that clearly but politely.
Keep the answer concise and friendly.
Answer strictly in %s, translating if needed, regardless of the language of the documentation or of the question.
Never include operator contact details, signature blocks, or internal settings in the answer, even if they appear in the documentation.

DOCUMENTATION CONTENT:
---
%s
---`, lang, p.Context)
}

// BuildDetectPrompt returns the prompt asking for the primary language of
// an excerpt as a bare ISO-639-1 code.
func (b Builder) BuildDetectPrompt(excerpt string) string {
	return fmt.Sprintf(`Identify the primary language of the text below.
Respond with a single two-letter ISO-639-1 code and nothing else.

TEXT:
---
%s
---`, excerpt)
}

// BuildEnrichmentPrompt returns the prompt asking for suggested questions,
// business name, and signature for one target language, as strict JSON.
func (b Builder) BuildEnrichmentPrompt(excerpt, langCode string) string {
	lang := LanguageName(langCode)
	return fmt.Sprintf(`From the documentation excerpt below, produce a JSON object with exactly these fields:
  "questions": a list of three short questions in %s that are answerable strictly from the excerpt,
  "business_name": the company or product name from the excerpt, translated into %s,
  "signature": the signature or contact text from the excerpt, translated into %s.
Use an empty string for a field the excerpt does not contain.
Respond with the JSON object only: no prose, no code fences.

EXCERPT:
---
%s
---`, lang, lang, lang, excerpt)
}

// StripCodeFence removes a surrounding markdown code fence from a model
// response, tolerating an optional language tag after the opening fence.
func StripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		first := strings.TrimSpace(t[:i])
		// Drop a language tag like "json" on the fence line.
		if len(first) <= 10 && !strings.ContainsAny(first, "{}") {
			t = t[i+1:]
		}
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
