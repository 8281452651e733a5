// Package kb turns a tenant's raw document into a bounded prompt context.
package kb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ragwidget/kbchat/internal/docstore"
)

// DefaultTokenBudget is the maximum context size supplied to the
// generation capability per query.
const DefaultTokenBudget = 10000

var (
	reHTMLComment = regexp.MustCompile(`(?s)<!--.*?-->`)
	reHeading     = regexp.MustCompile(`^#{1,6}\s`)
)

// Heading spellings that mark the operator-settings section. The section's
// content (business name, signature, contacts) feeds enrichment but must
// never reach the generation capability as visible answer content.
var operatorHeadings = map[string]struct{}{
	"настройки":                 {},
	"настройки оператора":       {},
	"название":                  {},
	"подпись":                   {},
	"settings":                  {},
	"operator settings":         {},
	"name":                      {},
	"business name":             {},
	"signature":                 {},
	"configurações":             {},
	"configurações do operador": {},
	"nome da empresa":           {},
	"assinatura":                {},
}

// StripComments removes all HTML-comment-delimited spans.
func StripComments(s string) string {
	return reHTMLComment.ReplaceAllString(s, "")
}

// StripOperatorSections removes every operator-settings section: from a
// matching heading (any level, case-insensitive) up to the next heading of
// any level or end of document.
func StripOperatorSections(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	skipping := false

	for _, line := range lines {
		if reHeading.MatchString(line) {
			title := strings.ToLower(strings.TrimSpace(strings.TrimLeft(line, "# ")))
			_, skipping = operatorHeadings[title]
			if skipping {
				continue
			}
		}
		if !skipping {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// Assembler loads a tenant's document and produces the bounded context
// supplied to the answer engine. The assembled context is never returned
// to clients directly.
type Assembler struct {
	docs   *docstore.Store
	tok    Tokenizer
	budget int
}

// NewAssembler creates an Assembler. budget <= 0 selects DefaultTokenBudget.
func NewAssembler(docs *docstore.Store, tok Tokenizer, budget int) *Assembler {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &Assembler{docs: docs, tok: tok, budget: budget}
}

// AssembleContext returns the stripped, token-bounded document for the
// tenant. An absent document yields an empty context, not an error.
func (a *Assembler) AssembleContext(_ context.Context, subdomain string) (string, error) {
	doc, err := a.docs.Load(subdomain)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load document: %w", err)
	}

	cleaned := StripComments(StripOperatorSections(doc))
	return a.tok.Truncate(cleaned, a.budget), nil
}
