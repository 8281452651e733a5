package models

import "time"

// Languages the enrichment pipeline and the chat widget support.
const (
	LangRU = "ru"
	LangEN = "en"
	LangPT = "pt"

	// DefaultLanguage is used whenever detection fails or returns a code
	// outside the supported set.
	DefaultLanguage = LangRU
)

// SupportedLanguages lists enrichment target languages in processing order.
var SupportedLanguages = []string{LangRU, LangEN, LangPT}

// IsSupportedLanguage reports whether code is one of the supported
// ISO-639-1 codes.
func IsSupportedLanguage(code string) bool {
	for _, l := range SupportedLanguages {
		if l == code {
			return true
		}
	}
	return false
}

// TenantSettings is the operator-editable settings sub-object.
type TenantSettings struct {
	Visibility  string `db:"visibility"   json:"visibility"`
	SourceLabel string `db:"source_label" json:"source_label"`
}

// EnrichmentCaches holds every derived per-language cache as one value.
// The store replaces all four fields in a single versioned update so
// readers never observe a mix of old and new languages.
type EnrichmentCaches struct {
	SuggestionsByLang  map[string][]string `json:"suggestions_by_lang"`
	BusinessNameByLang map[string]string   `json:"business_name_by_lang"`
	SignatureByLang    map[string]string   `json:"signature_by_lang"`
	DetectedLanguage   string              `json:"detected_language"`
}

// Empty reports whether no suggestion, name, or signature value is present.
func (c EnrichmentCaches) Empty() bool {
	for _, qs := range c.SuggestionsByLang {
		if len(qs) > 0 {
			return false
		}
	}
	for _, v := range c.BusinessNameByLang {
		if v != "" {
			return false
		}
	}
	for _, v := range c.SignatureByLang {
		if v != "" {
			return false
		}
	}
	return true
}

// Tenant is one customer account. The email is the identity key and is
// immutable once created, as is the subdomain label (unique across all
// tenants). Version is bumped by every cache update and backs the
// compare-and-swap discipline in the store.
type Tenant struct {
	Email        string         `db:"email"         json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	IsAdmin      bool           `db:"is_admin"      json:"is_admin"`
	Subdomain    string         `db:"subdomain"     json:"subdomain"`
	Version      int64          `db:"version"       json:"-"`
	Settings     TenantSettings `json:"settings"`

	SuggestionsByLang  map[string][]string `db:"suggestions"       json:"suggestions_by_lang"`
	BusinessNameByLang map[string]string   `db:"business_names"    json:"business_name_by_lang"`
	SignatureByLang    map[string]string   `db:"signatures"        json:"signature_by_lang"`
	DetectedLanguage   string              `db:"detected_language" json:"detected_language"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Caches returns the tenant's current enrichment caches as one value.
func (t *Tenant) Caches() EnrichmentCaches {
	return EnrichmentCaches{
		SuggestionsByLang:  t.SuggestionsByLang,
		BusinessNameByLang: t.BusinessNameByLang,
		SignatureByLang:    t.SignatureByLang,
		DetectedLanguage:   t.DetectedLanguage,
	}
}
