package models

import (
	"time"

	"github.com/google/uuid"
)

// ConversationLogEntry is one answered chat query. Entries are append-only
// per tenant; the only mutation is a full clear of a tenant's log.
type ConversationLogEntry struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	TenantEmail string    `db:"tenant_email" json:"tenant_email"`
	Timestamp   time.Time `db:"ts"           json:"timestamp"`
	Language    string    `db:"language"     json:"language"`
	Query       string    `db:"query"        json:"query"`
	Answer      string    `db:"answer"       json:"answer"`
}
