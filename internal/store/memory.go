package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ragwidget/kbchat/pkg/models"
)

// MemoryStore is an in-memory Store implementation. It backs service and
// handler tests, and is small enough to run the whole server against when
// no database is wanted. Subdomain lookup is a linear scan over all
// records, matching the original keyed-document-store semantics.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]*models.Tenant
	logs    map[string][]*models.ConversationLogEntry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants: make(map[string]*models.Tenant),
		logs:    make(map[string][]*models.ConversationLogEntry),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func cloneTenant(t *models.Tenant) *models.Tenant {
	c := *t
	c.SuggestionsByLang = make(map[string][]string, len(t.SuggestionsByLang))
	for k, v := range t.SuggestionsByLang {
		c.SuggestionsByLang[k] = append([]string(nil), v...)
	}
	c.BusinessNameByLang = make(map[string]string, len(t.BusinessNameByLang))
	for k, v := range t.BusinessNameByLang {
		c.BusinessNameByLang[k] = v
	}
	c.SignatureByLang = make(map[string]string, len(t.SignatureByLang))
	for k, v := range t.SignatureByLang {
		c.SignatureByLang[k] = v
	}
	return &c
}

func (s *MemoryStore) CreateTenant(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[t.Email]; exists {
		return ErrDuplicateKey
	}
	for _, existing := range s.tenants {
		if existing.Subdomain == t.Subdomain {
			return ErrDuplicateKey
		}
	}
	s.tenants[t.Email] = cloneTenant(t)
	return nil
}

func (s *MemoryStore) GetTenant(_ context.Context, email string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTenant(t), nil
}

func (s *MemoryStore) GetTenantBySubdomain(_ context.Context, subdomain string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tenants {
		if t.Subdomain == subdomain {
			return cloneTenant(t), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListTenants(context.Context) ([]*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenants := make([]*models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		tenants = append(tenants, cloneTenant(t))
	}
	sort.Slice(tenants, func(i, j int) bool {
		return tenants[i].CreatedAt.Before(tenants[j].CreatedAt)
	})
	return tenants, nil
}

func (s *MemoryStore) UpdateSettings(_ context.Context, email string, settings models.TenantSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[email]
	if !ok {
		return ErrNotFound
	}
	t.Settings = settings
	return nil
}

func (s *MemoryStore) UpdateEnrichmentCaches(_ context.Context, email string, caches models.EnrichmentCaches, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[email]
	if !ok {
		return ErrNotFound
	}
	if t.Version != expectedVersion {
		return ErrVersionConflict
	}
	t.SuggestionsByLang = caches.SuggestionsByLang
	t.BusinessNameByLang = caches.BusinessNameByLang
	t.SignatureByLang = caches.SignatureByLang
	t.DetectedLanguage = caches.DetectedLanguage
	t.Version++
	return nil
}

func (s *MemoryStore) AppendLogEntry(_ context.Context, entry *models.ConversationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	s.logs[entry.TenantEmail] = append(s.logs[entry.TenantEmail], &e)
	return nil
}

func (s *MemoryStore) ListLog(_ context.Context, email string) ([]*models.ConversationLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*models.ConversationLogEntry, 0, len(s.logs[email]))
	for _, e := range s.logs[email] {
		c := *e
		entries = append(entries, &c)
	}
	// Newest first, matching the Postgres implementation.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func (s *MemoryStore) ClearLog(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.logs, email)
	return nil
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
