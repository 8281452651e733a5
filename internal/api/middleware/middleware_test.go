package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mw "github.com/ragwidget/kbchat/internal/api/middleware"
	"github.com/ragwidget/kbchat/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", ""},
		{"valid bearer", "Bearer abc123", "abc123"},
		{"case insensitive scheme", "bearer abc123", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"missing token", "Bearer", ""},
		{"trims whitespace", "Bearer   abc123  ", "abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, mw.ExtractBearerToken(req))
		})
	}
}

func TestTenantContext_Roundtrip(t *testing.T) {
	tenant := &models.Tenant{Email: "owner@acme.example"}

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(mw.SetTenant(req.Context(), tenant))

	got, ok := mw.GetTenant(req)
	require.True(t, ok)
	assert.Equal(t, "owner@acme.example", got.Email)
}

func TestTenantContext_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, ok := mw.GetTenant(req)
	assert.False(t, ok)
}

// countingCache returns a fixed counter value or error.
type countingCache struct {
	count int64
	err   error
}

func (c *countingCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (c *countingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}
func (c *countingCache) Delete(context.Context, string) error { return nil }
func (c *countingCache) Ping(context.Context) error           { return nil }
func (c *countingCache) IncrWithExpiry(context.Context, string, time.Duration) (int64, error) {
	return c.count, c.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_UnderLimit(t *testing.T) {
	rl := mw.NewRateLimit(&countingCache{count: 5}, 60)

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "55", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_OverLimit(t *testing.T) {
	rl := mw.NewRateLimit(&countingCache{count: 61}, 60)

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRateLimit_FailsOpenOnCacheError(t *testing.T) {
	rl := mw.NewRateLimit(&countingCache{err: errors.New("redis down")}, 60)

	w := httptest.NewRecorder()
	rl.Limit(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
