// Package mock provides a configurable GenerationProvider for testing and
// for running the server without an upstream model.
package mock

import (
	"context"

	"github.com/ragwidget/kbchat/internal/ai/aierr"
	"github.com/ragwidget/kbchat/pkg/models"
)

// Provider satisfies models.GenerationProvider for testing.
type Provider struct {
	Name_        string
	GenerateFunc func(ctx context.Context, req models.GenerationRequest) (string, error)

	// Requests records every request received, for assertions.
	Requests []models.GenerationRequest
}

func (m *Provider) Name() string { return m.Name_ }

func (m *Provider) Generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "", nil
}

// NewProvider returns a Provider with a sensible default response.
func NewProvider() *Provider {
	return &Provider{
		Name_: "mock",
		GenerateFunc: func(_ context.Context, _ models.GenerationRequest) (string, error) {
			return "Mock answer generated for testing", nil
		},
	}
}

// NewFailingProvider returns a Provider that always returns the given error.
func NewFailingProvider(err error) *Provider {
	return &Provider{
		Name_: "mock-failing",
		GenerateFunc: func(_ context.Context, _ models.GenerationRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a Provider that blocks until context is cancelled.
func NewTimeoutProvider() *Provider {
	return &Provider{
		Name_: "mock-timeout",
		GenerateFunc: func(ctx context.Context, _ models.GenerationRequest) (string, error) {
			<-ctx.Done()
			return "", aierr.ErrInferenceTimeout
		},
	}
}

// Compile-time check that Provider implements GenerationProvider.
var _ models.GenerationProvider = (*Provider)(nil)
