package ai_test

import (
	"testing"

	"github.com/ragwidget/kbchat/internal/ai"
	"github.com/ragwidget/kbchat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{"gemini", "gemini", false},
		{"mock", "mock", false},
		{"openai", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run("provider "+tt.provider, func(t *testing.T) {
			p, err := ai.NewProvider(config.AIConfig{
				Provider: tt.provider,
				Gemini:   config.GeminiConfig{APIKey: "k", BaseURL: "http://localhost", Model: "m"},
			})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}
