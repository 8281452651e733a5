package ai

import (
	"fmt"

	"github.com/ragwidget/kbchat/internal/ai/gemini"
	"github.com/ragwidget/kbchat/internal/ai/mock"
	"github.com/ragwidget/kbchat/internal/config"
	"github.com/ragwidget/kbchat/pkg/models"
)

// NewProvider constructs the appropriate generation provider based on config.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.GenerationProvider, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini.NewProvider(cfg.Gemini), nil
	case "mock":
		return mock.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of gemini, mock", cfg.Provider)
	}
}
