// Package models contains shared data models used across the kbchat codebase.
package models

import "context"

// GenerationProvider is the core interface for the external text-generation
// capability. Never call a specific backend directly — always inject this
// interface. Calls are single-attempt; callers bound them with a context
// deadline and degrade on any error.
type GenerationProvider interface {
	// Generate produces text for the given request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Name returns the provider identifier (e.g., "gemini", "mock").
	Name() string
}

// Turn is one conversational turn sent to the generation capability.
type Turn struct {
	Role string // "user" or "model"
	Text string
}

// GenerationRequest is the input to a generation call.
type GenerationRequest struct {
	SystemInstruction string
	Turns             []Turn
	Temperature       float64
	MaxOutputTokens   int
}
