// Package aierr holds the generation-provider sentinel errors in a leaf
// package so provider implementations can reference them without importing
// the parent ai package (which imports the providers for the factory).
package aierr

import "errors"

var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
	ErrInvalidResponse     = errors.New("ai provider returned invalid response")
)
