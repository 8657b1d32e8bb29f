// Package domain holds the error taxonomy and the provider capabilities
// shared by the retrieval core and its adapters.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks missing or malformed setup: bad chunk
	// parameters, a corrupt or missing vector store, absent credentials.
	// The server must not serve traffic when startup fails with it.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation marks caller input outside contract. It is returned
	// before any provider call is made.
	ErrValidation = errors.New("validation error")
)

// ProviderKind classifies a failure of an external model provider.
type ProviderKind string

const (
	ProviderAuth      ProviderKind = "auth"
	ProviderRateLimit ProviderKind = "rate_limit"
	ProviderTimeout   ProviderKind = "timeout"
	ProviderUnknown   ProviderKind = "unknown"
)

// ProviderError is a classified provider failure. Kind is set once, at the
// adapter boundary, from the SDK's typed error.
type ProviderError struct {
	Op   string // "embed" or "generate"
	Kind ProviderKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a ProviderError. An unset kind becomes ProviderUnknown.
func NewProviderError(op string, kind ProviderKind, err error) *ProviderError {
	if kind == "" {
		kind = ProviderUnknown
	}
	return &ProviderError{Op: op, Kind: kind, Err: err}
}

// ProviderKindOf reports the provider kind carried by err, if any.
func ProviderKindOf(err error) (ProviderKind, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind, true
	}
	return "", false
}

// Configurationf wraps a formatted message with ErrConfiguration.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Validationf wraps a formatted message with ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
