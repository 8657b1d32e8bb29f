package mcp

import (
	"errors"

	"github.com/bull/grounded-chat/internal/domain"
)

// User-facing messages for classified failures. Provider error text is
// never shown to clients.
const (
	msgMisconfigured = "The assistant is not configured correctly. Please contact support."
	msgBusy          = "The assistant is busy right now. Please try again in a moment."
	msgTimeout       = "The request took too long. Please try again."
	msgUnavailable   = "Something went wrong while answering. Please try again."
)

// userMessage maps a pipeline error to the text returned to the client.
func userMessage(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		return err.Error()
	}
	if errors.Is(err, domain.ErrConfiguration) {
		return msgMisconfigured
	}

	kind, _ := domain.ProviderKindOf(err)
	switch kind {
	case domain.ProviderAuth:
		return msgMisconfigured
	case domain.ProviderRateLimit:
		return msgBusy
	case domain.ProviderTimeout:
		return msgTimeout
	default:
		return msgUnavailable
	}
}
