package embedding

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/openai/openai-go"

	"github.com/bull/grounded-chat/internal/domain"
)

// Classify converts an OpenAI SDK error into a domain.ProviderError. It
// inspects the typed API error and the transport error, never the message.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		return err
	}
	return domain.NewProviderError(op, kindOf(err), err)
}

func kindOf(err error) domain.ProviderKind {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return KindForStatus(apiErr.StatusCode)
	}
	if IsTimeout(err) {
		return domain.ProviderTimeout
	}
	return domain.ProviderUnknown
}

// KindForStatus maps an HTTP status returned by a provider API to a kind.
func KindForStatus(status int) domain.ProviderKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ProviderAuth
	case http.StatusTooManyRequests:
		return domain.ProviderRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return domain.ProviderTimeout
	default:
		return domain.ProviderUnknown
	}
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
