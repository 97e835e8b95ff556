// Package httpkind maps provider HTTP status codes onto the closed set of
// domain error kinds the orchestrator's retry policy understands.
package httpkind

import (
	"fmt"
	"net/http"

	"videodigest/internal/domain"
)

// FromStatus classifies a non-2xx response status. The returned error wraps
// one of the domain error kinds so callers can match with errors.Is.
func FromStatus(statusCode int, status string) error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrAuth, status)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, status)
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrChannelUnreachable, status)
	case statusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", domain.ErrUpstream, status)
	case statusCode >= http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, status)
	default:
		return fmt.Errorf("%w: unexpected status %s", domain.ErrUpstream, status)
	}
}
