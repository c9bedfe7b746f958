// Package push provides the provider gateways behind the dispatch fan-out.
// It implements the dispatch.Gateway interface for Firebase Cloud Messaging
// (Android) and the Apple Push Notification service (iOS), plus a no-op
// gateway for platforms with push disabled.
//
// The two providers have different submission shapes: FCM accepts one
// message per HTTP request and is sent inside Submit, while APNs messages
// are enqueued in Submit and delivered together in Flush at page
// boundaries. Both apply rate limiting, retries and circuit breaking
// internally, so a returned error is final for the attempt.
package push

import (
	"errors"
	"fmt"
	"net/http"

	"newspush/internal/resilience/retry"
)

// ClientError represents a 4xx response from a push provider. Client errors
// are permanent; the attempt is recorded as failed without a retry.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ErrInvalidToken indicates the provider rejected the push token as expired
// or unregistered. The send fails permanently for this install.
var ErrInvalidToken = errors.New("push token rejected by provider")

// classifyStatus maps a provider HTTP response to an error, or nil for 2xx.
// Throttling and server errors come back as retry.HTTPError so the backoff
// layer retries them; other 4xx responses are permanent ClientErrors.
func classifyStatus(statusCode int, body string) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return &retry.HTTPError{
			StatusCode: statusCode,
			Message:    body,
		}
	case statusCode >= 400:
		return &ClientError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("provider client error %d: %s", statusCode, body),
		}
	default:
		return fmt.Errorf("unexpected status code %d: %s", statusCode, body)
	}
}
