// Package dispatch implements the push-notification fan-out: given a
// published article and a target platform, it streams eligible subscribers
// in pages, sends provider-specific push messages with bounded concurrency,
// and records every attempt in the delivery ledger. The ledger doubles as
// the dedup mechanism guaranteeing at most one dispatch run per
// (article, platform).
package dispatch

import (
	"context"

	"newspush/internal/domain/entity"
)

// Message is one composed push message ready for submission. The payload is
// built by the gateway and opaque to the engine; Token and CorrelationID are
// kept alongside so the engine can log and trace individual sends.
type Message struct {
	// Token is the provider push token of the recipient install.
	Token string

	// CorrelationID is the delivery ledger row id carried inside the
	// payload, linking a provider-side event back to the exact attempt.
	CorrelationID string

	// Payload is the provider-specific JSON body.
	Payload []byte
}

// Gateway abstracts a push provider for one platform. Two submission styles
// exist behind the same interface:
//
//   - per-message gateways (FCM) perform the send inside Submit and have a
//     no-op Flush; the engine bounds how many Submits run concurrently.
//   - batching gateways (APNs) enqueue in Submit and send everything in
//     Flush; the engine flushes at the end of every page.
//
// The engine never assumes synchronous provider confirmation from either
// style: a nil Submit error means "accepted or irrevocably enqueued".
//
// Thread safety: Submit must be safe for concurrent use; Flush is only
// called with no Submit in flight.
type Gateway interface {
	// Platform returns the platform this gateway delivers to.
	Platform() entity.Platform

	// BuildMessage composes the provider payload for an article. The
	// correlation id is embedded in the payload's data block so client and
	// provider logs can be joined with the delivery ledger.
	BuildMessage(article *entity.Article, token, correlationID string) (Message, error)

	// Submit sends or enqueues one message. Implementations apply their
	// own rate limiting, retries and circuit breaking; a returned error is
	// final for this attempt.
	Submit(ctx context.Context, msg Message) error

	// Flush sends all enqueued messages for batching gateways; no-op for
	// per-message gateways.
	Flush(ctx context.Context) error
}
