package push

import (
	"context"

	"newspush/internal/domain/entity"
	"newspush/internal/usecase/dispatch"
)

// NoopGateway is a no-operation implementation of the dispatch.Gateway
// interface. It is wired for platforms whose provider is disabled in config,
// so dispatch runs still produce ledger rows without provider traffic.
type NoopGateway struct {
	platform entity.Platform
}

// NewNoopGateway creates a NoopGateway for the given platform.
func NewNoopGateway(platform entity.Platform) *NoopGateway {
	return &NoopGateway{platform: platform}
}

// Platform implements dispatch.Gateway.
func (g *NoopGateway) Platform() entity.Platform {
	return g.platform
}

// BuildMessage returns an empty message carrying only the correlation id.
func (g *NoopGateway) BuildMessage(article *entity.Article, token, correlationID string) (dispatch.Message, error) {
	return dispatch.Message{Token: token, CorrelationID: correlationID}, nil
}

// Submit does nothing and returns nil immediately.
func (g *NoopGateway) Submit(ctx context.Context, msg dispatch.Message) error {
	return nil
}

// Flush does nothing and returns nil immediately.
func (g *NoopGateway) Flush(ctx context.Context) error {
	return nil
}
