// Package repository declares the persistence interfaces consumed by the
// use case layer. Concrete implementations live under
// internal/infra/adapter/persistence.
package repository

import (
	"context"

	"newspush/internal/domain/entity"
)

// SubscriberQuery describes one page of the subscriber stream used by a
// dispatch run. Only push-enabled, non-banned installs matching the locale
// are returned; category/source restriction filtering happens in memory in
// the eligibility filter, matching the per-subscriber set semantics.
type SubscriberQuery struct {
	Platform entity.Platform
	Country  string
	Language string // articles language
	Offset   int
	Limit    int
}

// AppRepository provides access to registered app installs and their push
// subscription state.
type AppRepository interface {
	// Get returns the install with the given id, or entity.ErrNotFound.
	Get(ctx context.Context, id int64) (*entity.App, error)

	// FindSubscribers returns one page of push-enabled, non-banned installs
	// matching the query's platform, country and articles language, ordered
	// by id so that consecutive pages never overlap. Returns an empty slice
	// when the page is past the end of the result set.
	FindSubscribers(ctx context.Context, q SubscriberQuery) ([]*entity.App, error)

	// EnablePush stores the push token and turns push notifications on.
	EnablePush(ctx context.Context, id int64, token string) error

	// DisablePush turns push notifications off. The token is kept so a
	// re-enable does not require re-registration with the provider.
	DisablePush(ctx context.Context, id int64) error

	// UpdateFilters replaces the install's category and source restriction
	// sets. Both sets are stored normalized; nil clears a restriction.
	UpdateFilters(ctx context.Context, id int64, categories []string, sourceIDs []int64) error
}
