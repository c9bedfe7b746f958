package repository

import (
	"context"

	"newspush/internal/domain/entity"
)

// DeliveryRepository is the persistent delivery ledger: one row per push
// attempt. It is the dedup mechanism for dispatch runs and the only mutable
// shared resource in the fan-out.
type DeliveryRepository interface {
	// Exists reports whether any ledger row exists for the given
	// (article, platform) pair. A true result short-circuits a whole
	// dispatch run.
	Exists(ctx context.Context, articleID int64, platform entity.Platform) (bool, error)

	// BulkInsert writes one page of ledger rows in a single statement with
	// insert-or-ignore semantics on (article_id, app_id, platform), so
	// retried or racing runs cannot produce duplicate rows.
	BulkInsert(ctx context.Context, records []*entity.DeliveryRecord) error

	// CountByArticle returns per-platform attempt counts for an article,
	// used for reporting and the dispatcher sweep.
	CountByArticle(ctx context.Context, articleID int64) (map[entity.Platform]int64, error)
}
