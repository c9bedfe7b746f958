package repository

import (
	"context"
	"time"

	"newspush/internal/domain/entity"
)

// ArticleRepository provides read access to published articles. Article
// ingestion is owned by another service; this backend only reads.
type ArticleRepository interface {
	// Get returns the article with its source country/language denormalized,
	// or entity.ErrNotFound.
	Get(ctx context.Context, id int64) (*entity.Article, error)

	// ListPendingDispatch returns articles published since the given time
	// that have no ledger row for the given platform yet, oldest first.
	// The dispatcher sweep feeds these into dispatch runs.
	ListPendingDispatch(ctx context.Context, platform entity.Platform, since time.Time, limit int) ([]*entity.Article, error)
}
