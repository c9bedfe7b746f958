package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"newspush/internal/domain/entity"
	"newspush/internal/repository"
)

type DeliveryRepo struct{ db *sql.DB }

func NewDeliveryRepo(db *sql.DB) repository.DeliveryRepository {
	return &DeliveryRepo{db: db}
}

func (repo *DeliveryRepo) Exists(ctx context.Context, articleID int64, platform entity.Platform) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1 FROM push_notifications
    WHERE article_id = $1 AND platform = $2
)`
	var exists bool
	err := repo.db.QueryRowContext(ctx, query, articleID, string(platform)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return exists, nil
}

// BulkInsert writes one page of ledger rows in a single statement.
// ON CONFLICT DO NOTHING on the (article_id, app_id, platform) unique index
// makes the write idempotent: a retried page or a racing run for the same
// article cannot produce duplicate rows.
func (repo *DeliveryRepo) BulkInsert(ctx context.Context, records []*entity.DeliveryRecord) error {
	if len(records) == 0 {
		return nil
	}

	const cols = 8
	placeholders := make([]string, 0, len(records))
	args := make([]interface{}, 0, len(records)*cols)
	for i, rec := range records {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args,
			rec.ID, rec.ArticleID, rec.AppID, string(rec.Platform),
			rec.Country, rec.Locale, string(rec.Status), rec.CreatedAt)
	}

	query := `
INSERT INTO push_notifications
    (id, article_id, app_id, platform, country, locale, status, created_at)
VALUES ` + strings.Join(placeholders, ", ") + `
ON CONFLICT (article_id, app_id, platform) DO NOTHING`

	if _, err := repo.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("BulkInsert: %w", err)
	}
	return nil
}

func (repo *DeliveryRepo) CountByArticle(ctx context.Context, articleID int64) (map[entity.Platform]int64, error) {
	const query = `
SELECT platform, COUNT(*)
FROM push_notifications
WHERE article_id = $1
GROUP BY platform`
	rows, err := repo.db.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("CountByArticle: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[entity.Platform]int64)
	for rows.Next() {
		var platform string
		var count int64
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("CountByArticle: %w", err)
		}
		counts[entity.Platform(platform)] = count
	}
	return counts, rows.Err()
}
