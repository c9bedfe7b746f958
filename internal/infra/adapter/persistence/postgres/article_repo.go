package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"newspush/internal/domain/entity"
	"newspush/internal/repository"
)

type ArticleRepo struct{ db *sql.DB }

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

// articleColumns joins sources so country/language are denormalized onto the
// entity; a dispatch run never touches the sources table again.
const articleColumns = `
a.id, a.source_id, a.title, a.description, a.preview_image_url,
a.category_name, s.country, s.language, a.published_at, a.created_at`

func scanArticle(scanner interface{ Scan(...interface{}) error }) (*entity.Article, error) {
	var article entity.Article
	if err := scanner.Scan(
		&article.ID, &article.SourceID, &article.Title, &article.Description,
		&article.PreviewImageURL, &article.CategoryName,
		&article.Country, &article.Language,
		&article.PublishedAt, &article.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &article, nil
}

func (repo *ArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	query := `
SELECT ` + articleColumns + `
FROM articles a
JOIN sources  s ON s.id = a.source_id
WHERE a.id = $1
LIMIT 1`
	article, err := scanArticle(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return article, nil
}

func (repo *ArticleRepo) ListPendingDispatch(ctx context.Context, platform entity.Platform, since time.Time, limit int) ([]*entity.Article, error) {
	query := `
SELECT ` + articleColumns + `
FROM articles a
JOIN sources  s ON s.id = a.source_id
WHERE a.published_at >= $2
  AND NOT EXISTS (
      SELECT 1 FROM push_notifications n
      WHERE n.article_id = a.id AND n.platform = $1
  )
ORDER BY a.published_at ASC
LIMIT $3`
	rows, err := repo.db.QueryContext(ctx, query, string(platform), since, limit)
	if err != nil {
		return nil, fmt.Errorf("ListPendingDispatch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, limit)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("ListPendingDispatch: %w", err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}
