// Package postgres implements the repository interfaces over PostgreSQL
// using database/sql with the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"newspush/internal/domain/entity"
	"newspush/internal/repository"
)

type AppRepo struct{ db *sql.DB }

func NewAppRepo(db *sql.DB) repository.AppRepository {
	return &AppRepo{db: db}
}

const appColumns = `
id, user_id, device_id, platform, version, country, language,
articles_language, push_notifications, push_token,
enabled_sources, enabled_categories, banned, created_at, updated_at`

// scanApp scans one apps row. The enabled_sources/enabled_categories columns
// hold JSON arrays written by older client versions with no schema guarantee;
// unparseable data degrades to the empty (unrestricted) set with a warning,
// never to an error, so one corrupt row cannot stall a fan-out page.
func scanApp(rows *sql.Rows) (*entity.App, error) {
	var app entity.App
	var sourcesJSON, categoriesJSON []byte
	if err := rows.Scan(
		&app.ID, &app.UserID, &app.DeviceID, &app.Platform, &app.Version,
		&app.Country, &app.Language, &app.ArticlesLanguage,
		&app.PushEnabled, &app.PushToken,
		&sourcesJSON, &categoriesJSON, &app.Banned,
		&app.CreatedAt, &app.UpdatedAt,
	); err != nil {
		return nil, err
	}

	app.EnabledSources = decodeSourceFilter(app.ID, sourcesJSON)
	app.EnabledCategories = decodeCategoryFilter(app.ID, categoriesJSON)
	return &app, nil
}

func decodeSourceFilter(appID int64, raw []byte) []int64 {
	if len(raw) == 0 {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		slog.Warn("malformed enabled_sources, treating as unrestricted",
			slog.Int64("app_id", appID),
			slog.String("error", err.Error()))
		return nil
	}
	return ids
}

func decodeCategoryFilter(appID int64, raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		slog.Warn("malformed enabled_categories, treating as unrestricted",
			slog.Int64("app_id", appID),
			slog.String("error", err.Error()))
		return nil
	}
	return names
}

func (repo *AppRepo) Get(ctx context.Context, id int64) (*entity.App, error) {
	query := `
SELECT ` + appColumns + `
FROM apps
WHERE id = $1
LIMIT 1`
	rows, err := repo.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("Get: %w", err)
		}
		return nil, entity.ErrNotFound
	}
	app, err := scanApp(rows)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return app, rows.Err()
}

func (repo *AppRepo) FindSubscribers(ctx context.Context, q repository.SubscriberQuery) ([]*entity.App, error) {
	query := `
SELECT ` + appColumns + `
FROM apps
WHERE platform           = $1
  AND country            = $2
  AND articles_language  = $3
  AND push_notifications = TRUE
  AND push_token        <> ''
  AND banned             = FALSE
ORDER BY id ASC
LIMIT $4 OFFSET $5`
	rows, err := repo.db.QueryContext(ctx, query,
		string(q.Platform), q.Country, q.Language, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("FindSubscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	apps := make([]*entity.App, 0, q.Limit)
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("FindSubscribers: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (repo *AppRepo) EnablePush(ctx context.Context, id int64, token string) error {
	const query = `
UPDATE apps SET
       push_notifications = TRUE,
       push_token         = $1,
       updated_at         = NOW()
WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, token, id)
	if err != nil {
		return fmt.Errorf("EnablePush: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("EnablePush: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *AppRepo) DisablePush(ctx context.Context, id int64) error {
	const query = `
UPDATE apps SET
       push_notifications = FALSE,
       updated_at         = NOW()
WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("DisablePush: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("DisablePush: %w", entity.ErrNotFound)
	}
	return nil
}

func (repo *AppRepo) UpdateFilters(ctx context.Context, id int64, categories []string, sourceIDs []int64) error {
	categoriesJSON, err := json.Marshal(emptyAsNil(categories))
	if err != nil {
		return fmt.Errorf("UpdateFilters: marshal categories: %w", err)
	}
	sourcesJSON, err := json.Marshal(emptyAsNilInt64(sourceIDs))
	if err != nil {
		return fmt.Errorf("UpdateFilters: marshal sources: %w", err)
	}

	const query = `
UPDATE apps SET
       enabled_categories = $1,
       enabled_sources    = $2,
       updated_at         = NOW()
WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, query, categoriesJSON, sourcesJSON, id)
	if err != nil {
		return fmt.Errorf("UpdateFilters: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateFilters: %w", entity.ErrNotFound)
	}
	return nil
}

// emptyAsNil normalizes an empty restriction to the canonical stored form
// [] so that "unrestricted" has a single representation in the column.
func emptyAsNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func emptyAsNilInt64(values []int64) []int64 {
	if values == nil {
		return []int64{}
	}
	return values
}
