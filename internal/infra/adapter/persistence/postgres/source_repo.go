package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"newspush/internal/repository"
)

type SourceRepo struct{ db *sql.DB }

func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

// FilterIDs keeps only the ids of active sources publishing for the given
// country/language, preserving the caller's order. Used when a subscriber
// updates their source restriction set: ids from other locales are dropped
// rather than stored as dead entries.
func (repo *SourceRepo) FilterIDs(ctx context.Context, ids []int64, country, language string) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids)+2)
	args = append(args, country, language)
	for i, id := range ids {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+3))
		args = append(args, id)
	}

	query := `
SELECT id FROM sources
WHERE country  = $1
  AND language = $2
  AND active   = TRUE
  AND id IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("FilterIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	valid := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("FilterIDs: %w", err)
		}
		valid[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FilterIDs: %w", err)
	}

	filtered := make([]int64, 0, len(valid))
	for _, id := range ids {
		if valid[id] {
			filtered = append(filtered, id)
		}
	}
	return filtered, nil
}

type CategoryRepo struct{ db *sql.DB }

func NewCategoryRepo(db *sql.DB) repository.CategoryRepository {
	return &CategoryRepo{db: db}
}

// NamesBySlugs resolves client-facing category slugs to canonical names.
// Unknown slugs are dropped silently; the result order follows the
// categories table, not the input.
func (repo *CategoryRepo) NamesBySlugs(ctx context.Context, slugs []string) ([]string, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(slugs))
	args := make([]interface{}, 0, len(slugs))
	for i, slug := range slugs {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, slug)
	}

	query := `
SELECT name FROM categories
WHERE slug IN (` + strings.Join(placeholders, ", ") + `)
ORDER BY id ASC`

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("NamesBySlugs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0, len(slugs))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("NamesBySlugs: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
