// Package subscription implements push subscription management for app
// installs: registering tokens, opting out and maintaining the per-install
// category and source restriction sets consumed by the dispatch fan-out.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"newspush/internal/domain/entity"
	"newspush/internal/repository"
)

// Service manages push subscription state. Restriction sets are normalized
// before storage so the dispatch eligibility filter can rely on canonical
// category names and validated source ids.
type Service struct {
	apps       repository.AppRepository
	sources    repository.SourceRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

// NewService creates a subscription service.
func NewService(
	apps repository.AppRepository,
	sources repository.SourceRepository,
	categories repository.CategoryRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		apps:       apps,
		sources:    sources,
		categories: categories,
		logger:     logger,
	}
}

// EnablePush registers a provider push token and opts the install in to
// notifications. A blank token is rejected: the dispatch filter treats an
// empty token as "unreachable", so storing one would silently subscribe an
// install that can never be delivered to.
func (s *Service) EnablePush(ctx context.Context, appID int64, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("EnablePush: %w: push token must not be empty", entity.ErrInvalidInput)
	}

	if err := s.apps.EnablePush(ctx, appID, token); err != nil {
		return fmt.Errorf("EnablePush: %w", err)
	}

	s.logger.Info("push subscription enabled", slog.Int64("app_id", appID))
	return nil
}

// DisablePush opts the install out of notifications. The stored token is
// kept so a later re-enable needs no provider round trip.
func (s *Service) DisablePush(ctx context.Context, appID int64) error {
	if err := s.apps.DisablePush(ctx, appID); err != nil {
		return fmt.Errorf("DisablePush: %w", err)
	}

	s.logger.Info("push subscription disabled", slog.Int64("app_id", appID))
	return nil
}

// UpdateFilters replaces the install's restriction sets. Category slugs are
// resolved to canonical names and unknown slugs dropped; source ids are
// validated against the sources available for the install's locale. Empty
// results are stored as empty sets, which the eligibility filter reads as
// "no restriction".
func (s *Service) UpdateFilters(ctx context.Context, appID int64, categorySlugs []string, sourceIDs []int64) error {
	app, err := s.apps.Get(ctx, appID)
	if err != nil {
		return fmt.Errorf("UpdateFilters: %w", err)
	}

	categories, err := s.normalizeCategories(ctx, categorySlugs)
	if err != nil {
		return fmt.Errorf("UpdateFilters: %w", err)
	}

	sources, err := s.normalizeSources(ctx, sourceIDs, app)
	if err != nil {
		return fmt.Errorf("UpdateFilters: %w", err)
	}

	if err := s.apps.UpdateFilters(ctx, appID, categories, sources); err != nil {
		return fmt.Errorf("UpdateFilters: %w", err)
	}

	s.logger.Info("subscription filters updated",
		slog.Int64("app_id", appID),
		slog.Int("categories", len(categories)),
		slog.Int("sources", len(sources)))
	return nil
}

func (s *Service) normalizeCategories(ctx context.Context, slugs []string) ([]string, error) {
	cleaned := make([]string, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		slug = strings.ToLower(strings.TrimSpace(slug))
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		cleaned = append(cleaned, slug)
	}
	if len(cleaned) == 0 {
		return nil, nil
	}

	names, err := s.categories.NamesBySlugs(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("resolve category slugs: %w", err)
	}
	if len(names) < len(cleaned) {
		s.logger.Warn("unknown category slugs dropped",
			slog.Int("requested", len(cleaned)),
			slog.Int("resolved", len(names)))
	}
	return names, nil
}

func (s *Service) normalizeSources(ctx context.Context, ids []int64, app *entity.App) ([]int64, error) {
	deduped := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)
	}
	if len(deduped) == 0 {
		return nil, nil
	}

	valid, err := s.sources.FilterIDs(ctx, deduped, app.Country, app.ArticlesLanguage)
	if err != nil {
		return nil, fmt.Errorf("validate source ids: %w", err)
	}
	if len(valid) < len(deduped) {
		s.logger.Warn("unavailable source ids dropped",
			slog.Int64("app_id", app.ID),
			slog.Int("requested", len(deduped)),
			slog.Int("resolved", len(valid)))
	}
	return valid, nil
}
