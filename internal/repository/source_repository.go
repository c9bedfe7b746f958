package repository

import "context"

// SourceRepository provides the subset of source data the subscription use
// case needs: validating a requested source restriction set against the
// sources actually available for a country/language.
type SourceRepository interface {
	// FilterIDs returns the subset of ids that belong to active sources
	// publishing for the given country and language, preserving input order.
	FilterIDs(ctx context.Context, ids []int64, country, language string) ([]int64, error)
}

// CategoryRepository resolves client-facing category slugs to the canonical
// category names stored in subscriber restriction sets.
type CategoryRepository interface {
	// NamesBySlugs returns the canonical names for the given slugs. Unknown
	// slugs are dropped silently.
	NamesBySlugs(ctx context.Context, slugs []string) ([]string, error)
}
