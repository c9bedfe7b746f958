package dispatch

import "newspush/internal/domain/entity"

// Eligible decides whether a subscriber should receive a given article's
// notification on the platform being dispatched. Pure and total: no side
// effects, no errors. All rules must hold:
//
//   - the install runs on the target platform;
//   - push notifications are enabled and a push token is registered;
//   - the install is not banned;
//   - the install's country and articles language match the article's;
//   - a non-empty category restriction set contains the article's category;
//   - a non-empty source restriction set contains the article's source id.
//
// Empty restriction sets never exclude. Malformed stored sets were already
// reduced to empty at the persistence boundary, so they behave as
// unrestricted here.
func Eligible(article *entity.Article, app *entity.App, platform entity.Platform) bool {
	if app.Platform != platform {
		return false
	}
	if !app.PushEnabled || app.PushToken == "" {
		return false
	}
	if app.Banned {
		return false
	}
	if app.Country != article.Country || app.ArticlesLanguage != article.Language {
		return false
	}
	if !app.AllowsCategory(article.CategoryName) {
		return false
	}
	if !app.AllowsSource(article.SourceID) {
		return false
	}
	return true
}
