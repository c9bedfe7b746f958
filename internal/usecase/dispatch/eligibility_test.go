package dispatch

import (
	"testing"

	"newspush/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func techArticle() *entity.Article {
	return &entity.Article{
		ID:           10,
		SourceID:     42,
		Title:        "Chip maker announces new fab",
		CategoryName: "tech",
		Country:      "us",
		Language:     "en",
	}
}

func subscribedApp(id int64) *entity.App {
	return &entity.App{
		ID:               id,
		DeviceID:         "device-1",
		Platform:         entity.PlatformAndroid,
		Country:          "us",
		Language:         "en",
		ArticlesLanguage: "en",
		PushEnabled:      true,
		PushToken:        "token-1",
	}
}

// TestEligible_AllRulesPass verifies the happy path: matching platform,
// locale, an enabled subscription and no restrictions.
func TestEligible_AllRulesPass(t *testing.T) {
	assert.True(t, Eligible(techArticle(), subscribedApp(1), entity.PlatformAndroid))
}

// TestEligible_Rejections walks every single rule that can exclude an
// otherwise eligible subscriber.
func TestEligible_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(app *entity.App)
	}{
		{
			name:   "wrong platform",
			mutate: func(a *entity.App) { a.Platform = entity.PlatformIOS },
		},
		{
			name:   "push disabled",
			mutate: func(a *entity.App) { a.PushEnabled = false },
		},
		{
			name:   "empty token",
			mutate: func(a *entity.App) { a.PushToken = "" },
		},
		{
			name:   "banned",
			mutate: func(a *entity.App) { a.Banned = true },
		},
		{
			name:   "country mismatch",
			mutate: func(a *entity.App) { a.Country = "de" },
		},
		{
			name:   "articles language mismatch",
			mutate: func(a *entity.App) { a.ArticlesLanguage = "de" },
		},
		{
			name:   "category restricted away",
			mutate: func(a *entity.App) { a.EnabledCategories = []string{"sports", "politics"} },
		},
		{
			name:   "source restricted away",
			mutate: func(a *entity.App) { a.EnabledSources = []int64{7, 8} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := subscribedApp(1)
			tt.mutate(app)
			assert.False(t, Eligible(techArticle(), app, entity.PlatformAndroid))
		})
	}
}

// TestEligible_RestrictionSets verifies the set semantics around category and
// source restrictions for a tech article from source 42: empty sets never
// exclude, populated sets must contain the article's values.
func TestEligible_RestrictionSets(t *testing.T) {
	article := techArticle()

	tests := []struct {
		name       string
		categories []string
		sources    []int64
		want       bool
	}{
		{
			name: "no restrictions receives everything",
			want: true,
		},
		{
			name:       "category set contains article category",
			categories: []string{"tech", "science"},
			want:       true,
		},
		{
			name:       "source set contains article source",
			sources:    []int64{42, 99},
			want:       true,
		},
		{
			name:       "both sets match",
			categories: []string{"tech"},
			sources:    []int64{42},
			want:       true,
		},
		{
			name:       "category matches but source set excludes",
			categories: []string{"tech"},
			sources:    []int64{99},
			want:       false,
		},
		{
			name:       "source matches but category set excludes",
			categories: []string{"sports"},
			sources:    []int64{42},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := subscribedApp(1)
			app.EnabledCategories = tt.categories
			app.EnabledSources = tt.sources
			assert.Equal(t, tt.want, Eligible(article, app, entity.PlatformAndroid))
		})
	}
}

// TestEligible_UsesArticlesLanguage verifies the filter compares the
// article's language against the install's articles language, not the UI
// language of the device.
func TestEligible_UsesArticlesLanguage(t *testing.T) {
	app := subscribedApp(1)
	app.Language = "de" // device UI language differs
	app.ArticlesLanguage = "en"

	assert.True(t, Eligible(techArticle(), app, entity.PlatformAndroid))
}
