package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeliveryRecord(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	article := &Article{ID: 10, SourceID: 42, Country: "US", Language: "en"}
	app := &App{ID: 77, Platform: PlatformAndroid, Country: "US", ArticlesLanguage: "en"}

	rec := NewDeliveryRecord(article, app, now)

	assert.Equal(t, int64(10), rec.ArticleID)
	assert.Equal(t, int64(77), rec.AppID)
	assert.Equal(t, PlatformAndroid, rec.Platform)
	assert.Equal(t, "US", rec.Country)
	assert.Equal(t, "en", rec.Locale)
	assert.Equal(t, DeliverySent, rec.Status)
	assert.Equal(t, now, rec.CreatedAt)

	// ID must be a parseable UUID usable as the push correlation id.
	_, err := uuid.Parse(rec.ID)
	require.NoError(t, err)
}

func TestNewDeliveryRecord_UniqueIDs(t *testing.T) {
	article := &Article{ID: 1, Country: "US", Language: "en"}
	app := &App{ID: 2, Platform: PlatformIOS}

	a := NewDeliveryRecord(article, app, time.Now())
	b := NewDeliveryRecord(article, app, time.Now())
	assert.NotEqual(t, a.ID, b.ID)
}
