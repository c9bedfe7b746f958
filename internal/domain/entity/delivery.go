package entity

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus records the outcome of a push attempt as seen at submit
// time. The dedup contract intentionally ignores status: a failed attempt
// still counts as "dispatched" for the (article, platform) run guard.
type DeliveryStatus string

const (
	// DeliverySent means the provider accepted the message (or the message
	// was irrevocably enqueued for a batching provider).
	DeliverySent DeliveryStatus = "sent"

	// DeliveryFailed means the provider rejected the message or the send
	// errored before acceptance. The attempt is still logged.
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryRecord is one row of the delivery ledger: a single push attempt
// for one article to one app install. The ID doubles as the correlation id
// carried inside the outgoing push payload, so a provider-side event can be
// traced back to the exact ledger row.
//
// Records are created exactly once per dispatched (article, app) pair, at
// dispatch time, and are never updated or deleted by this core.
type DeliveryRecord struct {
	ID        string // UUID, generated before the send
	ArticleID int64
	AppID     int64
	Platform  Platform
	Country   string
	Locale    string // articles language of the subscriber
	Status    DeliveryStatus
	CreatedAt time.Time
}

// NewDeliveryRecord builds a pending ledger row for an attempt to deliver
// article to app. The record starts in DeliverySent; the dispatch engine
// downgrades it to DeliveryFailed if the provider reports an error before
// the page is committed.
func NewDeliveryRecord(article *Article, app *App, now time.Time) *DeliveryRecord {
	return &DeliveryRecord{
		ID:        uuid.New().String(),
		ArticleID: article.ID,
		AppID:     app.ID,
		Platform:  app.Platform,
		Country:   article.Country,
		Locale:    article.Language,
		Status:    DeliverySent,
		CreatedAt: now,
	}
}
