// Package entity defines the core domain entities for the push notification
// backend: articles, registered app installs (subscribers) and delivery
// records. It also contains the domain-specific errors shared across layers.
package entity

import "time"

// Article represents a published news article that can be pushed to
// subscribers. Country and Language are denormalized from the article's
// source so that a dispatch run never has to join against the sources table.
//
// An Article is treated as immutable for the duration of a dispatch run.
type Article struct {
	ID              int64
	SourceID        int64
	Title           string
	Description     string
	PreviewImageURL string
	CategoryName    string
	Country         string // ISO 3166-1 alpha-2, e.g. "US"
	Language        string // articles language code, e.g. "en"
	PublishedAt     time.Time
	CreatedAt       time.Time
}
