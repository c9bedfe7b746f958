package entity

import (
	"fmt"
	"time"
)

// Platform identifies the client platform of a registered app install.
type Platform string

// Supported platforms. Web installs are registered but have no push
// provider wired, so dispatch runs are only ever started for ios and android.
const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformWeb:
		return true
	}
	return false
}

// App represents a registered application install (a subscriber).
// It carries the install's locale and push subscription state:
// whether push notifications are enabled, the provider token, and the
// optional category/source restriction sets.
//
// Filter set semantics: a non-empty EnabledCategories or EnabledSources set
// restricts delivery to members of that set. An empty (or nil) set means
// unrestricted. The persistence layer guarantees that malformed stored
// filter data is surfaced as an empty set, never as an error.
type App struct {
	ID                int64
	UserID            *int64
	DeviceID          string
	Platform          Platform
	Version           string
	Country           string // ISO 3166-1 alpha-2
	Language          string // UI language of the install
	ArticlesLanguage  string // language of articles the install subscribed to
	PushEnabled       bool
	PushToken         string
	EnabledSources    []int64  // empty = all sources allowed
	EnabledCategories []string // empty = all categories allowed
	Banned            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsIOS reports whether the install runs on iOS.
func (a *App) IsIOS() bool { return a.Platform == PlatformIOS }

// IsAndroid reports whether the install runs on Android.
func (a *App) IsAndroid() bool { return a.Platform == PlatformAndroid }

// IsWeb reports whether the install is a web client.
func (a *App) IsWeb() bool { return a.Platform == PlatformWeb }

// AllowsSource reports whether the install's source restriction set permits
// the given source id. An empty set permits everything.
func (a *App) AllowsSource(sourceID int64) bool {
	if len(a.EnabledSources) == 0 {
		return true
	}
	for _, id := range a.EnabledSources {
		if id == sourceID {
			return true
		}
	}
	return false
}

// AllowsCategory reports whether the install's category restriction set
// permits the given category name. An empty set permits everything.
func (a *App) AllowsCategory(category string) bool {
	if len(a.EnabledCategories) == 0 {
		return true
	}
	for _, name := range a.EnabledCategories {
		if name == category {
			return true
		}
	}
	return false
}

// Validate checks the fields required for a registered install.
func (a *App) Validate() error {
	if a.DeviceID == "" {
		return &ValidationError{Field: "device_id", Message: "must not be empty"}
	}
	if !a.Platform.Valid() {
		return &ValidationError{
			Field:   "platform",
			Message: fmt.Sprintf("unknown platform %q (must be ios, android, or web)", a.Platform),
		}
	}
	if len(a.Country) > 2 {
		return &ValidationError{Field: "country", Message: "must be an ISO 3166-1 alpha-2 code"}
	}
	return nil
}
