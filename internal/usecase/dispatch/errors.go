package dispatch

import "errors"

// Sentinel errors for dispatch use case operations.
var (
	// ErrInvalidArticle indicates the article is nil or missing the fields
	// a dispatch run depends on (id, country, language).
	ErrInvalidArticle = errors.New("invalid article data")

	// ErrUnsupportedPlatform indicates no gateway is registered for the
	// requested platform (e.g. web installs, which have no push provider).
	ErrUnsupportedPlatform = errors.New("no gateway registered for platform")

	// ErrSubscriberStore indicates the subscriber page query failed; the
	// run aborts but ledger rows from prior pages stay committed.
	ErrSubscriberStore = errors.New("subscriber store unavailable")

	// ErrLedgerWrite indicates a page's ledger batch insert failed; the
	// run aborts without rolling back prior pages.
	ErrLedgerWrite = errors.New("delivery ledger write failed")
)
