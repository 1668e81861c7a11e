package shortener

import "time"

// Code is the public identifier of a link.
type Code string

// Link is a short code owned by one account and pointing at a destination URL.
type Link struct {
	Code      Code
	OwnerID   string
	URL       string
	CreatedAt time.Time
	ExpiresAt *time.Time // nil for links that never expire

	// IsExpired is set on links returned by ListByOwner.
	IsExpired bool
}
