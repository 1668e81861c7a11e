package analytics

import "time"

const (
	TopicLinkCreated  = "link.created"
	TopicLinkAccessed = "link.accessed"
	TopicLinkDeleted  = "link.deleted"
)

// LinkCreatedEvent is emitted after a short link is stored.
type LinkCreatedEvent struct {
	Code      string     `json:"code"`
	OwnerID   string     `json:"ownerId"`
	URL       string     `json:"url"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	ClientIP  string     `json:"clientIp"`
	UserAgent string     `json:"userAgent"`
}

// LinkAccessedEvent is emitted for every successful redirect.
type LinkAccessedEvent struct {
	Code       string    `json:"code"`
	OwnerID    string    `json:"ownerId"`
	AccessedAt time.Time `json:"accessedAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer"`
}

// LinkDeletedEvent is emitted when an owner deletes a link.
type LinkDeletedEvent struct {
	Code      string    `json:"code"`
	OwnerID   string    `json:"ownerId"`
	DeletedAt time.Time `json:"deletedAt"`
}
