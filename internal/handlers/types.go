package handlers

import (
	"net/http"
	"time"
)

// CredentialsRequest is the body of signup and login.
type CredentialsRequest struct {
	Body struct {
		Email    string `doc:"Account email, compared case-insensitively" example:"me@example.com" json:"email"`
		Password string `doc:"At least 6 characters"                        example:"hunter22"       json:"password"`
	}
}

// AccountBody describes the signed-in account.
type AccountBody struct {
	UserID string `doc:"Account id"    json:"user_id"`
	Email  string `doc:"Account email" json:"email"`
}

// SessionResponse starts a session: the token is set as a cookie and returned for
// clients that prefer an Authorization header.
type SessionResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		User      AccountBody `json:"user"`
		Token     string      `doc:"Session token, usable as a Bearer token" json:"token"`
		ExpiresAt time.Time   `doc:"When the session ends"                    json:"expires_at"`
	}
}

// LogoutResponse clears the session cookie.
type LogoutResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      MessageBody
}

// UserResponse is the current account.
type UserResponse struct {
	Body struct {
		AccountBody
		CreatedAt time.Time `doc:"When the account was created" json:"created_at"`
	}
}

// MessageBody is a plain acknowledgement.
type MessageBody struct {
	Message string `json:"message"`
}

// CreateLinkRequest is the body of POST /links.
type CreateLinkRequest struct {
	Body struct {
		URL       string `doc:"Destination URL"                                           example:"https://example.com/very/long/path" json:"url"`
		Code      string `doc:"Custom short code; generated when empty"                   example:"my-link"                            json:"code,omitempty"       required:"false"`
		ExpiresIn string `doc:"never, <N>h, <N>d, <N> seconds or an RFC 3339 timestamp" example:"7d"                                 json:"expires_in,omitempty" required:"false"`
	}
}

// CreateLinkResponse describes the new link.
type CreateLinkResponse struct {
	Location string `doc:"The short URL" header:"Location"`
	Body     struct {
		ShortCode   string     `doc:"The short code"                  example:"abc123"                         json:"short_code"`
		ShortURL    string     `doc:"The full short URL"              example:"http://localhost:8888/abc123"   json:"short_url"`
		OriginalURL string     `doc:"The destination URL"             example:"https://example.com/long/path" json:"original_url"`
		ExpiresAt   *time.Time `doc:"When the link expires, or null" json:"expires_at"`
	}
}

// LinkItem is one entry of the owner's listing.
type LinkItem struct {
	ShortCode string     `json:"short_code"`
	URL       string     `json:"url"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	IsExpired bool       `json:"is_expired"`
}

// ListLinksResponse lists the caller's links, newest first.
type ListLinksResponse struct {
	Body []LinkItem
}

// CodeRequest addresses a link by its code in the path.
type CodeRequest struct {
	Code string `doc:"The short code" example:"abc123" path:"code"`
}

// LegacyDeleteRequest carries the code in the body, for POST /delete.
type LegacyDeleteRequest struct {
	Body struct {
		Code string `doc:"The short code" example:"abc123" json:"code"`
	}
}

// MessageResponse wraps MessageBody.
type MessageResponse struct {
	Body MessageBody
}

// RedirectResponse sends the client to the destination.
type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}
