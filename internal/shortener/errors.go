package shortener

import "errors"

var (
	// ErrValidation reports unusable input such as a blank URL.
	ErrValidation = errors.New("invalid link")
	// ErrConflict reports a custom code already held by a live link.
	ErrConflict = errors.New("short code already exists")
	// ErrNotFound reports a code that no link record carries.
	ErrNotFound = errors.New("link not found")
	// ErrExpired reports a code whose only records have expired.
	ErrExpired = errors.New("link expired")
	// ErrExhausted reports that no free code was found within the attempt budget.
	// Retrying the whole request is safe.
	ErrExhausted = errors.New("failed to generate unique short code")
)
