package accounts

import (
	"errors"
	"time"
)

var (
	ErrValidation = errors.New("invalid account details")
	// ErrConflict reports an email that is already registered.
	ErrConflict = errors.New("email already registered")
	ErrNotFound = errors.New("account not found")
	// ErrInvalidCredentials never says whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Account is a registered user. The password hash never leaves the registry.
type Account struct {
	ID        string
	Email     string
	CreatedAt time.Time
}
