// Package accounts registers users and verifies their credentials.
//
// An account is a hash at account:{id}; email:{normalized email} maps the address
// back to the id.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/kv"
	"go.uber.org/zap"
)

const (
	accountKeyPrefix = "account:"
	emailKeyPrefix   = "email:"

	MinPasswordLength = 6
	// bcrypt ignores input past 72 bytes.
	MaxPasswordLength = 72
)

const (
	fieldID           = "user_id"
	fieldEmail        = "email"
	fieldPasswordHash = "password_hash"
	fieldCreatedAt    = "created_at"
)

// Registry creates and looks up accounts.
type Registry struct {
	store  kv.Store
	hasher Hasher
	now    func() time.Time
	logger *zap.Logger

	decoyOnce sync.Once
	decoy     string
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates an account registry.
func NewRegistry(store kv.Store, hasher Hasher, logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		hasher: hasher,
		now:    time.Now,
		logger: logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NormalizeEmail trims and lowercases an address; accounts are unique on the result.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount registers email with password.
//
// The account hash is written before the email index. Two signups racing on one
// address can both pass the existence check; the later index write wins.
func (r *Registry) CreateAccount(ctx context.Context, email, password string) (*Account, error) {
	email = NormalizeEmail(email)

	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}

	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return nil, fmt.Errorf("%w: password must be between %d and %d characters",
			ErrValidation, MinPasswordLength, MaxPasswordLength)
	}

	taken, err := r.store.Exists(ctx, emailKey(email))
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}

	if taken {
		return nil, ErrConflict
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &Account{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Unix(r.now().Unix(), 0),
	}

	if err := r.store.HSet(ctx, accountKey(account.ID), map[string]string{
		fieldID:           account.ID,
		fieldEmail:        account.Email,
		fieldPasswordHash: hash,
		fieldCreatedAt:    strconv.FormatInt(account.CreatedAt.Unix(), 10),
	}); err != nil {
		return nil, fmt.Errorf("write account: %w", err)
	}

	if err := r.store.Set(ctx, emailKey(email), account.ID); err != nil {
		return nil, fmt.Errorf("index email: %w", err)
	}

	r.logger.Info("account created", zap.String("user_id", account.ID))

	return account, nil
}

// Verify returns the account for email when password matches, ErrInvalidCredentials otherwise.
func (r *Registry) Verify(ctx context.Context, email, password string) (*Account, error) {
	id, err := r.store.Get(ctx, emailKey(NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, kv.ErrNil) {
			r.compareDecoy(password)

			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("look up email: %w", err)
	}

	fields, err := r.store.HGetAll(ctx, accountKey(id))
	if err != nil {
		return nil, fmt.Errorf("read account: %w", err)
	}

	hash := fields[fieldPasswordHash]
	if hash == "" {
		r.compareDecoy(password)

		return nil, ErrInvalidCredentials
	}

	if err := r.hasher.Compare(hash, password); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("compare password: %w", err)
	}

	return decodeAccount(id, fields), nil
}

// compareDecoy spends the same hashing work as a real check so that unknown emails
// answer no faster than wrong passwords.
func (r *Registry) compareDecoy(password string) {
	r.decoyOnce.Do(func() {
		hash, err := r.hasher.Hash("decoy-password")
		if err != nil {
			r.logger.Warn("failed to prepare decoy hash", zap.Error(err))

			return
		}

		r.decoy = hash
	})

	if r.decoy != "" {
		_ = r.hasher.Compare(r.decoy, password)
	}
}

// GetByID returns the account with id or ErrNotFound.
func (r *Registry) GetByID(ctx context.Context, id string) (*Account, error) {
	fields, err := r.store.HGetAll(ctx, accountKey(id))
	if err != nil {
		return nil, fmt.Errorf("read account: %w", err)
	}

	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	return decodeAccount(id, fields), nil
}

// GetByEmail returns the account registered under email or ErrNotFound.
func (r *Registry) GetByEmail(ctx context.Context, email string) (*Account, error) {
	id, err := r.store.Get(ctx, emailKey(NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, kv.ErrNil) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("look up email: %w", err)
	}

	return r.GetByID(ctx, id)
}

func decodeAccount(id string, fields map[string]string) *Account {
	account := &Account{
		ID:    id,
		Email: fields[fieldEmail],
	}

	if secs, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); err == nil {
		account.CreatedAt = time.Unix(secs, 0)
	}

	return account
}

func accountKey(id string) string {
	return accountKeyPrefix + id
}

func emailKey(normalized string) string {
	return emailKeyPrefix + normalized
}
