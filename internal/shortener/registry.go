package shortener

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/serroba/shortlinks/internal/expiration"
	"github.com/serroba/shortlinks/internal/kv"
	"go.uber.org/zap"
)

// Hash fields of a link record.
const (
	fieldURL       = "url"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
	fieldOwner     = "user_id"
)

// Custom codes end up in glob patterns and URL paths, so they are kept to a safe set.
var customCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// CreateParams describes a link to create.
type CreateParams struct {
	OwnerID    string
	URL        string
	CustomCode string // empty to generate one
	ExpiresIn  string // see expiration.Resolve
}

// Registry owns the link namespace.
//
// Records live at link:{owner}:{code}; the codes an owner holds are mirrored in the set
// user:{owner}:links. The two are written separately with no transaction, record first
// on create and record first on delete. RepairIndex heals whatever a crash in between
// leaves behind.
//
// Code lookups scan link:*:{code} across owners. That cost grows with the number of
// links and is confined to records().
type Registry struct {
	store     kv.Store
	generator *Generator
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates a link registry over store.
func NewRegistry(store kv.Store, generator *Generator, logger *zap.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:     store,
		generator: generator,
		now:       time.Now,
		logger:    logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// CreateLink validates p, reserves a code and writes the link.
//
// The uniqueness check and the write are separate commands; two concurrent creates of
// the same custom code can both pass the check, and the later write wins.
func (r *Registry) CreateLink(ctx context.Context, p CreateParams) (*Link, error) {
	url := strings.TrimSpace(p.URL)
	if url == "" {
		return nil, fmt.Errorf("%w: url is required", ErrValidation)
	}

	if p.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}

	now := time.Unix(r.now().Unix(), 0)

	code, err := r.reserveCode(ctx, Code(strings.TrimSpace(p.CustomCode)))
	if err != nil {
		return nil, err
	}

	link := &Link{
		Code:      code,
		OwnerID:   p.OwnerID,
		URL:       url,
		CreatedAt: now,
		ExpiresAt: expiration.Resolve(p.ExpiresIn, now),
	}

	if err := r.store.HSet(ctx, linkKey(link.OwnerID, code), encodeLink(link)); err != nil {
		return nil, fmt.Errorf("write link %s: %w", code, err)
	}

	if _, err := r.store.SAdd(ctx, ownerLinksKey(link.OwnerID), string(code)); err != nil {
		return nil, fmt.Errorf("index link %s: %w", code, err)
	}

	r.logger.Debug("link created",
		zap.String("code", string(code)),
		zap.String("owner", link.OwnerID),
	)

	return link, nil
}

func (r *Registry) reserveCode(ctx context.Context, custom Code) (Code, error) {
	if custom == "" {
		return r.generator.Generate(ctx, r.codeTaken)
	}

	if !customCodePattern.MatchString(string(custom)) {
		return "", fmt.Errorf("%w: short code may only contain letters, digits, '-' and '_' (max 64)", ErrValidation)
	}

	taken, err := r.codeTaken(ctx, custom)
	if err != nil {
		return "", err
	}

	if taken {
		return "", ErrConflict
	}

	return custom, nil
}

// codeTaken reports whether any owner holds a live link with code.
func (r *Registry) codeTaken(ctx context.Context, code Code) (bool, error) {
	links, err := r.records(ctx, code)
	if err != nil {
		return false, err
	}

	return r.firstLive(links) != nil, nil
}

// Resolve returns the live link for code. A code whose records have all expired
// yields ErrExpired; a code nobody ever held yields ErrNotFound.
func (r *Registry) Resolve(ctx context.Context, code Code) (*Link, error) {
	links, err := r.records(ctx, code)
	if err != nil {
		return nil, err
	}

	if link := r.firstLive(links); link != nil {
		return link, nil
	}

	if len(links) > 0 {
		return nil, ErrExpired
	}

	return nil, ErrNotFound
}

// GetOwner returns who holds code, expired or not. A live record's owner is preferred.
func (r *Registry) GetOwner(ctx context.Context, code Code) (string, error) {
	links, err := r.records(ctx, code)
	if err != nil {
		return "", err
	}

	if link := r.firstLive(links); link != nil {
		return link.OwnerID, nil
	}

	if len(links) > 0 {
		return links[0].OwnerID, nil
	}

	return "", ErrNotFound
}

// Delete removes ownerID's link for code. It returns false, without error, when that
// owner holds no such record; whether someone else does is for the caller to check.
func (r *Registry) Delete(ctx context.Context, ownerID string, code Code) (bool, error) {
	existed, err := r.store.Delete(ctx, linkKey(ownerID, code))
	if err != nil {
		return false, fmt.Errorf("delete link %s: %w", code, err)
	}

	if !existed {
		return false, nil
	}

	if _, err := r.store.SRem(ctx, ownerLinksKey(ownerID), string(code)); err != nil {
		return false, fmt.Errorf("unindex link %s: %w", code, err)
	}

	r.logger.Debug("link deleted",
		zap.String("code", string(code)),
		zap.String("owner", ownerID),
	)

	return true, nil
}

// ListByOwner returns every link in ownerID's index, expired ones included and
// flagged, newest first. Index entries without a record are skipped.
func (r *Registry) ListByOwner(ctx context.Context, ownerID string) ([]*Link, error) {
	codes, err := r.store.SMembers(ctx, ownerLinksKey(ownerID))
	if err != nil {
		return nil, fmt.Errorf("read index of %s: %w", ownerID, err)
	}

	now := r.now()
	links := make([]*Link, 0, len(codes))

	for _, c := range codes {
		code := Code(c)

		fields, err := r.store.HGetAll(ctx, linkKey(ownerID, code))
		if err != nil {
			return nil, fmt.Errorf("read link %s: %w", code, err)
		}

		link, ok := decodeLink(ownerID, code, fields)
		if !ok {
			r.logger.Debug("skipping dangling index entry",
				zap.String("code", c),
				zap.String("owner", ownerID),
			)

			continue
		}

		link.IsExpired = expiration.IsExpired(link.ExpiresAt, now)
		links = append(links, link)
	}

	sort.Slice(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.After(links[j].CreatedAt)
		}

		return links[i].Code < links[j].Code
	})

	return links, nil
}

// records returns every owner's record for code, ordered by key.
func (r *Registry) records(ctx context.Context, code Code) ([]*Link, error) {
	keys, err := r.store.Keys(ctx, codePattern(code))
	if err != nil {
		return nil, fmt.Errorf("scan for %s: %w", code, err)
	}

	sort.Strings(keys)

	links := make([]*Link, 0, len(keys))

	for _, key := range keys {
		ownerID, keyCode, ok := splitLinkKey(key)
		if !ok || keyCode != code {
			continue
		}

		fields, err := r.store.HGetAll(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}

		// Deleted between the scan and the read.
		if link, ok := decodeLink(ownerID, code, fields); ok {
			links = append(links, link)
		}
	}

	return links, nil
}

// firstLive returns the first unexpired link, logging when more than one is live.
func (r *Registry) firstLive(links []*Link) *Link {
	now := r.now()

	var live []*Link

	for _, link := range links {
		if !expiration.IsExpired(link.ExpiresAt, now) {
			live = append(live, link)
		}
	}

	if len(live) == 0 {
		return nil
	}

	if len(live) > 1 {
		owners := make([]string, len(live))
		for i, link := range live {
			owners[i] = link.OwnerID
		}

		r.logger.Warn("short code held by several live links",
			zap.String("code", string(live[0].Code)),
			zap.Strings("owners", owners),
		)
	}

	return live[0]
}

func encodeLink(link *Link) map[string]string {
	expiresAt := ""
	if link.ExpiresAt != nil {
		expiresAt = strconv.FormatInt(link.ExpiresAt.Unix(), 10)
	}

	return map[string]string{
		fieldURL:       link.URL,
		fieldCreatedAt: strconv.FormatInt(link.CreatedAt.Unix(), 10),
		fieldExpiresAt: expiresAt,
		fieldOwner:     link.OwnerID,
	}
}

// decodeLink rebuilds a link from its hash fields. An empty hash means no record.
// An unreadable expiry is treated as never expiring.
func decodeLink(ownerID string, code Code, fields map[string]string) (*Link, bool) {
	if len(fields) == 0 {
		return nil, false
	}

	link := &Link{
		Code:    code,
		OwnerID: ownerID,
		URL:     fields[fieldURL],
	}

	if owner := fields[fieldOwner]; owner != "" {
		link.OwnerID = owner
	}

	if secs, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); err == nil {
		link.CreatedAt = time.Unix(secs, 0)
	}

	if secs, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64); err == nil {
		at := time.Unix(secs, 0)
		link.ExpiresAt = &at
	}

	return link, true
}
