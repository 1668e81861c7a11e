package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlinks/internal/analytics"
)

const (
	eventCreated  = "created"
	eventAccessed = "accessed"
	eventDeleted  = "deleted"
)

const schema = `
	CREATE TABLE IF NOT EXISTS link_events (
		id          BIGSERIAL PRIMARY KEY,
		event_type  TEXT        NOT NULL,
		code        TEXT        NOT NULL,
		owner_id    TEXT        NOT NULL DEFAULT '',
		url         TEXT,
		client_ip   TEXT,
		user_agent  TEXT,
		referrer    TEXT,
		expires_at  TIMESTAMPTZ,
		occurred_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS link_events_code_idx ON link_events (code, occurred_at);
`

// Postgres appends analytics events to the link_events table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a store on pool. Call EnsureSchema before the first write.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the events table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create link_events: %w", err)
	}

	return nil
}

func (p *Postgres) SaveLinkCreated(ctx context.Context, event *analytics.LinkCreatedEvent) error {
	query := `
		INSERT INTO link_events (event_type, code, owner_id, url, client_ip, user_agent, expires_at, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := p.pool.Exec(ctx, query,
		eventCreated,
		event.Code,
		event.OwnerID,
		event.URL,
		nullableString(event.ClientIP),
		nullableString(event.UserAgent),
		event.ExpiresAt,
		event.CreatedAt,
	)

	return err
}

func (p *Postgres) SaveLinkAccessed(ctx context.Context, event *analytics.LinkAccessedEvent) error {
	query := `
		INSERT INTO link_events (event_type, code, owner_id, client_ip, user_agent, referrer, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		eventAccessed,
		event.Code,
		event.OwnerID,
		nullableString(event.ClientIP),
		nullableString(event.UserAgent),
		nullableString(event.Referrer),
		event.AccessedAt,
	)

	return err
}

func (p *Postgres) SaveLinkDeleted(ctx context.Context, event *analytics.LinkDeletedEvent) error {
	query := `
		INSERT INTO link_events (event_type, code, owner_id, occurred_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := p.pool.Exec(ctx, query, eventDeleted, event.Code, event.OwnerID, event.DeletedAt)

	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
