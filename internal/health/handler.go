// Package health reports whether the server's backing services are reachable.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlinks/internal/ratelimit"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	healthy        = "healthy"
	unhealthy      = "unhealthy"

	pingTimeout = 2 * time.Second
)

// Checker pings one dependency.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker pings the link store.
type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PostgresChecker pings the analytics database.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

func (p *PostgresChecker) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Handler serves GET /health.
type Handler struct {
	redis    Checker
	postgres Checker
}

// NewHandler creates a handler. postgres may be nil when analytics are not persisted.
func NewHandler(redis Checker, postgres Checker) *Handler {
	return &Handler{redis: redis, postgres: postgres}
}

// Response reports overall status and one field per dependency.
type Response struct {
	Body struct {
		Status   string `json:"status"             doc:"ok, or degraded when a dependency is down" example:"ok"`
		Redis    string `json:"redis"              doc:"healthy or unhealthy"                    example:"healthy"`
		Postgres string `json:"postgres,omitempty" doc:"healthy or unhealthy, absent without a database"`
	}
}

// Check pings every dependency. The link store is required; a failing check degrades
// the status but the endpoint still answers 200.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = statusOK
	resp.Body.Redis = probe(ctx, h.redis)

	if h.postgres != nil {
		resp.Body.Postgres = probe(ctx, h.postgres)
	}

	if resp.Body.Redis == unhealthy || resp.Body.Postgres == unhealthy {
		resp.Body.Status = statusDegraded
	}

	return resp, nil
}

func probe(ctx context.Context, checker Checker) string {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := checker.Ping(ctx); err != nil {
		return unhealthy
	}

	return healthy
}

// RegisterRoutes registers GET /health.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
		Metadata:    map[string]any{ratelimit.MetadataKey: ratelimit.ScopeExempt},
	}, h.Check)
}
