// Package container wires the server and consumer processes with samber/do.
package container

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlinks/internal/accounts"
	"github.com/serroba/shortlinks/internal/analytics"
	analyticsstore "github.com/serroba/shortlinks/internal/analytics/store"
	"github.com/serroba/shortlinks/internal/handlers"
	"github.com/serroba/shortlinks/internal/health"
	"github.com/serroba/shortlinks/internal/kv"
	"github.com/serroba/shortlinks/internal/messaging"
	"github.com/serroba/shortlinks/internal/middleware"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"github.com/serroba/shortlinks/internal/reclaim"
	"github.com/serroba/shortlinks/internal/session"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	apiTitle   = "Short Links"
	apiVersion = "1.0.0"

	consumerGroup = "analytics"
	schemaTimeout = 10 * time.Second
)

type Options struct {
	Port        int    `default:"8888"           help:"Port to listen on"                              short:"p"`
	BaseURL     string `default:""               help:"Public base URL for short links (default http://localhost:<port>)"`
	CodeLength  int    `default:"6"              help:"Length of generated short codes"                short:"c"`
	RedisAddr   string `default:"localhost:6379" help:"Redis server address"                           short:"r"`
	DatabaseURL string `default:""               help:"Postgres URL for analytics; empty keeps events in the log"`
	LogFormat   string `default:"console"        help:"Log format: console or json"`

	TrustProxyHeaders bool `default:"false" help:"Take client IPs from X-Forwarded-For and X-Real-IP"`

	SessionSecret   string `default:""    help:"HMAC secret for session tokens; random per process when empty"`
	SessionTTLHours int    `default:"168" help:"Session lifetime in hours"`
	SecureCookies   bool   `default:"false" help:"Mark the session cookie Secure"`

	ReclaimIntervalSeconds int `default:"300" help:"Seconds between expired link sweeps; 0 disables"`

	RateLimitRead  int `default:"300" help:"Read requests per client per minute; 0 disables"`
	RateLimitWrite int `default:"60"  help:"Write requests per client per minute; 0 disables"`
	RateLimitAuth  int `default:"10"  help:"Signup and login attempts per client per minute; 0 disables"`
}

// PublicBaseURL returns BaseURL, or the local address when it is unset.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// Redis owns the client shared by the link store, the rate limiter and the streams.
type Redis struct {
	*redis.Client
}

func (r *Redis) Shutdown() error {
	return r.Close()
}

// Postgres owns the analytics pool. Pool is nil when no database is configured.
type Postgres struct {
	Pool *pgxpool.Pool
}

func (p *Postgres) Shutdown() error {
	if p.Pool != nil {
		p.Pool.Close()
	}

	return nil
}

func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)

		return &Redis{Client: redis.NewClient(&redis.Options{Addr: opts.RedisAddr})}, nil
	})
}

func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.DatabaseURL == "" {
			logger.Info("no database configured, analytics events are logged only")

			return &Postgres{}, nil
		}

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		return &Postgres{Pool: pool}, nil
	})

	do.Provide(i, func(i *do.Injector) (analytics.Store, error) {
		pg := do.MustInvoke[*Postgres](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if pg.Pool == nil {
			return analyticsstore.NewNoop(logger), nil
		}

		events := analyticsstore.NewPostgres(pg.Pool)

		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()

		if err := events.EnsureSchema(ctx); err != nil {
			return nil, err
		}

		return events, nil
	})
}

func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (kv.Store, error) {
		return store.NewRedisKV(do.MustInvoke[*Redis](i).Client), nil
	})

	do.Provide(i, func(i *do.Injector) (*shortener.Registry, error) {
		opts := do.MustInvoke[*Options](i)

		generator, err := shortener.NewGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		return shortener.NewRegistry(
			do.MustInvoke[kv.Store](i),
			generator,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*accounts.Registry, error) {
		return accounts.NewRegistry(
			do.MustInvoke[kv.Store](i),
			accounts.NewBcryptHasher(bcrypt.DefaultCost),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*session.Manager, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		secret := opts.SessionSecret
		if secret == "" {
			logger.Warn("no session secret configured, sessions end when the process restarts")

			secret = rand.Text()
		}

		ttl := time.Duration(opts.SessionTTLHours) * time.Hour

		return session.NewManager(secret, ttl, opts.SecureCookies), nil
	})
}

func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Limiters, error) {
		opts := do.MustInvoke[*Options](i)
		counts := store.NewRateLimitRedisStore(do.MustInvoke[*Redis](i).Client)

		return ratelimit.Limiters{
			ratelimit.ScopeRead:  ratelimit.PerMinute(counts, int64(opts.RateLimitRead)),
			ratelimit.ScopeWrite: ratelimit.PerMinute(counts, int64(opts.RateLimitWrite)),
			ratelimit.ScopeAuth:  ratelimit.PerMinute(counts, int64(opts.RateLimitAuth)),
		}, nil
	})
}

func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client:     do.MustInvoke[*Redis](i).Client,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			},
			messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)),
		)
		if err != nil {
			return nil, fmt.Errorf("create stream publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (analytics.Publishers, error) {
		return analytics.NewPublishers(do.MustInvoke[*messaging.PublisherGroup](i).Publisher()), nil
	})
}

func ReclaimPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*reclaim.Worker, error) {
		opts := do.MustInvoke[*Options](i)
		interval := time.Duration(opts.ReclaimIntervalSeconds) * time.Second

		return reclaim.NewWorker(
			do.MustInvoke[*shortener.Registry](i),
			interval,
			do.MustInvoke[*zap.Logger](i).Named("reclaim"),
		), nil
	})
}

func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimiddleware.RequestID)
		router.Use(middleware.AccessLog(do.MustInvoke[*zap.Logger](i).Named("http")))
		router.Use(chimiddleware.Recoverer)

		return router, nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig(apiTitle, apiVersion))

		proxy := middleware.ProxyHeaders(opts.TrustProxyHeaders)

		api.UseMiddleware(
			middleware.Session(do.MustInvoke[*session.Manager](i)),
			middleware.RequestMeta(proxy),
			middleware.RateLimiter(api, do.MustInvoke[ratelimit.Limiters](i), proxy, logger),
		)

		authHandler := handlers.NewAuthHandler(
			do.MustInvoke[*accounts.Registry](i),
			do.MustInvoke[*session.Manager](i),
			logger,
		)
		linkHandler := handlers.NewLinkHandler(
			do.MustInvoke[*shortener.Registry](i),
			opts.PublicBaseURL(),
			do.MustInvoke[analytics.Publishers](i),
			logger,
		)

		health.RegisterRoutes(api, healthHandler(i))
		handlers.RegisterRoutes(api, authHandler, linkHandler)

		return api, nil
	})
}

func healthHandler(i *do.Injector) *health.Handler {
	redisChecker := health.NewRedisChecker(do.MustInvoke[*Redis](i).Client)

	var postgresChecker health.Checker

	if pg := do.MustInvoke[*Postgres](i); pg.Pool != nil {
		postgresChecker = health.NewPostgresChecker(pg.Pool)
	}

	return health.NewHandler(redisChecker, postgresChecker)
}

func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        do.MustInvoke[*Redis](i).Client,
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: consumerGroup,
			},
			messaging.NewZapLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("create stream subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)

		for _, consumer := range analytics.Consumers(subscriber, do.MustInvoke[analytics.Store](i), logger) {
			group.Add(consumer)
		}

		return group, nil
	})
}
