package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/ratelimit"
	"go.uber.org/zap"
)

// retryAfter matches the one minute windows the limiters are built with.
const retryAfter = 60

// RateLimiter throttles each client against the limiter of the operation's scope.
// Clients are identified by IP and user agent, except in the auth scope where the
// IP alone counts.
func RateLimiter(
	api huma.API, limiters ratelimit.Limiters, proxy ProxyHeaders, logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		scope := ratelimit.ScopeOf(ctx)

		limiter, ok := limiters[scope]
		if !ok {
			next(ctx)

			return
		}

		allowed, err := limiter.Allow(ctx.Context(), string(scope)+":"+clientKey(ctx, scope, proxy))
		if err != nil {
			logger.Error("rate limiter failed", zap.String("scope", string(scope)), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error")

			return
		}

		if !allowed {
			ctx.SetHeader("Retry-After", strconv.Itoa(retryAfter))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "rate limit exceeded")

			return
		}

		next(ctx)
	}
}

func clientKey(ctx huma.Context, scope ratelimit.Scope, proxy ProxyHeaders) string {
	id := clientIP(ctx, proxy)
	if scope != ratelimit.ScopeAuth {
		id += "|" + ctx.Header("User-Agent")
	}

	hash := sha256.Sum256([]byte(id))

	return hex.EncodeToString(hash[:])
}
