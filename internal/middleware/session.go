package middleware

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/session"
)

// Session attaches the caller's account id when the request carries a valid token,
// either as "Authorization: Bearer <token>" or in the session cookie. Requests
// without one continue anonymously; handlers decide whether that is allowed.
func Session(manager *session.Manager) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := bearerToken(ctx.Header("Authorization"))
		if token == "" {
			token = cookieToken(ctx.Header("Cookie"))
		}

		if token == "" {
			next(ctx)

			return
		}

		accountID, err := manager.Parse(token)
		if err != nil {
			next(ctx)

			return
		}

		next(huma.WithContext(ctx, session.ContextWithAccount(ctx.Context(), accountID)))
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

func cookieToken(header string) string {
	if header == "" {
		return ""
	}

	cookies, err := http.ParseCookie(header)
	if err != nil {
		return ""
	}

	for _, c := range cookies {
		if c.Name == session.CookieName {
			return c.Value
		}
	}

	return ""
}
