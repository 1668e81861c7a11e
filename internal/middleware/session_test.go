package middleware_test

import (
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlinks/internal/middleware"
	"github.com/serroba/shortlinks/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureAccount(manager *session.Manager, ctx *mockHumaContext) (string, bool) {
	var (
		id string
		ok bool
	)

	middleware.Session(manager)(ctx, func(next huma.Context) {
		id, ok = session.AccountFromContext(next.Context())
	})

	return id, ok
}

func TestSession(t *testing.T) {
	manager := session.NewManager("test-secret", time.Hour, false)

	token, _, err := manager.Issue("u1")
	require.NoError(t, err)

	t.Run("accepts a bearer token", func(t *testing.T) {
		ctx := newMockHumaContext()
		ctx.headers["Authorization"] = "Bearer " + token

		id, ok := captureAccount(manager, ctx)

		assert.True(t, ok)
		assert.Equal(t, "u1", id)
	})

	t.Run("accepts the session cookie among others", func(t *testing.T) {
		ctx := newMockHumaContext()
		ctx.headers["Cookie"] = "theme=dark; " + session.CookieName + "=" + token

		id, ok := captureAccount(manager, ctx)

		assert.True(t, ok)
		assert.Equal(t, "u1", id)
	})

	t.Run("continues anonymously without credentials", func(t *testing.T) {
		_, ok := captureAccount(manager, newMockHumaContext())

		assert.False(t, ok)
	})

	t.Run("ignores invalid tokens", func(t *testing.T) {
		other := session.NewManager("other-secret", time.Hour, false)
		forged, _, err := other.Issue("u2")
		require.NoError(t, err)

		for _, header := range []string{"Bearer " + forged, "Bearer garbage", "Basic dXNlcjpwYXNz", "Bearer"} {
			ctx := newMockHumaContext()
			ctx.headers["Authorization"] = header

			_, ok := captureAccount(manager, ctx)

			assert.False(t, ok, header)
		}
	})
}
