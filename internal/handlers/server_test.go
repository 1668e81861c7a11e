package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/shortlinks/internal/accounts"
	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/handlers"
	"github.com/serroba/shortlinks/internal/middleware"
	"github.com/serroba/shortlinks/internal/session"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testBaseURL  = "http://short.test"
	testURL      = "https://example.com/very/long/path"
	testPassword = "password123"
)

var errPublish = errors.New("broker unavailable")

// events records what the handlers publish.
type events struct {
	mu       sync.Mutex
	created  []analytics.LinkCreatedEvent
	accessed []analytics.LinkAccessedEvent
	deleted  []analytics.LinkDeletedEvent
	fail     bool
}

func (e *events) publishers() analytics.Publishers {
	return analytics.Publishers{
		LinkCreated: func(_ context.Context, event *analytics.LinkCreatedEvent) error {
			return e.record(func() { e.created = append(e.created, *event) })
		},
		LinkAccessed: func(_ context.Context, event *analytics.LinkAccessedEvent) error {
			return e.record(func() { e.accessed = append(e.accessed, *event) })
		},
		LinkDeleted: func(_ context.Context, event *analytics.LinkDeletedEvent) error {
			return e.record(func() { e.deleted = append(e.deleted, *event) })
		},
	}
}

func (e *events) record(add func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fail {
		return errPublish
	}

	add()

	return nil
}

type testServer struct {
	router *chi.Mux
	kv     *store.MemoryKV
	events *events
	mu     sync.Mutex
	now    time.Time
}

type serverOption func(*serverConfig)

type serverConfig struct {
	generator *shortener.Generator
}

func withGenerator(g *shortener.Generator) serverOption {
	return func(c *serverConfig) { c.generator = g }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.generator == nil {
		gen, err := shortener.NewGenerator(shortener.DefaultCodeLength)
		require.NoError(t, err)

		cfg.generator = gen
	}

	s := &testServer{
		router: chi.NewMux(),
		kv:     store.NewMemoryKV(),
		events: &events{},
		now:    time.Unix(1000, 0),
	}

	links := shortener.NewRegistry(s.kv, cfg.generator, zap.NewNop(), shortener.WithClock(s.clock))
	accts := accounts.NewRegistry(s.kv, accounts.NewBcryptHasher(bcrypt.MinCost), zap.NewNop())
	sessions := session.NewManager("test-secret", time.Hour, false)

	api := humachi.New(s.router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.Session(sessions))
	api.UseMiddleware(middleware.RequestMeta(middleware.TrustProxyHeaders))

	handlers.RegisterRoutes(api,
		handlers.NewAuthHandler(accts, sessions, zap.NewNop()),
		handlers.NewLinkHandler(links, testBaseURL, s.events.publishers(), zap.NewNop()),
	)

	return s
}

func (s *testServer) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.now
}

func (s *testServer) setClock(unix int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = time.Unix(unix, 0)
}

// request sends body as JSON with token as a Bearer credential when non-empty.
func (s *testServer) request(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w
}

// signup creates an account and returns its session token and id.
func (s *testServer) signup(t *testing.T, email string) (string, string) {
	t.Helper()

	w := s.request(t, http.MethodPost, "/signup", "", map[string]string{"email": email, "password": testPassword})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Token string `json:"token"`
		User  struct {
			UserID string `json:"user_id"`
		} `json:"user"`
	}
	decode(t, w, &body)

	return body.Token, body.User.UserID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type problem struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) problem {
	t.Helper()

	var p problem
	decode(t, w, &p)

	return p
}
