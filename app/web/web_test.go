package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/umputun/jtrack/app/notify"
	"github.com/umputun/jtrack/app/persistence"
	"github.com/umputun/jtrack/app/records"
	"github.com/umputun/jtrack/app/tracker"
	"github.com/umputun/jtrack/app/web/enums"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "testpass1" //nolint:gosec // test password
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	server  *Server
	handler http.Handler
	store   *persistence.Store
	tracker *tracker.Tracker
	user    persistence.User
}

// newTestEnv makes server on top of real sqlite store with one user
func newTestEnv(t *testing.T, opts ...func(cfg *Config)) *testEnv {
	t.Helper()
	store, err := persistence.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	trk := tracker.New(records.New(store, records.WithClock(func() time.Time { return testNow })), tracker.Params{}, notify.Toasts{})
	return newTestEnvWith(t, store, trk, opts...)
}

func newTestEnvWith(t *testing.T, store *persistence.Store, trk Tracker, opts ...func(cfg *Config)) *testEnv {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := store.CreateUser(context.Background(), persistence.User{ID: "u1", Email: testEmail, PasswordHash: string(hash)})
	require.NoError(t, err)

	cfg := Config{
		Tracker:     trk,
		Users:       store,
		Version:     "v1.2.3-abc-20240101",
		AllowSignup: true,
		BcryptCost:  bcrypt.MinCost,
		Now:         func() time.Time { return testNow },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	srv, err := New(cfg)
	require.NoError(t, err)

	env := &testEnv{server: srv, handler: srv.routes(), store: store, user: user}
	if tt, ok := trk.(*tracker.Tracker); ok {
		env.tracker = tt
	}
	return env
}

// addJob inserts job directly into the store and marks the cached list stale
func (e *testEnv) addJob(t *testing.T, company, role, date string, status enums.Status) persistence.Job {
	t.Helper()
	d, err := time.Parse(persistence.DateLayout, date)
	require.NoError(t, err)
	job, err := e.store.InsertJob(context.Background(), persistence.Job{ID: uuid.NewString(), Owner: e.user.ID,
		CompanyName: company, Role: role, ApplicationDate: d, Status: status})
	require.NoError(t, err)
	if e.tracker != nil {
		e.tracker.Invalidate(e.user.ID)
	}
	return job
}

// do makes request authenticated with basic auth
func (e *testEnv) do(method, path string, body io.Reader, mods ...func(r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.SetBasicAuth(testEmail, testPassword)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, m := range mods {
		m(req)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func withCookie(name, value string) func(r *http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: name, Value: value}) }
}

func TestNew(t *testing.T) {
	store, err := persistence.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()
	trk := tracker.New(records.New(store), tracker.Params{})

	t.Run("defaults", func(t *testing.T) {
		srv, err := New(Config{Tracker: trk, Users: store, BaseURL: "/jtrack/"})
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, srv.loginTTL)
		assert.Equal(t, bcrypt.DefaultCost, srv.bcryptCost)
		assert.Equal(t, "/jtrack", srv.baseURL)
		assert.False(t, srv.allowSignup)
		assert.NotNil(t, srv.csrfProtection)
		assert.NotNil(t, srv.loginLimiter)
		for _, name := range []string{"base.html", "partials", "login", "signup"} {
			assert.Contains(t, srv.templates, name)
		}
	})

	t.Run("tracker required", func(t *testing.T) {
		_, err := New(Config{Users: store})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Tracker is required")
	})

	t.Run("users required", func(t *testing.T) {
		_, err := New(Config{Tracker: trk})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Users is required")
	})
}

func TestServer_Run(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error)
	go func() {
		done <- env.server.Run(ctx, "127.0.0.1:0")
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop in time")
	}
}

func TestServer_handlerBaseURL(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) { cfg.BaseURL = "/jtrack" })
	handler := env.server.handler()

	t.Run("redirects to trailing slash", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/jtrack", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "/jtrack/", rec.Header().Get("Location"))
	})

	t.Run("login redirect includes base url", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/jtrack/", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/jtrack/login", rec.Header().Get("Location"))
	})

	t.Run("dashboard with base url links", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/jtrack/", http.NoBody)
		req.SetBasicAuth(testEmail, testPassword)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `href="/jtrack/static/style.css"`)
		assert.Contains(t, rec.Body.String(), `hx-get="/jtrack/api/jobs"`)
	})

	t.Run("ping", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/jtrack/ping", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})
}

func TestServer_StaticFiles(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/static/style.css", "/static/app.js"} {
		req := httptest.NewRequest("GET", path, http.NoBody)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Body.String(), path)
	}
}

func TestServer_getTheme(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name   string
		cookie string
		want   enums.Theme
	}{
		{"no cookie", "", enums.ThemeDark},
		{"light", "light", enums.ThemeLight},
		{"dark", "dark", enums.ThemeDark},
		{"invalid", "blue", enums.ThemeDark},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", http.NoBody)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "theme", Value: tt.cookie})
			}
			assert.Equal(t, tt.want, env.server.getTheme(req))
		})
	}
}

func TestServer_getFilter(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name   string
		cookie string
		want   enums.Filter
	}{
		{"no cookie", "", enums.FilterAll},
		{"offer", "Offer", enums.FilterOffer},
		{"all", "All", enums.FilterAll},
		{"invalid", "Hired", enums.FilterAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", http.NoBody)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "filter", Value: tt.cookie})
			}
			assert.Equal(t, tt.want, env.server.getFilter(req))
		})
	}
}

func TestServer_render(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing template", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.server.render(rec, "unknown", "base", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Template not found")
	})

	t.Run("missing definition", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.server.render(rec, "partials", "no-such-block", TemplateData{})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Template error")
	})
}

func TestTemplateHelpers(t *testing.T) {
	assert.Equal(t, "Jan 2, 2006", formatDate(time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Dec 25, 2023", formatDate(time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)))
	assert.Empty(t, formatDate(time.Time{}))

	assert.Equal(t, "job", plural(1, "job"))
	assert.Equal(t, "jobs", plural(0, "job"))
	assert.Equal(t, "jobs", plural(2, "job"))

	assert.Equal(t, "v1.7.0", shortVersion("v1.7.0-abc1234-20241225"))
	assert.Equal(t, "v1.7.0", shortVersion("v1.7.0"))
	assert.Equal(t, "unknown", shortVersion("unknown"))
	assert.Empty(t, shortVersion(""))

	s := &Server{}
	assert.Equal(t, "/api/jobs", s.url("/api/jobs"))
	assert.Equal(t, "/", s.cookiePath())
	s.baseURL = "/jtrack"
	assert.Equal(t, "/jtrack/api/jobs", s.url("/api/jobs"))
	assert.Equal(t, "/jtrack/", s.cookiePath())
}
