package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayleague/league-api/internal/clock"
	"github.com/sundayleague/league-api/internal/config"
	"github.com/sundayleague/league-api/internal/model"
	sqliteRepo "github.com/sundayleague/league-api/internal/repository/sqlite"
)

// =========================================================================
// HELPERS
// =========================================================================

const (
	adminEmail    = "admin@league.test"
	adminPassword = "admin-password"
)

func testConfig(dbURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:               0,
			CORSAllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: config.DatabaseConfig{URL: dbURL},
		Auth: config.AuthConfig{
			JWTSecret:      "server-test-secret-0123456789",
			AccessTokenTTL: 30 * time.Minute,
			BcryptCost:     4,
			AdminEmail:     adminEmail,
			AdminPassword:  adminPassword,
		},
		Logger: config.LoggerConfig{Level: "error"},
	}
}

type testServer struct {
	t     *testing.T
	srv   *Server
	clock *clock.Mock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clk := clock.NewMock(time.Date(2026, 10, 4, 11, 0, 0, 0, time.UTC))
	srv, err := New(context.Background(), testConfig(":memory:"),
		slog.New(slog.NewTextHandler(io.Discard, nil)), WithClock(clk))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return &testServer{t: t, srv: srv, clock: clk}
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) login(email, password string) string {
	ts.t.Helper()
	rr := ts.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(ts.t, http.StatusOK, rr.Code, rr.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(ts.t, json.NewDecoder(rr.Body).Decode(&tok))
	return tok.AccessToken
}

func (ts *testServer) registerAndLogin(email string) string {
	ts.t.Helper()
	rr := ts.do(http.MethodPost, "/auth/register", "", map[string]string{"email": email, "password": "secret123"})
	require.Equal(ts.t, http.StatusOK, rr.Code, rr.Body.String())
	return ts.login(email, "secret123")
}

func decodePlayer(t *testing.T, rr *httptest.ResponseRecorder) model.Player {
	t.Helper()
	var p model.Player
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&p), rr.Body.String())
	return p
}

// =========================================================================
// END TO END
// =========================================================================

func TestServer_PlayerLifecycleWithAdminGate(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodPost, "/players", "", map[string]any{
		"first_name": "Bukayo", "last_name": "S", "position": "RW",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	req := decodePlayer(t, rr)
	assert.Equal(t, model.StatusPending, req.Status)

	approvePath := "/players/" + req.ID + "/approve"

	// no token
	rr = ts.do(http.MethodPut, approvePath, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))

	// garbage token
	rr = ts.do(http.MethodPut, approvePath, "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// authenticated, not admin
	fan := ts.registerAndLogin("fan@league.test")
	rr = ts.do(http.MethodPut, approvePath, fan, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// still pending after the rejected attempts
	rr = ts.do(http.MethodGet, "/players/requests", "", nil)
	var pending []model.Player
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&pending))
	require.Len(t, pending, 1)

	admin := ts.login(adminEmail, adminPassword)

	ts.clock.Advance(10 * time.Minute)
	rr = ts.do(http.MethodPut, approvePath, admin, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	approved := decodePlayer(t, rr)
	assert.Equal(t, model.StatusActive, approved.Status)
	require.NotNil(t, approved.JoinedAt)
	assert.True(t, approved.JoinedAt.Equal(ts.clock.Now()))

	for _, path := range []string{"/players/roster", "/players/active-players"} {
		rr = ts.do(http.MethodGet, path, "", nil)
		var roster []model.Player
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&roster))
		require.Len(t, roster, 1, path)
		assert.Equal(t, req.ID, roster[0].ID)
	}

	rr = ts.do(http.MethodDelete, "/players/does-not-exist/reject", admin, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.do(http.MethodDelete, "/admin/players/"+req.ID, fan, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = ts.do(http.MethodDelete, "/admin/players/"+req.ID, admin, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServer_Me(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin("me@league.test")

	rr := ts.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var me map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&me))
	assert.Equal(t, "me@league.test", me["email"])
	assert.Equal(t, false, me["is_admin"])
	assert.NotContains(t, me, "password_hash")

	rr = ts.do(http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestServer_TokenExpires(t *testing.T) {
	ts := newTestServer(t)
	token := ts.registerAndLogin("late@league.test")

	ts.clock.Advance(29 * time.Minute)
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/auth/me", token, nil).Code)

	ts.clock.Advance(2 * time.Minute)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/auth/me", token, nil).Code)
}

func TestServer_AdminBootstrapIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "league.db")
	cfg := testConfig("sqlite://" + path)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	first, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	assert.FileExists(t, path)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	ts.do(http.MethodGet, "/players/roster", "", nil)

	rr = ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `league_http_requests_total{method="GET",route="/players/roster",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestServer_RateLimitsCredentialEndpoints(t *testing.T) {
	cfg := testConfig(":memory:")
	cfg.Auth.RateLimitPerMinute = 1
	cfg.Auth.RateLimitBurst = 2
	srv, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	ts := &testServer{t: t, srv: srv}

	creds := map[string]string{"email": "nobody@league.test", "password": "secret123"}
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPost, "/auth/login", "", creds).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPost, "/auth/login", "", creds).Code)

	rr := ts.do(http.MethodPost, "/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// read endpoints share no bucket with login
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/players/roster", "", nil).Code)
}

func TestServer_RateLimitIgnoresForwardedHeadersByDefault(t *testing.T) {
	loginFrom := func(srv *Server, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			bytes.NewBufferString(`{"email":"nobody@league.test","password":"secret123"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)
		return rr.Code
	}
	build := func(trustProxy bool) *Server {
		cfg := testConfig(":memory:")
		cfg.Server.TrustProxy = trustProxy
		cfg.Auth.RateLimitPerMinute = 1
		cfg.Auth.RateLimitBurst = 1
		srv, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
		require.NoError(t, err)
		t.Cleanup(func() { srv.Close() })
		return srv
	}

	t.Run("untrusted headers share one bucket", func(t *testing.T) {
		srv := build(false)
		var codes []int
		for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"} {
			codes = append(codes, loginFrom(srv, ip))
		}
		assert.Equal(t, []int{
			http.StatusUnauthorized,
			http.StatusTooManyRequests,
			http.StatusTooManyRequests,
			http.StatusTooManyRequests,
		}, codes)
	})

	t.Run("behind a trusted proxy each forwarded client counts", func(t *testing.T) {
		srv := build(true)
		assert.Equal(t, http.StatusUnauthorized, loginFrom(srv, "10.0.0.1"))
		assert.Equal(t, http.StatusUnauthorized, loginFrom(srv, "10.0.0.2"))
		assert.Equal(t, http.StatusTooManyRequests, loginFrom(srv, "10.0.0.1"))
	})
}

func TestServer_StoreFailureDuringAuthIs500(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(adminEmail, adminPassword)
	require.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/auth/me", token, nil).Code)

	require.NoError(t, ts.srv.Close())

	rr := ts.do(http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code, rr.Body.String())
	assert.Empty(t, rr.Header().Get("WWW-Authenticate"))
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenStore_SQLiteURLForms(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	for _, url := range []string{
		":memory:",
		filepath.Join(dir, "plain.db"),
		"sqlite://" + filepath.Join(dir, "prefixed.db"),
	} {
		store, err := openStore(context.Background(), config.DatabaseConfig{URL: url}, logger)
		require.NoError(t, err, url)
		_, isSQLite := store.(*sqliteRepo.DB)
		assert.True(t, isSQLite, url)
		require.NoError(t, store.Ping(context.Background()))
		require.NoError(t, store.Close())
	}

	_, err := openStore(context.Background(), config.DatabaseConfig{URL: "sqlite://"}, logger)
	assert.Error(t, err)
}
