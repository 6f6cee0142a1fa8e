package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayleague/league-api/internal/apperror"
	"github.com/sundayleague/league-api/internal/model"
)

// fakeUsers is a map-backed UserFinder.
type fakeUsers map[string]*model.User

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

// brokenUsers fails every lookup, as a store that went away would.
type brokenUsers struct{}

func (brokenUsers) GetUserByID(context.Context, string) (*model.User, error) {
	return nil, errors.New("sql: database is closed")
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// echoUser writes the authenticated user's ID so tests can see what the
// middleware put in the context.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		http.Error(w, "no user in context", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(u.ID))
})

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRequireAuth(t *testing.T) {
	ts, clk := newTestTokenService(t)
	users := fakeUsers{
		"u-1": {ID: "u-1", Email: "coach@example.com"},
	}
	h := RequireAuth(ts, users, quietLogger)(echoUser)

	valid, err := ts.Issue("u-1")
	require.NoError(t, err)
	ghost, err := ts.Issue("u-deleted")
	require.NoError(t, err)

	t.Run("valid bearer token passes the user through", func(t *testing.T) {
		rr := serve(h, "Bearer "+valid)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "u-1", rr.Body.String())
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		rr := serve(h, "bearer "+valid)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	failures := map[string]string{
		"missing header":    "",
		"wrong scheme":      "Basic " + valid,
		"no token":          "Bearer ",
		"token only":        valid,
		"garbage token":     "Bearer not-a-token",
		"user not in store": "Bearer " + ghost,
	}
	for name, header := range failures {
		t.Run(name, func(t *testing.T) {
			rr := serve(h, header)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, "unauthorized", body["error"])
			assert.Equal(t, "Could not validate credentials", body["message"])
		})
	}

	t.Run("expired token", func(t *testing.T) {
		clk.Advance(31 * time.Minute)
		t.Cleanup(func() { clk.Advance(-31 * time.Minute) })

		rr := serve(h, "Bearer "+valid)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireAuth_StoreFailureIs500(t *testing.T) {
	ts, _ := newTestTokenService(t)
	var logs bytes.Buffer
	h := RequireAuth(ts, brokenUsers{}, slog.New(slog.NewJSONHandler(&logs, nil)))(echoUser)

	token, err := ts.Issue("u-1")
	require.NoError(t, err)

	rr := serve(h, "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, rr.Header().Get("WWW-Authenticate"), "the token was not rejected")

	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "internal_error", body["error"])
	assert.NotContains(t, body["message"], "database is closed")
	assert.Contains(t, logs.String(), "database is closed")
}

func TestRequireAdmin(t *testing.T) {
	ts, _ := newTestTokenService(t)
	users := fakeUsers{
		"admin":  {ID: "admin", IsAdmin: true},
		"player": {ID: "player", IsAdmin: false},
	}
	h := RequireAuth(ts, users, quietLogger)(RequireAdmin(echoUser))

	adminToken, _ := ts.Issue("admin")
	playerToken, _ := ts.Issue("player")

	t.Run("admin passes", func(t *testing.T) {
		rr := serve(h, "Bearer "+adminToken)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "admin", rr.Body.String())
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		rr := serve(h, "Bearer "+playerToken)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "Admin access required", body["message"])
	})

	t.Run("anonymous is unauthenticated before forbidden", func(t *testing.T) {
		rr := serve(h, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("without RequireAuth in front it refuses", func(t *testing.T) {
		rr := serve(RequireAdmin(echoUser), "Bearer "+adminToken)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestContextWithUser_RoundTrip(t *testing.T) {
	u := &model.User{ID: "x"}
	got, ok := UserFromContext(ContextWithUser(context.Background(), u))
	require.True(t, ok)
	assert.Same(t, u, got)

	_, ok = UserFromContext(context.Background())
	assert.False(t, ok)
}
