package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sundayleague/league-api/internal/apperror"
	"github.com/sundayleague/league-api/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the user we store.
type contextKey string

const userKey contextKey = "user"

// UserFinder resolves a token subject to a stored user. It must return an
// error matching apperror.ErrNotFound when the user no longer exists.
// service.AuthService satisfies it.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth enforces authentication on protected routes.
//
// It reads "Authorization: Bearer <token>", verifies the token, and loads
// the user it names. The user is stored in the request context for
// handlers and for RequireAdmin.
//
// Every credential failure (no header, wrong scheme, bad or expired token,
// user gone) gets the same 401 body. A failing user lookup is a 500: the
// token may be fine and the client should not drop it.
func RequireAuth(tokens *TokenService, users UserFinder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Could not validate credentials")
				return
			}

			userID, err := tokens.Verify(raw)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Could not validate credentials")
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			switch {
			case errors.Is(err, apperror.ErrNotFound), err == nil && user == nil:
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Could not validate credentials")
				return
			case err != nil:
				logger.Error("loading authenticated user",
					slog.String("userID", userID),
					slog.String("error", err.Error()),
				)
				writeAuthError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after RequireAuth. It lets the request through
// unchanged when the user is an admin and answers 403 otherwise.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Could not validate credentials")
			return
		}
		if !user.IsAdmin {
			writeAuthError(w, http.StatusForbidden, "forbidden", "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext returns the user RequireAuth stored for this request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// ContextWithUser is the inverse of UserFromContext. Handler tests use it
// to skip the middleware.
func ContextWithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
