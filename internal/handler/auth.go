package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sundayleague/league-api/internal/apperror"
	"github.com/sundayleague/league-api/internal/auth"
	"github.com/sundayleague/league-api/internal/model"
	"github.com/sundayleague/league-api/internal/service"
)

// AuthHandler serves the credential endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account
//   - HandleLogin    → exchange email + password for a bearer token
//   - HandleMe       → return the caller (behind auth.RequireAuth)
//   - HandleLogout   → acknowledge; tokens are stateless and simply expire
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, logger: logger}
}

// CredentialsRequest is the body of both register and login.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest adds the minimum length rule that only applies on signup.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        *model.User `json:"user"`
}

// HandleRegister creates a non-admin user.
//
// HTTP: POST /auth/register
// REQUEST BODY: {"email": "a@b.io", "password": "secret123"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, r, http.StatusOK, user)
}

// HandleLogin verifies credentials and returns a bearer token.
//
// HTTP: POST /auth/login
// RESPONSE: {"access_token": "...", "token_type": "bearer", "expires_in": 1800, "user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		// A malformed login is still a failed login to the caller.
		h.logger.Debug("login body rejected",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, r, http.StatusOK, TokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresIn:   result.ExpiresIn,
		User:        result.User,
	})
}

// HandleMe returns the authenticated user.
//
// HTTP: GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthenticated("Could not validate credentials"))
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

// HandleLogout is a no-op on the server. The client drops its token; there
// is no revocation list, so the token stays valid until it expires.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "Logged out"})
}
