package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, and reads its
// body through decodeJSON, so the wire format lives in one file.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "not_found", "message": "player not found with id abc123"}
// Validation failures also name the offending field:
//   {"error": "validation_error", "message": "...", "field": "clean_sheets"}

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/sundayleague/league-api/internal/apperror"
)

// maxBodyBytes caps request bodies. Player and auth payloads are tiny.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Set for validation errors
}

// MessageResponse is used by endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// validate is shared by every handler. validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name so errors match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON sends a JSON response with the given status code.
//
// render.Status stores the code on the request context; render.JSON then
// sets Content-Type, writes the header and encodes the body in that order.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
//
//	ErrValidation      → 400 validation_error
//	ErrConflict        → 400 conflict   (duplicate email is a bad request to clients)
//	ErrUnauthenticated → 401 unauthorized
//	ErrForbidden       → 403 forbidden
//	ErrNotFound        → 404 not_found
//	anything else      → 500 internal_error, details only in the log
//
// errors.As walks the wrap chain, so a service error like
// fmt.Errorf("service/player: approving x: %w", apperror.NotFound(...))
// still maps to 404.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusBadRequest
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
			w.Header().Set("WWW-Authenticate", "Bearer")
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, r, status, ErrorResponse{
				Error:   errorType,
				Message: appErr.Message,
				Field:   appErr.Field,
			})
			return
		}
	}

	// Unknown error: NEVER expose internal details (SQL, file paths) to the client.
	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads the request body into dst and runs its `validate` tags.
// Both malformed JSON and rule violations come back as ErrValidation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return apperror.ValidationFailed("body", "Invalid JSON body")
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return validationMessage(verrs[0])
		}
		return fmt.Errorf("handler: validating request: %w", err)
	}
	return nil
}

func validationMessage(fe validator.FieldError) *apperror.AppError {
	field := fe.Field()

	var msg string
	switch fe.Tag() {
	case "required":
		msg = field + " is required"
	case "email":
		msg = field + " must be a valid email address"
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		msg = fmt.Sprintf("%s must be %s or more", field, fe.Param())
	case "lte":
		msg = fmt.Sprintf("%s must be %s or less", field, fe.Param())
	case "url":
		msg = field + " must be a valid URL"
	default:
		msg = fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
	return apperror.ValidationFailed(field, msg)
}
