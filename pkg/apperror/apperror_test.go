package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFound("User", "42"), http.StatusNotFound},
		{"invalid input", NewInvalidInput("bad json", nil), http.StatusBadRequest},
		{"validation", NewValidationFailed(FieldError{Field: "phone", Message: "too short"}), http.StatusBadRequest},
		{"conflict", NewConflict("User", "email", "a@x.com"), http.StatusConflict},
		{"unauthorized", NewUnauthorized("wrong password", nil), http.StatusUnauthorized},
		{"permission", NewPermissionDenied("nope"), http.StatusForbidden},
		{"too large", NewTooLarge("resume over limit"), http.StatusRequestEntityTooLarge},
		{"unavailable", NewUnavailable("llm not configured"), http.StatusServiceUnavailable},
		{"internal", NewInternal("db down", errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("unexpected"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("get profile failed: %w", NewNotFound("User", "1")), http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToHTTPStatus(tc.err))
		})
	}
}

func TestAppError_ToJSONHidesCause(t *testing.T) {
	err := NewInternal("insert certificate", errors.New("pq: relation does not exist"))

	body := err.ToJSON()

	assert.Equal(t, "internal server error", body["error"])
	assert.Equal(t, "An internal server error occurred", body["message"])
	assert.NotContains(t, body, "errors")
	assert.NotContains(t, fmt.Sprint(body), "relation")
}

func TestAppError_ToJSONIncludesFieldErrors(t *testing.T) {
	err := NewValidationFailed(FieldError{Field: "email", Message: "Invalid email"})

	body := err.ToJSON()

	assert.Equal(t, "Validation failed", body["message"])
	assert.Equal(t, []FieldError{{Field: "email", Message: "Invalid email"}}, body["errors"])
}

func TestAppError_UnwrapAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternal("ping", cause)

	assert.True(t, errors.Is(err, ErrInternal))
	assert.Equal(t, cause, err.Cause())
	assert.Contains(t, err.Error(), "connection refused")
}
