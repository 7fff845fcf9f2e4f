package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipehub/recipe-api/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{"validation", &domain.ValidationError{Field: "title", Message: "is required"}, http.StatusBadRequest, "title is required"},
		{"conflict", &domain.ConflictError{Field: "email"}, http.StatusBadRequest, "email already exists"},
		{"invalid token", fmt.Errorf("verify: %w", domain.ErrInvalidToken), http.StatusUnauthorized, "please authenticate"},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"unknown user", domain.ErrUserNotFound, http.StatusUnauthorized, "invalid email or password"},
		{"recipe missing", domain.ErrRecipeNotFound, http.StatusNotFound, "Recipe not found"},
		{"not author", domain.ErrNotFoundOrNotAuthor, http.StatusNotFound, "Recipe not found or you are not the author"},
		{"upload", &domain.UploadError{Cause: errors.New("bucket gone")}, http.StatusInternalServerError, "error uploading image"},
		{"persistence", &domain.PersistenceError{Op: "insert recipe", Err: errors.New("socket closed")}, http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			e := echo.New()
			h := NewHTTPErrorHandler(zerolog.New(&logs))

			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			h(tc.err, c)

			assert.Equal(t, tc.code, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.msg, body.Error)

			if tc.code == http.StatusInternalServerError {
				assert.NotEmpty(t, logs.String())
				assert.False(t, strings.Contains(rec.Body.String(), "socket closed"))
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, c.String(http.StatusOK, "done"))

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
