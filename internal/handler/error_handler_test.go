package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	apperrors "membership/internal/errors"
)

func serveError(method, accept string, err error) *httptest.ResponseRecorder {
	e := newEcho()
	req := httptest.NewRequest(method, "/somewhere", nil)
	if accept != "" {
		req.Header.Set(echo.HeaderAccept, accept)
	}
	rec := httptest.NewRecorder()
	e.HTTPErrorHandler(err, e.NewContext(req, rec))
	return rec
}

func TestErrorHandler_Pages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		contains string
	}{
		{"not found", echo.ErrNotFound, http.StatusNotFound, "Page not found"},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden, "Access denied"},
		{"echo forbidden", echo.ErrForbidden, http.StatusForbidden, "Access denied"},
		{"method not allowed", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"storage", apperrors.Storage("find user", errors.New("dial tcp: refused")), http.StatusInternalServerError, "Internal server error."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveError(http.MethodGet, "", tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestErrorHandler_HidesInternalCause(t *testing.T) {
	rec := serveError(http.MethodGet, "", apperrors.Storage("find user", errors.New("dial tcp 10.0.0.5:3306: refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")

	rec = serveError(http.MethodGet, "", echo.NewHTTPError(http.StatusBadGateway, "upstream secret"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "upstream secret")
}

func TestErrorHandler_JSON(t *testing.T) {
	rec := serveError(http.MethodGet, echo.MIMEApplicationJSON, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error.","code":"INTERNAL_ERROR"}`, rec.Body.String())

	rec = serveError(http.MethodGet, echo.MIMEApplicationJSON, apperrors.ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Not authenticated.","code":"UNAUTHORIZED"}`, rec.Body.String())
}

func TestErrorHandler_Head(t *testing.T) {
	rec := serveError(http.MethodHead, "", echo.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusOK, "done")

	e.HTTPErrorHandler(errors.New("late"), c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}
