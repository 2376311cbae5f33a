package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"membership/internal/auth"
)

// PageHandler serves the public and members pages.
type PageHandler struct{}

// NewPageHandler creates a page handler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

func (h *PageHandler) Landing(c echo.Context) error {
	return c.Render(http.StatusOK, "index", page(c, nil))
}

func (h *PageHandler) Authenticated(c echo.Context) error {
	return c.Render(http.StatusOK, "authenticated", page(c, nil))
}

func (h *PageHandler) MembersOnly(c echo.Context) error {
	return c.Render(http.StatusOK, "members_only", page(c, nil))
}

// page builds template data carrying the principal of the current session, if any.
func page(c echo.Context, data echo.Map) echo.Map {
	if data == nil {
		data = echo.Map{}
	}
	if session, ok := auth.SessionFromContext(c.Request().Context()); ok {
		data["Principal"] = session.Principal
	}
	return data
}
