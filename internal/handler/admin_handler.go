package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"membership/internal/auth"
	"membership/internal/logger"
	"membership/internal/metrics"
	"membership/internal/service"
)

// AdminHandler serves the admin dashboard and role mutations.
// Routes must be guarded by RequireSession and RequireAdminRole.
type AdminHandler struct {
	svc     service.UserService
	metrics *metrics.Metrics
	log     logger.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(svc service.UserService, m *metrics.Metrics, log logger.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, metrics: m, log: log}
}

// Dashboard lists every user.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "admin", page(c, echo.Map{"Users": users}))
}

// Promote grants the admin role to :email and redirects back to /admin.
func (h *AdminHandler) Promote(c echo.Context) error {
	return h.changeRole(c, "promote", h.svc.Promote)
}

// Demote reverts :email to the user role and redirects back to /admin.
func (h *AdminHandler) Demote(c echo.Context) error {
	return h.changeRole(c, "demote", h.svc.Demote)
}

func (h *AdminHandler) changeRole(c echo.Context, action string, apply func(ctx context.Context, email string) error) error {
	email, err := url.PathUnescape(c.Param("email"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email")
	}

	err = apply(c.Request().Context(), email)
	h.metrics.ObserveRoleChange(action, err)
	if err != nil {
		return err
	}

	var actor string
	if session, ok := auth.SessionFromContext(c.Request().Context()); ok {
		actor = session.Principal.Email
	}
	h.log.Info("role changed", "action", action, "target", email, "actor", actor)
	return c.Redirect(http.StatusFound, "/admin")
}
