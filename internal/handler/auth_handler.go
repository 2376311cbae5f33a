package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"membership/internal/auth"
	apperrors "membership/internal/errors"
	"membership/internal/logger"
	"membership/internal/metrics"
	"membership/internal/service"
)

// AuthHandler handles signup, signin and logout.
type AuthHandler struct {
	authService service.AuthService
	cookie      auth.CookieConfig
	metrics     *metrics.Metrics
	log         logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookie auth.CookieConfig, m *metrics.Metrics, log logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, metrics: m, log: log}
}

// SignupForm renders the signup page.
func (h *AuthHandler) SignupForm(c echo.Context) error {
	return c.Render(http.StatusOK, "signup", page(c, nil))
}

// SigninForm renders the sign-in page.
func (h *AuthHandler) SigninForm(c echo.Context) error {
	return c.Render(http.StatusOK, "signin", page(c, nil))
}

// Signup creates the account and the session, then redirects to /authenticated.
// Business-rule rejections are rendered inline with a retry link.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req service.SignupRequest
	if err := c.Bind(&req); err != nil {
		return inlineError(c, http.StatusBadRequest, "Invalid request.", "/signup")
	}

	session, err := h.authService.Signup(c.Request().Context(), req)
	h.metrics.ObserveSignup(err)
	if err != nil {
		return h.rejection(c, err, "/signup")
	}

	h.log.Info("user signed up", "email", session.Principal.Email)
	c.SetCookie(h.cookie.Issue(session.ID))
	return c.Redirect(http.StatusFound, "/authenticated")
}

// Signin verifies credentials, creates the session and redirects to /authenticated.
func (h *AuthHandler) Signin(c echo.Context) error {
	var req service.SigninRequest
	if err := c.Bind(&req); err != nil {
		return inlineError(c, http.StatusBadRequest, "Invalid request.", "/signIn")
	}

	session, err := h.authService.Signin(c.Request().Context(), req)
	h.metrics.ObserveSignin(err)
	if err != nil {
		return h.rejection(c, err, "/signIn")
	}

	h.log.Info("user signed in", "email", session.Principal.Email)
	c.SetCookie(h.cookie.Issue(session.ID))
	return c.Redirect(http.StatusFound, "/authenticated")
}

// Logout destroys the session and redirects home. A failure to destroy the
// server-side record is reported to the user but does not keep them signed in
// on this client.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.cookie.Clear())

	session, ok := auth.SessionFromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/")
	}

	err := h.authService.Logout(c.Request().Context(), session.ID)
	h.metrics.ObserveLogout(err)
	if err != nil {
		h.log.Error("logout failed", "email", session.Principal.Email, "error", err)
		return c.Render(http.StatusInternalServerError, "message", echo.Map{
			"Message": "We could not end your session on the server. Please try again.",
			"LinkURL": "/",
		})
	}
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) rejection(c echo.Context, err error, retryURL string) error {
	mapped := apperrors.MapErrorToHTTP(err)
	if !mapped.Inline {
		return err
	}
	h.log.Debug("auth rejected", "code", mapped.Code)
	return inlineError(c, mapped.StatusCode, mapped.Message, retryURL)
}

func inlineError(c echo.Context, status int, message, retryURL string) error {
	return c.Render(status, "auth_error", echo.Map{
		"Message":  message,
		"RetryURL": retryURL,
	})
}
