package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"membership/internal/auth"
	apperrors "membership/internal/errors"
	"membership/internal/logger"
	"membership/internal/model"
)

// SessionConfig configures LoadSession.
type SessionConfig struct {
	Store  auth.SessionStore
	Cookie auth.CookieConfig
	// Sliding re-arms the session TTL and the cookie on every request.
	Sliding bool
	Logger  logger.Logger
}

// LoadSession resolves the session cookie and attaches the live session to the
// request context. Requests without a valid session continue anonymously; a
// cookie naming an unknown or expired session is cleared. A store failure is
// logged and recorded on the context so that RequireSession can report it.
func LoadSession(cfg SessionConfig) echo.MiddlewareFunc {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := cfg.Cookie.SessionID(req)
			if id == "" {
				return next(c)
			}

			session, err := cfg.Store.Get(req.Context(), id)
			if errors.Is(err, apperrors.ErrSessionNotFound) {
				c.SetCookie(cfg.Cookie.Clear())
				return next(c)
			}
			if err != nil {
				// Public pages stay up; gated routes fail on the recorded error.
				log.Warn("session lookup failed", "error", err)
				c.SetRequest(req.WithContext(auth.WithSessionError(req.Context(), err)))
				return next(c)
			}

			if cfg.Sliding {
				err := cfg.Store.Touch(req.Context(), session)
				switch {
				case errors.Is(err, apperrors.ErrSessionNotFound):
					// Destroyed between Get and Touch.
					c.SetCookie(cfg.Cookie.Clear())
					return next(c)
				case err != nil:
					log.Warn("session touch failed", "error", err)
				default:
					c.SetCookie(cfg.Cookie.Issue(session.ID))
				}
			}

			c.SetRequest(req.WithContext(auth.WithSession(req.Context(), session)))
			return next(c)
		}
	}
}

// RequireSession redirects requests without a live session to redirectTo.
func RequireSession(redirectTo string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if _, ok := auth.SessionFromContext(ctx); !ok {
				if err := auth.SessionError(ctx); err != nil {
					return err
				}
				return c.Redirect(http.StatusFound, redirectTo)
			}
			return next(c)
		}
	}
}

// RoleLookup fetches the current user record.
type RoleLookup interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// RequireAdminRole re-reads the user behind the session and lets the request
// through only when the stored role is admin. It must run after RequireSession.
// The session snapshot is never trusted for the decision.
func RequireAdminRole(users RoleLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			session, ok := auth.SessionFromContext(ctx)
			if !ok {
				if err := auth.SessionError(ctx); err != nil {
					return err
				}
				return apperrors.ErrUnauthorized
			}

			user, err := users.GetByEmail(ctx, session.Principal.Email)
			if errors.Is(err, apperrors.ErrUserNotFound) {
				// The session outlived its user record.
				return apperrors.ErrForbidden
			}
			if err != nil {
				return err
			}
			if !user.IsAdmin() {
				return apperrors.ErrForbidden
			}
			return next(c)
		}
	}
}
