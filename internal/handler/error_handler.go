package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "membership/internal/errors"
	"membership/internal/logger"
)

// NewErrorHandler returns the central echo error handler. Unmatched routes get
// the 404 page, role denials the 403 page, and storage or unknown failures a
// generic 500 that is logged but never describes the cause to the client.
func NewErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp, view := classify(err)
		if resp.StatusCode >= http.StatusInternalServerError {
			log.Error("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"error", err,
			)
		}

		var writeErr error
		switch {
		case c.Request().Method == http.MethodHead:
			writeErr = c.NoContent(resp.StatusCode)
		case wantsJSON(c.Request()):
			writeErr = c.JSON(resp.StatusCode, resp.ToErrorResponse())
		default:
			writeErr = c.Render(resp.StatusCode, view, page(c, echo.Map{"Message": resp.Message}))
		}
		if writeErr != nil {
			log.Error("write error response", "error", writeErr)
			_ = c.String(resp.StatusCode, resp.Message)
		}
	}
}

func classify(err error) (*apperrors.HTTPError, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return apperrors.NewHTTPError(http.StatusNotFound, "Page not found.", "NOT_FOUND"), "not_found"
		case http.StatusForbidden:
			return apperrors.NewHTTPError(http.StatusForbidden, "Access denied.", "FORBIDDEN"), "forbidden"
		}
		if he.Code >= http.StatusInternalServerError {
			return apperrors.NewHTTPError(he.Code, "Internal server error.", "INTERNAL_ERROR"), "error"
		}
		return apperrors.NewHTTPError(he.Code, httpErrorMessage(he), strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))), "error"
	}

	mapped := apperrors.MapErrorToHTTP(err)
	if mapped.StatusCode == http.StatusForbidden {
		return mapped, "forbidden"
	}
	return mapped, "error"
}

func httpErrorMessage(he *echo.HTTPError) string {
	if msg, ok := he.Message.(string); ok && msg != "" {
		return msg
	}
	if he.Message != nil {
		return fmt.Sprint(he.Message)
	}
	return http.StatusText(he.Code)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) ||
		strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}
