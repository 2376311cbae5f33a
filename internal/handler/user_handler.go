package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"membership/internal/auth"
	apperrors "membership/internal/errors"
	"membership/internal/service"
)

// UserHandler serves the JSON user API.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CurrentUserResponse is the body of GET /user.
type CurrentUserResponse struct {
	FirstName string `json:"firstName"`
}

// CurrentUser godoc
// @Summary Current user
// @Description Returns the first name of the signed-in user, read from the user record.
// @Tags users
// @Produce json
// @Success 200 {object} CurrentUserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user [get]
func (h *UserHandler) CurrentUser(c echo.Context) error {
	session, ok := auth.SessionFromContext(c.Request().Context())
	if !ok {
		if err := auth.SessionError(c.Request().Context()); err != nil {
			return err
		}
		return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{
			Error: "not authenticated",
			Code:  "UNAUTHORIZED",
		})
	}

	user, err := h.svc.GetByEmail(c.Request().Context(), session.Principal.Email)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, apperrors.ErrorResponse{
			Error: "user not found",
			Code:  "USER_NOT_FOUND",
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CurrentUserResponse{FirstName: user.FirstName})
}
