package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"assistance-backend/internal/adapter/middleware"
	"assistance-backend/pkg/domainerrors"
)

// statusOf maps a domain error kind to its HTTP status.
func statusOf(err error) int {
	switch domainerrors.CodeOf(err) {
	case domainerrors.CodeValidation:
		return http.StatusUnprocessableEntity
	case domainerrors.CodeConflict, domainerrors.CodeState:
		return http.StatusConflict
	case domainerrors.CodeNotFound:
		return http.StatusNotFound
	case domainerrors.CodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	status := statusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		c.Logger().Error(err)
		msg = http.StatusText(status)
	}
	return c.JSON(status, ErrorResponse{Error: msg, Code: string(domainerrors.CodeOf(err))})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}

func invalid(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Code:    string(domainerrors.CodeValidation),
		Details: ToFieldErrors(err),
	})
}

// actorOf reads Ax-Actor-Id. ok is false (and a 400 already written) when
// it is missing or malformed.
func actorOf(c echo.Context) (string, bool, error) {
	actor := strings.TrimSpace(c.Request().Header.Get(middleware.HeaderActorID))
	if !reHex32.MatchString(actor) {
		return "", false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Actor-Id"})
	}
	return actor, true, nil
}

// bindValid binds the body into req and validates it. ok is false when a
// response was already written.
func bindValid(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badBody(c)
	}
	if err := c.Validate(req); err != nil {
		return false, invalid(c, err)
	}
	return true, nil
}
