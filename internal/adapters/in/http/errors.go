package http

import (
	"errors"
	"fmt"
	"net/http"

	"mensajero/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusFor maps domain error kinds onto HTTP status codes. Anything
// unrecognised is a 500.
func statusFor(err error) int {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrObjectAlreadyExists),
		errors.Is(err, errs.ErrTransitionIsInvalid),
		errors.Is(err, errs.ErrVersionIsInvalid):
		return http.StatusConflict
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(ctx echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), "Request failed",
			"method", ctx.Request().Method, "path", ctx.Path(), "error", err)
		return ctx.JSON(status, Error{Code: status, Message: "Internal server error"})
	}

	return ctx.JSON(status, Error{Code: status, Message: messageFor(err)})
}

// handleError renders errors returned by middleware and by echo's own
// routing in the same Error body the handlers use.
func (s *Server) handleError(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}
	if writeErr := s.fail(ctx, err); writeErr != nil {
		s.logger.ErrorContext(ctx.Request().Context(), "Cannot write error response", "error", writeErr)
	}
}

func messageFor(err error) string {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprint(httpErr.Message)
	}
	return err.Error()
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, message)
}

func invalidParam(name string, cause error) error {
	return errs.NewValueIsInvalidErrorWithCause(name, cause)
}
