package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"mirai/pkg/apperrors"
	"mirai/pkg/utils"
)

// statusOf maps a service error to its HTTP status.
func statusOf(err error) int {
	var (
		invalid   *apperrors.InvalidInputError
		lang      *apperrors.LanguageValidationError
		gen       *apperrors.GenerationError
		media     *apperrors.MediaSynthesisError
		compose   *apperrors.CompositionError
		notFound  *apperrors.NotFoundError
		ownership *apperrors.OwnershipError
		httpErr   *echo.HTTPError
	)
	switch {
	case errors.As(err, &invalid), errors.As(err, &lang):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &ownership):
		return http.StatusForbidden
	case errors.As(err, &gen), errors.As(err, &media):
		return http.StatusBadGateway
	case errors.As(err, &compose):
		return http.StatusInternalServerError
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func fail(c echo.Context, err error) error {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "status", status, "err", err)
	}
	return c.JSON(status, utils.ErrJSON(err.Error()))
}
