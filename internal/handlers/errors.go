package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/validators"
)

// ErrorHandler renders handler errors. Validation failures become a field
// map, application errors become {field: message}, echo errors use
// fallback, and anything else is logged and reported as a bare 500.
func ErrorHandler(logger logrus.FieldLogger, fallback echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			verrs   validators.ValidationErrors
			appErr  *apperror.AppError
			httpErr *echo.HTTPError
			rerr    error
		)
		switch {
		case errors.As(err, &verrs):
			rerr = c.JSON(http.StatusBadRequest, verrs)
		case errors.As(err, &appErr):
			key := appErr.Field
			if key == "" {
				key = "message"
			}
			rerr = c.JSON(apperror.StatusCode(appErr), echo.Map{key: appErr.Message})
		case errors.As(err, &httpErr):
			fallback(err, c)
		default:
			logger.WithFields(logrus.Fields{
				"method": c.Request().Method,
				"path":   c.Path(),
			}).WithError(err).Error("unhandled error")
			rerr = c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
		}
		if rerr != nil {
			logger.WithError(rerr).Warn("writing error response")
		}
	}
}
