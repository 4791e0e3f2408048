package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/middleware"
)

// currentUser returns the authenticated caller. It only fails when a route
// was mounted without the auth middleware.
func currentUser(c echo.Context) (primitive.ObjectID, error) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return id, nil
}

func errNotAuthorized() error {
	return apperror.Unauthorized("notauthorized", "User not authorized")
}
