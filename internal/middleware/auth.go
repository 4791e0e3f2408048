package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/devconnect/backend/internal/auth"
)

// UserIDKey is the echo context key holding the caller's primitive.ObjectID.
const UserIDKey = "userID"

// Auth requires a valid "Bearer <token>" header and stores the resolved
// user id under UserIDKey.
func Auth(verifier auth.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			userID, err := verifier.Verify(c.Request().Context(), tokenParts[1])
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
				}
				return err
			}

			id, err := primitive.ObjectIDFromHex(userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			c.Set(UserIDKey, id)
			return next(c)
		}
	}
}

// CurrentUserID returns the id stored by Auth. Handlers mounted behind Auth
// can rely on ok being true.
func CurrentUserID(c echo.Context) (primitive.ObjectID, bool) {
	id, ok := c.Get(UserIDKey).(primitive.ObjectID)
	return id, ok
}
