package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/devconnect/backend/internal/repositories"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group, requireAuth ...echo.MiddlewareFunc) {
	g.GET("/users/test", h.Test)
	g.GET("/users/current", h.GetCurrentUser, requireAuth...)
}

// Test reports that the user routes are mounted
func (h *UserHandler) Test(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"msg": "Users Works"})
}

// GetCurrentUser returns the authenticated account
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
