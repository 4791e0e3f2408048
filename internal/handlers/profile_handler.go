package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/models"
	"github.com/anonto42/devconnect/backend/internal/repositories"
	"github.com/anonto42/devconnect/backend/pkg/logger"
)

// ProfileHandler handles HTTP requests related to profiles
type ProfileHandler struct {
	profileRepository repositories.ProfileRepository
	userRepository    repositories.UserRepository
	postRepository    repositories.PostRepository
	logger            logrus.FieldLogger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileRepo repositories.ProfileRepository, userRepo repositories.UserRepository, postRepo repositories.PostRepository, logger logrus.FieldLogger) *ProfileHandler {
	return &ProfileHandler{
		profileRepository: profileRepo,
		userRepository:    userRepo,
		postRepository:    postRepo,
		logger:            logger,
	}
}

// RegisterProfileRoutes registers profile-related routes
func (h *ProfileHandler) RegisterProfileRoutes(g *echo.Group, requireAuth ...echo.MiddlewareFunc) {
	g.GET("/profile/test", h.Test)
	g.GET("/profile/all", h.GetAllProfiles)
	g.GET("/profile/handle/:handle", h.GetProfileByHandle)
	g.GET("/profile/user/:user_id", h.GetProfileByUserID)
	g.GET("/profile", h.GetCurrentProfile, requireAuth...)
	g.POST("/profile", h.UpsertProfile, requireAuth...)
	g.DELETE("/profile", h.DeleteAccount, requireAuth...)
	g.POST("/profile/experience", h.AddExperience, requireAuth...)
	g.DELETE("/profile/experience/:exp_id", h.DeleteExperience, requireAuth...)
	g.POST("/profile/education", h.AddEducation, requireAuth...)
	g.DELETE("/profile/education/:edu_id", h.DeleteEducation, requireAuth...)
}

// Test reports that the profile routes are mounted
func (h *ProfileHandler) Test(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"msg": "Profile Works"})
}

// populate attaches the public owner details to each profile. Profiles
// whose account is gone keep just the owner id.
func (h *ProfileHandler) populate(ctx context.Context, profiles ...*models.Profile) error {
	seen := make(map[primitive.ObjectID]bool, len(profiles))
	ids := make([]primitive.ObjectID, 0, len(profiles))
	for _, p := range profiles {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			ids = append(ids, p.UserID)
		}
	}

	users, err := h.userRepository.GetUsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[primitive.ObjectID]models.UserCompact, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].ToCompact()
	}

	for _, p := range profiles {
		owner, ok := byID[p.UserID]
		if !ok {
			owner = models.UserCompact{ID: p.UserID}
		}
		p.Owner = &owner
	}
	return nil
}

func (h *ProfileHandler) respond(c echo.Context, profile *models.Profile) error {
	if err := h.populate(c.Request().Context(), profile); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// GetCurrentProfile returns the caller's own profile
func (h *ProfileHandler) GetCurrentProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	profile, err := h.profileRepository.GetProfileByUserID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return h.respond(c, profile)
}

// GetAllProfiles lists every profile with its owner
func (h *ProfileHandler) GetAllProfiles(c echo.Context) error {
	ctx := c.Request().Context()
	profiles, err := h.profileRepository.GetAllProfiles(ctx)
	if err != nil {
		return err
	}

	ptrs := make([]*models.Profile, len(profiles))
	for i := range profiles {
		ptrs[i] = &profiles[i]
	}
	if err := h.populate(ctx, ptrs...); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profiles)
}

// GetProfileByHandle looks a profile up by its public handle
func (h *ProfileHandler) GetProfileByHandle(c echo.Context) error {
	profile, err := h.profileRepository.GetProfileByHandle(c.Request().Context(), c.Param("handle"))
	if err != nil {
		return err
	}
	return h.respond(c, profile)
}

// GetProfileByUserID looks a profile up by its owner. Malformed ids are
// reported like a missing profile.
func (h *ProfileHandler) GetProfileByUserID(c echo.Context) error {
	userID, err := primitive.ObjectIDFromHex(c.Param("user_id"))
	if err != nil {
		return apperror.NotFound("noprofile", "There is no profile for this user")
	}
	profile, err := h.profileRepository.GetProfileByUserID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return h.respond(c, profile)
}

// UpsertProfile creates the caller's profile or merges the request into the
// existing one.
func (h *ProfileHandler) UpsertProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	_, err = h.profileRepository.GetProfileByUserID(ctx, userID)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		if err := c.Validate(req.CreateRules()); err != nil {
			return err
		}
		profile := &models.Profile{UserID: userID}
		req.ApplyTo(profile)
		err := h.profileRepository.CreateProfile(ctx, profile)
		if err == nil {
			return h.respond(c, profile)
		}
		if !errors.Is(err, repositories.ErrProfileExists) {
			return err
		}
		// created concurrently, merge into it instead
	case err != nil:
		return err
	}

	profile, err := h.profileRepository.UpdateProfile(ctx, userID, func(p *models.Profile) error {
		req.ApplyTo(p)
		return nil
	})
	if err != nil {
		return err
	}
	return h.respond(c, profile)
}

// AddExperience prepends an experience entry to the caller's profile
func (h *ProfileHandler) AddExperience(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.ExperienceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	exp, err := req.ToExperience()
	if err != nil {
		return apperror.ValidationFailed("from", err.Error())
	}

	profile, err := h.profileRepository.UpdateProfile(c.Request().Context(), userID, func(p *models.Profile) error {
		p.AddExperience(exp)
		return nil
	})
	if err != nil {
		return err
	}
	return h.respond(c, profile)
}

// DeleteExperience removes an experience entry. Unknown ids leave the
// profile unchanged.
func (h *ProfileHandler) DeleteExperience(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	expID, parseErr := primitive.ObjectIDFromHex(c.Param("exp_id"))

	profile, err := h.profileRepository.UpdateProfile(c.Request().Context(), userID, func(p *models.Profile) error {
		if parseErr == nil {
			p.RemoveExperience(expID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return h.respond(c, profile)
}

// AddEducation prepends an education entry to the caller's profile
func (h *ProfileHandler) AddEducation(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.EducationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	edu, err := req.ToEducation()
	if err != nil {
		return apperror.ValidationFailed("from", err.Error())
	}

	profile, err := h.profileRepository.UpdateProfile(c.Request().Context(), userID, func(p *models.Profile) error {
		p.AddEducation(edu)
		return nil
	})
	if err != nil {
		return err
	}
	return h.respond(c, profile)
}

// DeleteEducation removes an education entry. Unknown ids leave the
// profile unchanged.
func (h *ProfileHandler) DeleteEducation(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	eduID, parseErr := primitive.ObjectIDFromHex(c.Param("edu_id"))

	profile, err := h.profileRepository.UpdateProfile(c.Request().Context(), userID, func(p *models.Profile) error {
		if parseErr == nil {
			p.RemoveEducation(eduID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return h.respond(c, profile)
}

// DeleteAccount removes the caller's posts, profile and user account, in
// that order, so a partial failure never leaves content without an owner.
func (h *ProfileHandler) DeleteAccount(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if err := h.postRepository.DeletePostsByUser(ctx, userID); err != nil {
		logger.LogError(h.logger, "delete account: removing posts", err, logrus.Fields{"user_id": userID.Hex()})
		return apperror.BadRequest("message", "Failed to delete account")
	}
	if err := h.profileRepository.DeleteProfileByUserID(ctx, userID); err != nil {
		logger.LogError(h.logger, "delete account: removing profile", err, logrus.Fields{"user_id": userID.Hex()})
		return apperror.BadRequest("message", "Failed to delete account")
	}
	if err := h.userRepository.DeleteUser(ctx, userID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		logger.LogError(h.logger, "delete account: removing user", err, logrus.Fields{"user_id": userID.Hex()})
		return apperror.BadRequest("message", "Failed to delete account")
	}

	h.logger.WithField("user_id", userID.Hex()).Info("account deleted")
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
