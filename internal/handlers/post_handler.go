package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/models"
	"github.com/anonto42/devconnect/backend/internal/repositories"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository // fills in name and avatar the client left out
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
	}
}

// RegisterPostRoutes registers post-related routes. requireAuth guards
// every route that acts on behalf of the caller.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, requireAuth ...echo.MiddlewareFunc) {
	g.GET("/posts/test", h.Test)
	g.GET("/posts", h.GetPosts)
	g.GET("/posts/:id", h.GetPost)
	g.POST("/posts", h.CreatePost, requireAuth...)
	g.DELETE("/posts/:id", h.DeletePost, requireAuth...)
	g.POST("/posts/like/:id", h.LikePost, requireAuth...)
	g.POST("/posts/unlike/:id", h.UnlikePost, requireAuth...)
	g.POST("/posts/comment/:id", h.AddComment, requireAuth...)
	g.DELETE("/posts/comment/:id/:comment_id", h.DeleteComment, requireAuth...)
}

// Test reports that the post routes are mounted
func (h *PostHandler) Test(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"msg": "Posts Works"})
}

// GetPosts lists all posts, newest first
func (h *PostHandler) GetPosts(c echo.Context) error {
	posts, err := h.postRepository.GetAllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// CreatePost creates a new post authored by the caller
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	name, avatar, err := h.authorDetails(ctx, userID, req.Name, req.Avatar)
	if err != nil {
		return err
	}

	post := &models.Post{
		User:   userID,
		Text:   req.Text,
		Name:   name,
		Avatar: avatar,
	}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// authorDetails prefers what the client sent and falls back to the account.
func (h *PostHandler) authorDetails(ctx context.Context, userID primitive.ObjectID, name, avatar string) (string, string, error) {
	if name != "" && avatar != "" {
		return name, avatar, nil
	}
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return name, avatar, nil
	}
	if err != nil {
		return "", "", err
	}
	if name == "" {
		name = user.Name
	}
	if avatar == "" {
		avatar = user.Avatar
	}
	return name, avatar, nil
}

// DeletePost deletes a post owned by the caller
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if post.User != userID {
		return errNotAuthorized()
	}
	if err := h.postRepository.DeletePost(ctx, post.ID.Hex()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// LikePost adds the caller to a post's likes. Liking twice is a 400
func (h *PostHandler) LikePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	post, err := h.postRepository.UpdatePost(c.Request().Context(), c.Param("id"), func(p *models.Post) error {
		if p.LikedBy(userID) {
			return apperror.BadRequest("alreadyliked", "User already liked this post")
		}
		p.AddLike(userID)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// UnlikePost removes the caller's like
func (h *PostHandler) UnlikePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	post, err := h.postRepository.UpdatePost(c.Request().Context(), c.Param("id"), func(p *models.Post) error {
		if !p.RemoveLike(userID) {
			return apperror.BadRequest("notliked", "You have not yet liked this post")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// AddComment prepends a comment by the caller
func (h *PostHandler) AddComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	req.Name, req.Avatar, err = h.authorDetails(ctx, userID, req.Name, req.Avatar)
	if err != nil {
		return err
	}
	comment := req.NewComment(userID, time.Now().UTC())

	post, err := h.postRepository.UpdatePost(ctx, c.Param("id"), func(p *models.Post) error {
		p.AddComment(comment)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// DeleteComment removes a comment. The comment's author and the post's
// owner may both remove it.
func (h *PostHandler) DeleteComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	commentID, parseErr := primitive.ObjectIDFromHex(c.Param("comment_id"))
	post, err := h.postRepository.UpdatePost(c.Request().Context(), c.Param("id"), func(p *models.Post) error {
		i := -1
		if parseErr == nil {
			i = p.CommentIndex(commentID)
		}
		if i < 0 {
			return apperror.NotFound("commentnotexists", "Comment does not exist")
		}
		if p.Comments[i].User != userID && p.User != userID {
			return errNotAuthorized()
		}
		p.RemoveCommentAt(i)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}
