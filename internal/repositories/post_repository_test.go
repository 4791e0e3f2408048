package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/models"
)

const postsNS = "devconnect.posts"

func postDoc(id, user primitive.ObjectID, version int64) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "user", Value: user},
		{Key: "text", Value: "hello"},
		{Key: "likes", Value: bson.A{}},
		{Key: "comments", Value: bson.A{}},
		{Key: "date", Value: primitive.NewDateTimeFromTime(time.Now())},
		{Key: "version", Value: version},
	}
}

func replaced(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func TestMongoPostRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create assigns id and empty lists", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		post := &models.Post{User: primitive.NewObjectID(), Text: "hello"}
		require.NoError(mt, repo.CreatePost(ctx, post))
		assert.False(mt, post.ID.IsZero())
		assert.False(mt, post.Date.IsZero())
		assert.NotNil(mt, post.Likes)
		assert.NotNil(mt, post.Comments)
	})

	mt.Run("get by malformed id is not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		_, err := repo.GetPostByID(ctx, "not-an-id")

		var appErr *apperror.AppError
		require.True(mt, errors.As(err, &appErr))
		assert.Equal(mt, "nopostfound", appErr.Field)
	})

	mt.Run("get missing post", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch))

		_, err := repo.GetPostByID(ctx, primitive.NewObjectID().Hex())
		assert.True(mt, errors.Is(err, apperror.ErrNotFound))
	})

	mt.Run("list decodes all posts", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		user := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch,
			postDoc(primitive.NewObjectID(), user, 0),
			postDoc(primitive.NewObjectID(), user, 2),
		))

		posts, err := repo.GetAllPosts(ctx)
		require.NoError(mt, err)
		require.Len(mt, posts, 2)
		assert.Equal(mt, user, posts[0].User)
		assert.Equal(mt, int64(2), posts[1].Version)
	})

	mt.Run("list with no posts is empty, not nil", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch))

		posts, err := repo.GetAllPosts(ctx)
		require.NoError(mt, err)
		assert.NotNil(mt, posts)
		assert.Empty(mt, posts)
	})

	mt.Run("update retries after a lost write", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		id, user, liker := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch, postDoc(id, user, 0)),
			replaced(0),
			mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch, postDoc(id, user, 1)),
			replaced(1),
		)

		calls := 0
		post, err := repo.UpdatePost(ctx, id.Hex(), func(p *models.Post) error {
			calls++
			p.AddLike(liker)
			return nil
		})
		require.NoError(mt, err)
		assert.Equal(mt, 2, calls)
		assert.Equal(mt, int64(2), post.Version)
		assert.True(mt, post.LikedBy(liker))
	})

	mt.Run("update gives up with conflict", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		id, user := primitive.NewObjectID(), primitive.NewObjectID()
		for i := 0; i < maxUpdateAttempts; i++ {
			mt.AddMockResponses(
				mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch, postDoc(id, user, 0)),
				replaced(0),
			)
		}

		_, err := repo.UpdatePost(ctx, id.Hex(), func(*models.Post) error { return nil })
		assert.True(mt, errors.Is(err, apperror.ErrConflict))
	})

	mt.Run("mutate error aborts without writing", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, postsNS, mtest.FirstBatch, postDoc(id, primitive.NewObjectID(), 0)))

		_, err := repo.UpdatePost(ctx, id.Hex(), func(*models.Post) error {
			return apperror.BadRequest("alreadyliked", "User already liked this post")
		})
		assert.True(mt, errors.Is(err, apperror.ErrBadRequest))
	})

	mt.Run("delete missing post", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.DeletePost(ctx, primitive.NewObjectID().Hex())
		assert.True(mt, errors.Is(err, apperror.ErrNotFound))
	})

	mt.Run("delete by user", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}))

		assert.NoError(mt, repo.DeletePostsByUser(ctx, primitive.NewObjectID()))
	})
}
