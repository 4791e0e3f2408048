package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/models"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	EnsureIndexes(ctx context.Context) error
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	// UpdatePost loads the post, applies mutate and writes it back only if
	// nobody else wrote in between. An error from mutate aborts the update
	// and is returned as-is.
	UpdatePost(ctx context.Context, id string, mutate func(*models.Post) error) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	DeletePostsByUser(ctx context.Context, userID primitive.ObjectID) error
}

func errPostNotFound() error {
	return apperror.NotFound("nopostfound", "No post found with that ID")
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: -1}}, Options: options.Index().SetName("posts_date_desc")},
		{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetName("posts_user")},
	})
	if err != nil {
		return fmt.Errorf("create posts indexes: %w", err)
	}
	return nil
}

// CreatePost assigns a fresh id and creation date and stores the post.
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	if post.Date.IsZero() {
		post.Date = time.Now().UTC()
	}
	post.Version = 0
	post.Normalize()
	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetPostByID retrieves a post by ID. Malformed ids are reported as not found.
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errPostNotFound()
	}
	return r.findByID(ctx, objID)
}

func (r *MongoPostRepository) findByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errPostNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	post.Normalize()
	return &post, nil
}

// GetAllPosts returns every post, newest first. No posts is an empty slice.
func (r *MongoPostRepository) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	for i := range posts {
		posts[i].Normalize()
	}
	return posts, nil
}

func (r *MongoPostRepository) UpdatePost(ctx context.Context, id string, mutate func(*models.Post) error) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errPostNotFound()
	}

	return retryOnConflict(ctx, "posts", maxUpdateAttempts, func() (*models.Post, error) {
		post, err := r.findByID(ctx, objID)
		if err != nil {
			return nil, err
		}
		if err := mutate(post); err != nil {
			return nil, err
		}

		current := post.Version
		post.Version++
		res, err := r.collection.ReplaceOne(ctx, versionFilter(objID, current), post)
		if err != nil {
			return nil, fmt.Errorf("replace post: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, errVersionConflict
		}
		return post, nil
	})
}

// DeletePost deletes a post by ID
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errPostNotFound()
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return errPostNotFound()
	}
	return nil
}

// DeletePostsByUser removes every post authored by userID.
func (r *MongoPostRepository) DeletePostsByUser(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"user": userID}); err != nil {
		return fmt.Errorf("delete posts of user: %w", err)
	}
	return nil
}
