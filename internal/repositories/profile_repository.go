package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/models"
)

const (
	profileUserIndex   = "profiles_user_unique"
	profileHandleIndex = "profiles_handle_unique"
)

// ErrProfileExists is returned by CreateProfile when the user already has a
// profile. Callers fall back to an update.
var ErrProfileExists = apperror.Conflict("profile", "A profile already exists for this user")

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	EnsureIndexes(ctx context.Context) error
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfileByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	GetProfileByHandle(ctx context.Context, handle string) (*models.Profile, error)
	GetAllProfiles(ctx context.Context) ([]models.Profile, error)
	// UpdateProfile applies mutate to the user's profile with the same
	// retry semantics as PostRepository.UpdatePost.
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, mutate func(*models.Profile) error) (*models.Profile, error)
	DeleteProfileByUserID(ctx context.Context, userID primitive.ObjectID) error
}

func errProfileNotFound() error {
	return apperror.NotFound("noprofile", "There is no profile for this user")
}

func errHandleTaken() error {
	return apperror.ValidationFailed("handle", "That handle already exists")
}

// MongoProfileRepository implements ProfileRepository for MongoDB
type MongoProfileRepository struct {
	collection *mongo.Collection
}

func NewMongoProfileRepository(db *mongo.Database) *MongoProfileRepository {
	return &MongoProfileRepository{collection: db.Collection("profiles")}
}

// EnsureIndexes creates the unique indexes that back one-profile-per-user
// and handle uniqueness.
func (r *MongoProfileRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}}, Options: options.Index().SetName(profileUserIndex).SetUnique(true)},
		{Keys: bson.D{{Key: "handle", Value: 1}}, Options: options.Index().SetName(profileHandleIndex).SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create profiles indexes: %w", err)
	}
	return nil
}

func (r *MongoProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	profile.ID = primitive.NewObjectID()
	if profile.Date.IsZero() {
		profile.Date = time.Now().UTC()
	}
	profile.Version = 0
	profile.Normalize()

	_, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		return translateProfileWriteError(err, "insert profile")
	}
	return nil
}

// translateProfileWriteError tells the two unique indexes apart.
func translateProfileWriteError(err error, op string) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if strings.Contains(err.Error(), profileHandleIndex) {
		return errHandleTaken()
	}
	if strings.Contains(err.Error(), profileUserIndex) {
		return ErrProfileExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *MongoProfileRepository) GetProfileByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"user": userID})
}

func (r *MongoProfileRepository) GetProfileByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"handle": handle})
}

func (r *MongoProfileRepository) findOne(ctx context.Context, filter bson.M) (*models.Profile, error) {
	var profile models.Profile
	err := r.collection.FindOne(ctx, filter).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errProfileNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	profile.Normalize()
	return &profile, nil
}

// GetAllProfiles returns every profile in insertion order.
func (r *MongoProfileRepository) GetAllProfiles(ctx context.Context) ([]models.Profile, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	defer cursor.Close(ctx)

	profiles := []models.Profile{}
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	for i := range profiles {
		profiles[i].Normalize()
	}
	return profiles, nil
}

func (r *MongoProfileRepository) UpdateProfile(ctx context.Context, userID primitive.ObjectID, mutate func(*models.Profile) error) (*models.Profile, error) {
	return retryOnConflict(ctx, "profiles", maxUpdateAttempts, func() (*models.Profile, error) {
		profile, err := r.GetProfileByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := mutate(profile); err != nil {
			return nil, err
		}

		current := profile.Version
		profile.Version++
		res, err := r.collection.ReplaceOne(ctx, versionFilter(profile.ID, current), profile)
		if err != nil {
			return nil, translateProfileWriteError(err, "replace profile")
		}
		if res.MatchedCount == 0 {
			return nil, errVersionConflict
		}
		return profile, nil
	})
}

// DeleteProfileByUserID removes the user's profile. A missing profile is
// not an error.
func (r *MongoProfileRepository) DeleteProfileByUserID(ctx context.Context, userID primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"user": userID}); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
