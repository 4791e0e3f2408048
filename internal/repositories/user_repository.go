package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	EnsureIndexes(ctx context.Context) error
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
}

func errUserNotFound() error {
	return apperror.NotFound("nouser", "User not found")
}

// userRecord is the relational row for a user. Ids stay ObjectID hex so
// that posts and profiles in MongoDB can reference either store.
type userRecord struct {
	ID           string  `gorm:"primaryKey;size:24"`
	Name         string  `gorm:"size:100"`
	Email        string  `gorm:"size:255;uniqueIndex"`
	PasswordHash string
	Avatar       string
	FirebaseUID  *string `gorm:"size:128;uniqueIndex"`
	CreatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

func toUserRecord(u *models.User) userRecord {
	rec := userRecord{
		ID:           u.ID.Hex(),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Avatar:       u.Avatar,
		CreatedAt:    u.Date,
	}
	if u.FirebaseUID != "" {
		uid := u.FirebaseUID
		rec.FirebaseUID = &uid
	}
	return rec
}

func (rec userRecord) toModel() (models.User, error) {
	id, err := primitive.ObjectIDFromHex(rec.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("user row %q has malformed id: %w", rec.ID, err)
	}
	u := models.User{
		ID:           id,
		Name:         rec.Name,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Avatar:       rec.Avatar,
		Date:         rec.CreatedAt,
	}
	if rec.FirebaseUID != nil {
		u.FirebaseUID = *rec.FirebaseUID
	}
	return u, nil
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// EnsureIndexes migrates the users table, including its unique indexes.
func (r *PostgresUserRepository) EnsureIndexes(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&userRecord{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

// CreateUser creates a new user in PostgreSQL
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Date.IsZero() {
		user.Date = time.Now().UTC()
	}
	rec := toUserRecord(user)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.ValidationFailed("email", "Email already exists")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.first(ctx, "id = ?", id.Hex())
}

// GetUserByFirebaseUID retrieves a user by Firebase UID from PostgreSQL
func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return r.first(ctx, "firebase_uid = ?", firebaseUID)
}

func (r *PostgresUserRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var rec userRecord
	err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errUserNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u, err := rec.toModel()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUsersByIDs returns the users that exist among ids, in no particular order.
func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	hexIDs := make([]string, len(ids))
	for i, id := range ids {
		hexIDs[i] = id.Hex()
	}

	var recs []userRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", hexIDs).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	for _, rec := range recs {
		u, err := rec.toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// DeleteUser deletes a user by ID from PostgreSQL
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id.Hex()).Delete(&userRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errUserNotFound()
	}
	return nil
}
