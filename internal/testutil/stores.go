// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/auth"
	"github.com/anonto42/devconnect/backend/internal/models"
	"github.com/anonto42/devconnect/backend/internal/repositories"
)

// PostRepoStub is an in-memory repositories.PostRepository. Setting Err
// makes every call fail with it.
type PostRepoStub struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]*models.Post
	Err   error
}

func NewPostRepoStub() *PostRepoStub {
	return &PostRepoStub{posts: make(map[primitive.ObjectID]*models.Post)}
}

var _ repositories.PostRepository = (*PostRepoStub)(nil)

func postNotFound() error {
	return apperror.NotFound("nopostfound", "No post found with that ID")
}

func (s *PostRepoStub) EnsureIndexes(context.Context) error { return s.Err }

func (s *PostRepoStub) CreatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	post.ID = primitive.NewObjectID()
	if post.Date.IsZero() {
		post.Date = time.Now().UTC()
	}
	post.Normalize()
	s.posts[post.ID] = post.Clone()
	return nil
}

func (s *PostRepoStub) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.lookup(id)
	if !ok {
		return nil, postNotFound()
	}
	return p.Clone(), nil
}

func (s *PostRepoStub) lookup(id string) (*models.Post, bool) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	p, ok := s.posts[objID]
	return p, ok
}

func (s *PostRepoStub) GetAllPosts(context.Context) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	posts := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, *p.Clone())
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Date.After(posts[j].Date) })
	return posts, nil
}

func (s *PostRepoStub) UpdatePost(_ context.Context, id string, mutate func(*models.Post) error) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	stored, ok := s.lookup(id)
	if !ok {
		return nil, postNotFound()
	}
	p := stored.Clone()
	if err := mutate(p); err != nil {
		return nil, err
	}
	p.Version++
	s.posts[p.ID] = p.Clone()
	return p, nil
}

func (s *PostRepoStub) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	p, ok := s.lookup(id)
	if !ok {
		return postNotFound()
	}
	delete(s.posts, p.ID)
	return nil
}

func (s *PostRepoStub) DeletePostsByUser(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for id, p := range s.posts {
		if p.User == userID {
			delete(s.posts, id)
		}
	}
	return nil
}

// Len reports how many posts are stored.
func (s *PostRepoStub) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// ProfileRepoStub is an in-memory repositories.ProfileRepository enforcing
// one profile per user and unique handles.
type ProfileRepoStub struct {
	mu       sync.Mutex
	profiles map[primitive.ObjectID]*models.Profile // keyed by owner
	order    []primitive.ObjectID
	Err      error
}

func NewProfileRepoStub() *ProfileRepoStub {
	return &ProfileRepoStub{profiles: make(map[primitive.ObjectID]*models.Profile)}
}

var _ repositories.ProfileRepository = (*ProfileRepoStub)(nil)

func profileNotFound() error {
	return apperror.NotFound("noprofile", "There is no profile for this user")
}

func (s *ProfileRepoStub) handleTaken(handle string, owner primitive.ObjectID) bool {
	for uid, p := range s.profiles {
		if uid != owner && p.Handle == handle {
			return true
		}
	}
	return false
}

func (s *ProfileRepoStub) EnsureIndexes(context.Context) error { return s.Err }

func (s *ProfileRepoStub) CreateProfile(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.profiles[profile.UserID]; ok {
		return repositories.ErrProfileExists
	}
	if s.handleTaken(profile.Handle, profile.UserID) {
		return apperror.ValidationFailed("handle", "That handle already exists")
	}
	profile.ID = primitive.NewObjectID()
	if profile.Date.IsZero() {
		profile.Date = time.Now().UTC()
	}
	profile.Normalize()
	s.profiles[profile.UserID] = profile.Clone()
	s.order = append(s.order, profile.UserID)
	return nil
}

func (s *ProfileRepoStub) GetProfileByUserID(_ context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, profileNotFound()
	}
	return p.Clone(), nil
}

func (s *ProfileRepoStub) GetProfileByHandle(_ context.Context, handle string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, p := range s.profiles {
		if p.Handle == handle {
			return p.Clone(), nil
		}
	}
	return nil, profileNotFound()
}

func (s *ProfileRepoStub) GetAllProfiles(context.Context) ([]models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	profiles := make([]models.Profile, 0, len(s.profiles))
	for _, uid := range s.order {
		if p, ok := s.profiles[uid]; ok {
			profiles = append(profiles, *p.Clone())
		}
	}
	return profiles, nil
}

func (s *ProfileRepoStub) UpdateProfile(_ context.Context, userID primitive.ObjectID, mutate func(*models.Profile) error) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	stored, ok := s.profiles[userID]
	if !ok {
		return nil, profileNotFound()
	}
	p := stored.Clone()
	if err := mutate(p); err != nil {
		return nil, err
	}
	if s.handleTaken(p.Handle, userID) {
		return nil, apperror.ValidationFailed("handle", "That handle already exists")
	}
	p.Version++
	p.Owner = nil
	s.profiles[userID] = p.Clone()
	return p, nil
}

func (s *ProfileRepoStub) DeleteProfileByUserID(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.profiles, userID)
	return nil
}

// UserRepoStub is an in-memory repositories.UserRepository.
type UserRepoStub struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
	Err   error
}

func NewUserRepoStub() *UserRepoStub {
	return &UserRepoStub{users: make(map[primitive.ObjectID]*models.User)}
}

var _ repositories.UserRepository = (*UserRepoStub)(nil)

func (s *UserRepoStub) EnsureIndexes(context.Context) error { return s.Err }

func (s *UserRepoStub) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return apperror.ValidationFailed("email", "Email already exists")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// AddUser stores a user with the given name and returns it.
func (s *UserRepoStub) AddUser(name string) *models.User {
	u := &models.User{
		Name:   name,
		Email:  fmt.Sprintf("%s-%s@example.com", name, primitive.NewObjectID().Hex()),
		Avatar: "//www.gravatar.com/avatar/" + name,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (s *UserRepoStub) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("nouser", "User not found")
	}
	cp := *u
	return &cp, nil
}

func (s *UserRepoStub) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	users := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (s *UserRepoStub) GetUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.FirebaseUID != "" && u.FirebaseUID == uid {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("nouser", "User not found")
}

func (s *UserRepoStub) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[id]; !ok {
		return apperror.NotFound("nouser", "User not found")
	}
	delete(s.users, id)
	return nil
}

// TokenVerifier accepts any token that is a user id in hex, which lets
// tests authenticate with "Bearer <user.ID.Hex()>".
type TokenVerifier struct{}

func (TokenVerifier) Verify(_ context.Context, token string) (string, error) {
	if _, err := primitive.ObjectIDFromHex(token); err != nil {
		return "", fmt.Errorf("%w: not an object id", auth.ErrInvalidToken)
	}
	return token, nil
}
