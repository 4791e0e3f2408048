package auth

import (
	"context"
	"errors"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/models"
)

type fakeIDTokens struct {
	uid string
	err error
}

func (f fakeIDTokens) VerifyIDToken(_ context.Context, _ string) (*fbauth.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fbauth.Token{UID: f.uid}, nil
}

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	if uid == "broken" {
		return nil, errors.New("connection reset")
	}
	u, ok := f[uid]
	if !ok {
		return nil, apperror.NotFound("nouser", "User not found")
	}
	return u, nil
}

func TestFirebaseVerifier(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), FirebaseUID: "fb-1"}
	users := fakeUsers{"fb-1": user}

	t.Run("known user", func(t *testing.T) {
		id, err := NewFirebaseVerifier(fakeIDTokens{uid: "fb-1"}, users).Verify(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, user.ID.Hex(), id)
	})

	t.Run("bad token", func(t *testing.T) {
		_, err := NewFirebaseVerifier(fakeIDTokens{err: errors.New("expired")}, users).Verify(context.Background(), "tok")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("unknown uid", func(t *testing.T) {
		_, err := NewFirebaseVerifier(fakeIDTokens{uid: "fb-2"}, users).Verify(context.Background(), "tok")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("store failure is not a token error", func(t *testing.T) {
		_, err := NewFirebaseVerifier(fakeIDTokens{uid: "broken"}, users).Verify(context.Background(), "tok")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrInvalidToken))
	})
}
