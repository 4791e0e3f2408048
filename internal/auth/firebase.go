package auth

import (
	"context"
	"errors"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/models"
)

// IDTokenVerifier is the part of *auth.Client used here.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// UserByFirebaseUID looks up the local account linked to a Firebase UID.
type UserByFirebaseUID interface {
	GetUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
}

// FirebaseVerifier accepts Firebase ID tokens and maps them to local users.
type FirebaseVerifier struct {
	client IDTokenVerifier
	users  UserByFirebaseUID
}

func NewFirebaseVerifier(client IDTokenVerifier, users UserByFirebaseUID) *FirebaseVerifier {
	return &FirebaseVerifier{client: client, users: users}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (string, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := v.users.GetUserByFirebaseUID(ctx, token.UID)
	if errors.Is(err, apperror.ErrNotFound) {
		return "", fmt.Errorf("%w: no local account for firebase uid %s", ErrInvalidToken, token.UID)
	}
	if err != nil {
		return "", fmt.Errorf("auth: resolving firebase uid: %w", err)
	}
	return user.ID.Hex(), nil
}
