// Package auth turns bearer tokens into user ids.
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is wrapped by every verifier failure that should be
// answered with 401. Other errors are infrastructure failures.
var ErrInvalidToken = errors.New("auth: invalid token")

// Verifier resolves a bearer token to the hex ObjectID of a local user.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}
