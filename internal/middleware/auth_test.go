package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/devconnect/backend/internal/auth"
)

// stubVerifier accepts "good" and returns id; "down" simulates a store outage.
type stubVerifier struct{ id string }

func (s stubVerifier) Verify(_ context.Context, token string) (string, error) {
	switch token {
	case "good":
		return s.id, nil
	case "down":
		return "", errors.New("mongo: connection refused")
	default:
		return "", fmt.Errorf("%w: bad signature", auth.ErrInvalidToken)
	}
}

func TestAuth(t *testing.T) {
	userID := primitive.NewObjectID()

	tests := []struct {
		name       string
		header     string
		verifierID string
		wantStatus int
	}{
		{"valid token", "Bearer good", userID.Hex(), http.StatusOK},
		{"lowercase scheme", "bearer good", userID.Hex(), http.StatusOK},
		{"missing header", "", userID.Hex(), http.StatusUnauthorized},
		{"wrong scheme", "Basic good", userID.Hex(), http.StatusUnauthorized},
		{"no token", "Bearer ", userID.Hex(), http.StatusUnauthorized},
		{"invalid token", "Bearer forged", userID.Hex(), http.StatusUnauthorized},
		{"subject is not an object id", "Bearer good", "not-hex", http.StatusUnauthorized},
		{"verifier outage", "Bearer down", userID.Hex(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			var seen primitive.ObjectID
			e.GET("/private", func(c echo.Context) error {
				seen, _ = CurrentUserID(c)
				return c.NoContent(http.StatusOK)
			}, Auth(stubVerifier{id: tt.verifierID}))

			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID, seen)
			}
		})
	}
}

func TestCurrentUserID_Unset(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, ok := CurrentUserID(c)
	assert.False(t, ok)
}
