package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/devconnect/backend/internal/models"
)

func TestUsers_TestRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/users/test", primitive.NilObjectID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"msg":"Users Works"}`, rec.Body.String())
}

func TestUsers_Current(t *testing.T) {
	ts := newTestServer(t)
	user := ts.users.AddUser("john")

	rec := ts.do(t, http.MethodGet, "/api/users/current", user.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.User](t, rec)
	assert.Equal(t, user.ID, got.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = ts.do(t, http.MethodGet, "/api/users/current", primitive.NilObjectID, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"store down", errors.New("server selection timeout"), http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/health", HealthCheck(pingerFunc(func(context.Context) error { return tt.err })))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestHealthCheck_AllPingersMustPass(t *testing.T) {
	up := pingerFunc(func(context.Context) error { return nil })
	pending := pingerFunc(func(context.Context) error { return errors.New("indexes pending") })

	e := echo.New()
	e.GET("/health", HealthCheck(Pingers{up, pending}))
	e.GET("/ready", HealthCheck(Pingers{up, up}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
