package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/devconnect/backend/internal/middleware"
	"github.com/anonto42/devconnect/backend/internal/testutil"
	"github.com/anonto42/devconnect/backend/internal/validators"
)

type testServer struct {
	e        *echo.Echo
	posts    *testutil.PostRepoStub
	profiles *testutil.ProfileRepoStub
	users    *testutil.UserRepoStub
	logs     *logtest.Hook
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ts := &testServer{
		e:        echo.New(),
		posts:    testutil.NewPostRepoStub(),
		profiles: testutil.NewProfileRepoStub(),
		users:    testutil.NewUserRepoStub(),
		logs:     logtest.NewLocal(logger),
	}
	ts.e.Validator = validators.NewValidator()
	ts.e.HTTPErrorHandler = ErrorHandler(logger, ts.e.DefaultHTTPErrorHandler)

	requireAuth := middleware.Auth(testutil.TokenVerifier{})
	api := ts.e.Group("/api")
	NewPostHandler(ts.posts, ts.users).RegisterPostRoutes(api, requireAuth)
	NewProfileHandler(ts.profiles, ts.users, ts.posts, logger).RegisterProfileRoutes(api, requireAuth)
	NewUserHandler(ts.users).RegisterUserRoutes(api, requireAuth)
	return ts
}

// do sends body as JSON. A zero caller sends no Authorization header.
func (ts *testServer) do(t *testing.T, method, path string, caller primitive.ObjectID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if !caller.IsZero() {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+caller.Hex())
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
