package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/metrics"
)

func TestRetryOnConflict_SucceedsAfterLosses(t *testing.T) {
	before := testutil.ToFloat64(metrics.StoreConflictsTotal.WithLabelValues("retry-test"))
	calls := 0

	v, err := retryOnConflict(context.Background(), "retry-test", 5, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errVersionConflict
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.StoreConflictsTotal.WithLabelValues("retry-test")))
}

func TestRetryOnConflict_GivesUp(t *testing.T) {
	calls := 0
	_, err := retryOnConflict(context.Background(), "retry-test", 3, func() (string, error) {
		calls++
		return "", errVersionConflict
	})

	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestRetryOnConflict_PassesOtherErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := retryOnConflict(context.Background(), "retry-test", 5, func() (string, error) {
		calls++
		return "", boom
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, boom, err)
}

func TestRetryOnConflict_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := retryOnConflict(ctx, "retry-test", 5, func() (int, error) {
		t.Fatal("fn must not run")
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVersionFilter(t *testing.T) {
	id := primitive.NewObjectID()

	assert.Equal(t, bson.M{"_id": id, "version": int64(3)}, versionFilter(id, 3))

	legacy := versionFilter(id, 0)
	assert.Equal(t, id, legacy["_id"])
	assert.Len(t, legacy["$or"], 2)
}
