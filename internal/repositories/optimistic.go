package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/devconnect/backend/internal/apperror"
	"github.com/anonto42/devconnect/backend/internal/metrics"
)

// maxUpdateAttempts bounds the read-modify-write loop of a single update.
const maxUpdateAttempts = 5

// errVersionConflict means the document changed between read and write.
var errVersionConflict = errors.New("document version conflict")

// retryOnConflict runs fn until it stops failing with errVersionConflict.
// After attempts losses it gives up with a 409 conflict.
func retryOnConflict[T any](ctx context.Context, collection string, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn()
		if !errors.Is(err, errVersionConflict) {
			return v, err
		}
		metrics.StoreConflictsTotal.WithLabelValues(collection).Inc()
	}
	return zero, apperror.Conflict("conflict", "The resource was modified concurrently, please retry")
}

// versionFilter matches id at exactly version. Documents written before
// versioning have no version field and count as version 0.
func versionFilter(id primitive.ObjectID, version int64) bson.M {
	if version == 0 {
		return bson.M{
			"_id": id,
			"$or": bson.A{
				bson.M{"version": 0},
				bson.M{"version": bson.M{"$exists": false}},
			},
		}
	}
	return bson.M{"_id": id, "version": version}
}
